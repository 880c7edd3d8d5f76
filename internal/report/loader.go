// Package report loads nmap XML scan reports and exposes them as a read-only
// model for the workbook projector.
//
// Loading tries a strict parse first. Scans that were interrupted leave a
// truncated document behind, so when the strict parse fails the loader
// closes every element still open at the last well-formed token and parses
// the repaired document instead.
package report

import (
	"os"
	"path/filepath"

	"github.com/Ullaakut/nmap/v3"

	"github.com/anstrom/nmapxlsx/internal/errors"
	"github.com/anstrom/nmapxlsx/internal/logging"
	"github.com/anstrom/nmapxlsx/internal/metrics"
)

// Load parses every path in order. The first failure aborts the load.
func Load(paths []string) ([]*Report, error) {
	reports := make([]*Report, 0, len(paths))
	for _, path := range paths {
		rep, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// LoadFile reads and parses one report, falling back to lenient parsing
// when the strict parse fails.
func LoadFile(path string) (*Report, error) {
	name := filepath.Base(path)

	data, err := os.ReadFile(path) //nolint:gosec // input paths come from the operator
	if err != nil {
		return nil, errors.ErrFileRead(path, err, os.IsNotExist(err), os.IsPermission(err))
	}

	mode := metrics.ModeStrict
	rep, err := Parse(data)
	if err != nil {
		if errors.IsFatal(err) {
			return nil, err
		}
		logging.WarnReport("Strict parse failed, retrying as incomplete scan", name, err)

		mode = metrics.ModeLenient
		rep, err = ParseIncomplete(data)
		if err != nil {
			metrics.GetGlobalMetrics().IncrementLoadErrors(mode)
			logging.ErrorReport("Failed to parse report", name, err)
			if pe, ok := err.(*errors.ParseError); ok {
				pe.File = path
				return nil, pe
			}
			return nil, errors.ErrParseFailed(path, true, err)
		}
	}

	rep.Name = name
	metrics.GetGlobalMetrics().IncrementReportsLoaded(mode)
	logging.Debug("Loaded report", "report", name, "mode", mode, "hosts", len(rep.Run.Hosts))

	return rep, nil
}

// Parse strictly parses a complete nmap XML document.
func Parse(data []byte) (*Report, error) {
	if err := checkRoot(data); err != nil {
		return nil, errors.ErrParseFailed("", false, err)
	}
	run := &nmap.Run{}
	if err := nmap.Parse(data, run); err != nil {
		return nil, errors.ErrParseFailed("", false, err)
	}
	return &Report{Run: run}, nil
}

// ParseIncomplete parses a document that may have been cut short, such as
// the output of an interrupted scan. Non-numeric service confidence values
// are read as 0.
func ParseIncomplete(data []byte) (*Report, error) {
	repaired, err := closeOpenElements(data)
	if err != nil {
		return nil, errors.ErrParseFailed("", true, err)
	}

	run := &nmap.Run{}
	if err := nmap.Parse(normalizeConfidence(repaired), run); err != nil {
		return nil, errors.ErrParseFailed("", true, err)
	}
	return &Report{Run: run, incomplete: true}, nil
}
