// Package workbook projects loaded scan reports onto an xlsx workbook with a
// "Summary" sheet (one row per report) and a "Results" sheet (one row per
// host and service) prepared for manual review.
package workbook

import (
	"github.com/xuri/excelize/v2"

	"github.com/anstrom/nmapxlsx/internal/errors"
	"github.com/anstrom/nmapxlsx/internal/logging"
	"github.com/anstrom/nmapxlsx/internal/metrics"
)

// Sheet names.
const (
	SummarySheet = "Summary"
	ResultsSheet = "Results"
)

const (
	defaultAuthor       = "nmapxlsx"
	defaultCommentWidth = 500
)

// Options controls presentation details of the generated workbook.
type Options struct {
	// Author recorded on script-output comments
	Author string
	// CommentWidth is the width of the comment box on the Service column
	CommentWidth uint
	// ReviewValues are offered by the dropdown on the annotation columns
	ReviewValues []string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Author:       defaultAuthor,
		CommentWidth: defaultCommentWidth,
		ReviewValues: []string{"Y", "N", "N/A"},
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Author == "" {
		o.Author = def.Author
	}
	if o.CommentWidth == 0 {
		o.CommentWidth = def.CommentWidth
	}
	if len(o.ReviewValues) == 0 {
		o.ReviewValues = def.ReviewValues
	}
	return o
}

// Writer owns an in-memory workbook and the path it is saved to.
// It is opened once by Create and finalised once by Close.
type Writer struct {
	path string
	opts Options
	file *excelize.File

	styles   map[Style]int
	prepared bool
	closed   bool
}

// Create starts a new workbook destined for path. Nothing is written to
// disk until Close.
func Create(path string, opts Options) (*Writer, error) {
	file := excelize.NewFile()
	w := &Writer{
		path:   path,
		opts:   opts.withDefaults(),
		file:   file,
		styles: make(map[Style]int),
	}

	if err := file.SetSheetName(file.GetSheetName(0), SummarySheet); err != nil {
		_ = file.Close()
		return nil, errors.ErrWriteFailed("rename default sheet", err).AtCell(SummarySheet, "")
	}
	if _, err := file.NewSheet(ResultsSheet); err != nil {
		_ = file.Close()
		return nil, errors.ErrWriteFailed("create sheet", err).AtCell(ResultsSheet, "")
	}
	if err := w.initStyles(); err != nil {
		_ = file.Close()
		return nil, err
	}

	return w, nil
}

func (w *Writer) initStyles() error {
	defs := map[Style]*excelize.Style{
		StyleHeader:  {Font: &excelize.Font{Bold: true}},
		StylePercent: {NumFmt: 9}, // 0%
	}
	for kind, def := range defs {
		id, err := w.file.NewStyle(def)
		if err != nil {
			return errors.ErrWriteFailed("create style", err)
		}
		w.styles[kind] = id
	}
	return nil
}

// Path returns the destination of the workbook.
func (w *Writer) Path() string { return w.path }

// Options returns the effective options.
func (w *Writer) Options() Options { return w.opts }

// File exposes the underlying workbook for inspection.
func (w *Writer) File() *excelize.File { return w.file }

// Close saves the workbook to its path and releases it. Only the first call
// has an effect.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	saveErr := w.file.SaveAs(w.path)
	closeErr := w.file.Close()

	if saveErr != nil {
		metrics.GetGlobalMetrics().IncrementWriteErrors("save")
		logging.ErrorWorkbook("Failed to save workbook", saveErr, "path", w.path)
		return errors.ErrSaveFailed(w.path, saveErr)
	}
	if closeErr != nil {
		return errors.ErrWriteFailed("release workbook", closeErr)
	}

	logging.InfoWorkbook("Workbook saved", "path", w.path)
	return nil
}

// Discard releases the workbook without saving it. It does nothing after
// Close, so it can be deferred right after Create.
func (w *Writer) Discard() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}
