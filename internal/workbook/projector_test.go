package workbook

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/anstrom/nmapxlsx/internal/errors"
	"github.com/anstrom/nmapxlsx/internal/report"
)

func project(t *testing.T, reports []*report.Report) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scan.xlsx")
	w, err := Create(path, DefaultOptions())
	require.NoError(t, err)
	defer func() { _ = w.Discard() }()

	require.NoError(t, Project(reports, w))
	return path
}

func open(t *testing.T, path string) *excelize.File {
	t.Helper()

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestProjectEndToEnd(t *testing.T) {
	path := project(t, fixtureReports())
	f := open(t, path)

	assert.Equal(t, []string{SummarySheet, ResultsSheet}, f.GetSheetList())

	t.Run("summary rows", func(t *testing.T) {
		rows, err := f.GetRows(SummarySheet)
		require.NoError(t, err)
		require.Len(t, rows, 3, "header plus one row per report")

		assert.Equal(t, []string{
			"Scan", "Command", "Version", "Scan Type", "Started", "Completed",
			"Hosts Total", "Hosts Up", "Hosts Down",
		}, rows[0])
		assert.Equal(t, []string{
			"web.xml",
			"nmap -sV --script ssl-cert -oX web.xml 192.168.1.10",
			"7.94",
			"syn",
			"2023-11-14 22:13:20 (UTC)",
			"2023-11-14 22:14:20 (UTC)",
			"1", "1", "0",
		}, rows[1])
		assert.Equal(t, "idle.xml", rows[2][0])
		assert.Equal(t, "2", rows[2][6])
	})

	t.Run("results rows", func(t *testing.T) {
		rows, err := f.GetRows(ResultsSheet)
		require.NoError(t, err)
		require.Len(t, rows, 3, "header plus one row per service; the idle host adds none")

		assert.Equal(t, "Host", rows[0][0])
		assert.Equal(t, "Notes", rows[0][14])

		assert.Equal(t, []string{"web01.lan", "192.168.1.10", "22", "tcp", "open", "ssh"}, rows[1][:6])
		assert.Equal(t, []string{"web01.lan", "192.168.1.10", "80", "tcp", "open", "http"}, rows[2][:6])

		for _, row := range []int{2, 3} {
			flagged, err := f.GetCellValue(ResultsSheet, cellName(t, 14, row))
			require.NoError(t, err)
			assert.Equal(t, "N/A", flagged)

			notes, err := f.GetCellValue(ResultsSheet, cellName(t, 15, row))
			require.NoError(t, err)
			assert.Equal(t, "", notes)
		}
	})

	t.Run("confidence is a percentage", func(t *testing.T) {
		raw, err := f.GetCellValue(ResultsSheet, "I2", excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		assert.Equal(t, "1", raw)

		shown, err := f.GetCellValue(ResultsSheet, "I2")
		require.NoError(t, err)
		assert.Equal(t, "100%", shown)

		raw, err = f.GetCellValue(ResultsSheet, "I3", excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		assert.Equal(t, "0", raw)
	})

	t.Run("headers are bold", func(t *testing.T) {
		for _, sheet := range []string{SummarySheet, ResultsSheet} {
			styleID, err := f.GetCellStyle(sheet, "A1")
			require.NoError(t, err)
			style, err := f.GetStyle(styleID)
			require.NoError(t, err)
			require.NotNil(t, style.Font, sheet)
			assert.True(t, style.Font.Bold, sheet)
		}
	})

	t.Run("script output note on the service cell", func(t *testing.T) {
		comments, err := f.GetComments(ResultsSheet)
		require.NoError(t, err)
		require.Len(t, comments, 1, "only the service with script results gets a note")

		assert.Equal(t, "F3", comments[0].Cell)
		assert.Contains(t, comments[0].Text, "ssl-cert")
		assert.Contains(t, comments[0].Text, "foo")
	})

	t.Run("review dropdown", func(t *testing.T) {
		validations, err := f.GetDataValidations(ResultsSheet)
		require.NoError(t, err)
		require.Len(t, validations, 1)

		assert.Equal(t, "N2:O1048576", validations[0].Sqref)
		for _, value := range []string{"Y", "N", "N/A"} {
			assert.Contains(t, validations[0].Formula1, value)
		}
	})

	t.Run("header row frozen", func(t *testing.T) {
		panes, err := f.GetPanes(ResultsSheet)
		require.NoError(t, err)
		assert.True(t, panes.Freeze)
		assert.Equal(t, 1, panes.YSplit)
		assert.Equal(t, 0, panes.XSplit)
		assert.Equal(t, "A2", panes.TopLeftCell)
	})

	t.Run("autofilter on the header", func(t *testing.T) {
		sheet := sheetXML(t, path, "xl/worksheets/sheet2.xml")
		refs := autoFilterRef.FindAllStringSubmatch(sheet, -1)
		require.Len(t, refs, 1)
		assert.Equal(t, "A1:N1", strings.ReplaceAll(refs[0][1], "$", ""))

		var names []string
		for _, dn := range f.GetDefinedName() {
			if dn.Scope == ResultsSheet {
				names = append(names, dn.RefersTo)
			}
		}
		require.Len(t, names, 1)
		assert.True(t, strings.HasSuffix(names[0], "$A$1:$N$1"), names[0])
	})
}

func TestProjectIsDeterministic(t *testing.T) {
	first := open(t, project(t, fixtureReports()))
	second := open(t, project(t, fixtureReports()))

	for _, sheet := range []string{SummarySheet, ResultsSheet} {
		a, err := first.GetRows(sheet)
		require.NoError(t, err)
		b, err := second.GetRows(sheet)
		require.NoError(t, err)
		assert.Equal(t, a, b, sheet)
	}
}

func TestProjectContinuousResultRows(t *testing.T) {
	reports := []*report.Report{
		report.New("a.xml", webRun()),
		report.New("idle.xml", idleRun()),
		report.New("b.xml", webRun()),
	}
	f := open(t, project(t, reports))

	rows, err := f.GetRows(ResultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"22", "80", "22", "80"}, []string{rows[1][2], rows[2][2], rows[3][2], rows[4][2]})

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 4, "setup is not repeated per report")
	assert.Equal(t, "Scan", summary[0][0])
	assert.Equal(t, "b.xml", summary[3][0])

	comments, err := f.GetComments(ResultsSheet)
	require.NoError(t, err)
	assert.Len(t, comments, 2)

	validations, err := f.GetDataValidations(ResultsSheet)
	require.NoError(t, err)
	assert.Len(t, validations, 1)
}

func TestProjectNoReports(t *testing.T) {
	f := open(t, project(t, nil))

	rows, err := f.GetRows(ResultsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "headers are still written")
}

func TestProjectCommentOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.xlsx")
	w, err := Create(path, Options{Author: "reviewer", CommentWidth: 800})
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "N", "N/A"}, w.Options().ReviewValues)

	require.NoError(t, Project([]*report.Report{report.New("web.xml", webRun())}, w))

	comments, err := open(t, path).GetComments(ResultsSheet)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "reviewer", comments[0].Author)
}

func TestProjectUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "scan.xlsx")
	w, err := Create(path, DefaultOptions())
	require.NoError(t, err)

	err = Project(fixtureReports(), w)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeWrite))
	assert.Contains(t, err.Error(), path)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriterLifecycle(t *testing.T) {
	t.Run("close is idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scan.xlsx")
		w, err := Create(path, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, path, w.Path())

		require.NoError(t, w.Close())
		assert.NoError(t, w.Close())
		assert.NoError(t, w.Discard(), "discard after close does nothing")

		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("discard leaves no file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scan.xlsx")
		w, err := Create(path, DefaultOptions())
		require.NoError(t, err)

		require.NoError(t, w.Discard())
		assert.NoError(t, w.Close(), "close after discard does nothing")

		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("sheets exist before projection", func(t *testing.T) {
		w, err := Create(filepath.Join(t.TempDir(), "scan.xlsx"), DefaultOptions())
		require.NoError(t, err)
		defer func() { _ = w.Discard() }()

		assert.Equal(t, []string{SummarySheet, ResultsSheet}, w.File().GetSheetList())
	})
}

var autoFilterRef = regexp.MustCompile(`<autoFilter ref="([^"]+)"`)

func sheetXML(t *testing.T, path, name string) string {
	t.Helper()

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	for _, entry := range zr.File {
		if entry.Name != name {
			continue
		}
		rc, err := entry.Open()
		require.NoError(t, err)
		defer func() { _ = rc.Close() }()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("%s not found in %s", name, path)
	return ""
}

func cellName(t *testing.T, col, row int) string {
	t.Helper()
	cell, err := excelize.CoordinatesToCellName(col, row)
	require.NoError(t, err)
	return cell
}
