package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/anstrom/nmapxlsx/internal/errors"
	"github.com/anstrom/nmapxlsx/internal/logging"
	"github.com/anstrom/nmapxlsx/internal/metrics"
	"github.com/anstrom/nmapxlsx/internal/report"
)

const (
	// reviewColumns is the number of trailing Results columns that carry
	// the review dropdown.
	reviewColumns = 2
	// unfilteredColumns is the number of trailing Results columns left out
	// of the autofilter (Notes).
	unfilteredColumns = 1
)

// Project writes one Summary row per report and one Results row per host and
// service, in input order, then saves the workbook through w.Close.
func Project(reports []*report.Report, w *Writer) error {
	if err := w.setup(); err != nil {
		return err
	}

	m := metrics.GetGlobalMetrics()

	// Results rows are numbered continuously across reports.
	row := 1
	for i, rep := range reports {
		logging.InfoReport("Processing report", rep.Name, "summary", rep.Summary())

		if err := w.writeSummaryRow(i+2, rep); err != nil {
			return err
		}
		m.IncrementRowsWritten(SummarySheet, 1)

		for _, host := range rep.Hosts() {
			logging.InfoHost("Processing host", host.String())
			m.IncrementHostsProcessed()

			for _, svc := range host.Services() {
				row++
				if err := w.writeResultRow(row, host, svc); err != nil {
					return err
				}
				m.IncrementRowsWritten(ResultsSheet, 1)
			}
		}
	}

	return w.Close()
}

// setup writes headers and the sheet-wide Results features. It runs once per
// writer no matter how often it is called.
func (w *Writer) setup() error {
	if w.prepared {
		return nil
	}

	summaryNames := make([]string, len(SummaryColumns))
	summaryWidths := make([]float64, len(SummaryColumns))
	for i, col := range SummaryColumns {
		summaryNames[i], summaryWidths[i] = col.Name, col.Width
	}
	resultNames := make([]string, len(ResultColumns))
	resultWidths := make([]float64, len(ResultColumns))
	for i, col := range ResultColumns {
		resultNames[i], resultWidths[i] = col.Name, col.Width
	}

	if err := w.writeHeader(SummarySheet, summaryNames, summaryWidths); err != nil {
		return err
	}
	if err := w.writeHeader(ResultsSheet, resultNames, resultWidths); err != nil {
		return err
	}

	lastFiltered, err := excelize.ColumnNumberToName(len(ResultColumns) - unfilteredColumns)
	if err != nil {
		return w.fail("compute autofilter range", err, ResultsSheet, "")
	}
	filterRange := "A1:" + lastFiltered + "1"
	if err := w.file.AutoFilter(ResultsSheet, filterRange, nil); err != nil {
		return w.fail("add autofilter", err, ResultsSheet, filterRange)
	}

	if err := w.file.SetPanes(ResultsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return w.fail("freeze header row", err, ResultsSheet, "A1")
	}

	if err := w.addReviewValidation(); err != nil {
		return err
	}

	w.prepared = true
	return nil
}

func (w *Writer) writeHeader(sheet string, names []string, widths []float64) error {
	for i, name := range names {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return w.fail("address header cell", err, sheet, "")
		}
		if err := w.file.SetCellValue(sheet, cell, name); err != nil {
			return w.fail("write header", err, sheet, cell)
		}
		if err := w.file.SetCellStyle(sheet, cell, cell, w.styles[StyleHeader]); err != nil {
			return w.fail("style header", err, sheet, cell)
		}

		if widths[i] > 0 {
			col, _ := excelize.ColumnNumberToName(i + 1)
			if err := w.file.SetColWidth(sheet, col, col, widths[i]); err != nil {
				return w.fail("set column width", err, sheet, col)
			}
		}
	}
	return nil
}

// addReviewValidation restricts the reviewer columns to the configured
// dropdown values from row 2 to the last row of the sheet.
func (w *Writer) addReviewValidation() error {
	first, err := excelize.ColumnNumberToName(len(ResultColumns) - reviewColumns + 1)
	if err != nil {
		return w.fail("compute validation range", err, ResultsSheet, "")
	}
	last, err := excelize.ColumnNumberToName(len(ResultColumns))
	if err != nil {
		return w.fail("compute validation range", err, ResultsSheet, "")
	}
	sqref := fmt.Sprintf("%s2:%s%d", first, last, excelize.TotalRows)

	dv := excelize.NewDataValidation(true)
	dv.Sqref = sqref
	if err := dv.SetDropList(w.opts.ReviewValues); err != nil {
		return w.fail("build review dropdown", err, ResultsSheet, sqref)
	}
	if err := w.file.AddDataValidation(ResultsSheet, dv); err != nil {
		return w.fail("add review dropdown", err, ResultsSheet, sqref)
	}
	return nil
}

func (w *Writer) writeSummaryRow(row int, rep *report.Report) error {
	values := make([]any, len(SummaryColumns))
	for i, col := range SummaryColumns {
		values[i] = col.Value(rep)
	}

	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := w.file.SetSheetRow(SummarySheet, cell, &values); err != nil {
		return w.fail("write summary row", err, SummarySheet, cell)
	}
	return nil
}

func (w *Writer) writeResultRow(row int, host report.Host, svc report.Service) error {
	values := make([]any, len(ResultColumns))
	for i, col := range ResultColumns {
		values[i] = col.Value(host, svc)
	}

	first, _ := excelize.CoordinatesToCellName(1, row)
	if err := w.file.SetSheetRow(ResultsSheet, first, &values); err != nil {
		return w.fail("write results row", err, ResultsSheet, first)
	}

	for i, col := range ResultColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)

		if style, ok := w.styles[col.Style]; ok && col.Style != StylePlain {
			if err := w.file.SetCellStyle(ResultsSheet, cell, cell, style); err != nil {
				return w.fail("style cell", err, ResultsSheet, cell)
			}
		}

		if col.Note == nil {
			continue
		}
		text, ok := col.Note(host, svc)
		if !ok {
			continue
		}
		if err := w.file.AddComment(ResultsSheet, excelize.Comment{
			Author: w.opts.Author,
			Cell:   cell,
			Text:   text,
			Width:  w.opts.CommentWidth,
			Height: noteHeight(text),
		}); err != nil {
			return w.fail("add comment", err, ResultsSheet, cell)
		}
		metrics.GetGlobalMetrics().IncrementNotesWritten()
	}
	return nil
}

func (w *Writer) fail(operation string, err error, sheet, cell string) error {
	metrics.GetGlobalMetrics().IncrementWriteErrors(operation)
	return errors.ErrWriteFailed(operation, err).AtCell(sheet, cell)
}
