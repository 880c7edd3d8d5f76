package workbook

import (
	"strconv"
	"time"

	"github.com/anstrom/nmapxlsx/internal/report"
)

// Style selects the cell style applied to a column's data cells.
type Style int

const (
	StylePlain Style = iota
	StyleHeader
	StylePercent
)

const (
	timestampLayout = "2006-01-02 15:04:05 (UTC)"

	// flaggedPlaceholder pre-fills the review column until someone triages the row.
	flaggedPlaceholder = "N/A"
)

// SummaryColumn maps a report to one Summary cell.
type SummaryColumn struct {
	Name  string
	Width float64
	Value func(rep *report.Report) any
}

// ResultColumn maps a host and service pair to one Results cell. Note, when
// set, may attach a comment to the cell.
type ResultColumn struct {
	Name  string
	Width float64
	Style Style
	Value func(host report.Host, svc report.Service) any
	Note  func(host report.Host, svc report.Service) (string, bool)
}

// SummaryColumns is the Summary sheet layout in column order.
var SummaryColumns = []SummaryColumn{
	{Name: "Scan", Width: 24, Value: func(r *report.Report) any { return r.Name }},
	{Name: "Command", Width: 48, Value: func(r *report.Report) any { return r.CommandLine() }},
	{Name: "Version", Value: func(r *report.Report) any { return r.Version() }},
	{Name: "Scan Type", Value: func(r *report.Report) any { return r.ScanType() }},
	{Name: "Started", Width: 26, Value: func(r *report.Report) any { return formatTimestamp(r.Started()) }},
	{Name: "Completed", Width: 26, Value: func(r *report.Report) any { return formatTimestamp(r.Ended()) }},
	{Name: "Hosts Total", Value: func(r *report.Report) any { return r.HostsTotal() }},
	{Name: "Hosts Up", Value: func(r *report.Report) any { return r.HostsUp() }},
	{Name: "Hosts Down", Value: func(r *report.Report) any { return r.HostsDown() }},
}

// ResultColumns is the Results sheet layout in column order. The last two
// columns are left for the reviewer.
var ResultColumns = []ResultColumn{
	{Name: "Host", Width: 28, Value: func(h report.Host, _ report.Service) any { return head(h.Hostnames()) }},
	{Name: "IP", Width: 16, Value: func(h report.Host, _ report.Service) any { return h.Address() }},
	{Name: "Port", Value: func(_ report.Host, s report.Service) any { return s.Port() }},
	{Name: "Protocol", Value: func(_ report.Host, s report.Service) any { return s.Protocol() }},
	{Name: "Status", Value: func(_ report.Host, s report.Service) any { return s.State() }},
	{
		Name:  "Service",
		Width: 16,
		Value: func(_ report.Host, s report.Service) any { return s.Name() },
		Note:  scriptNote,
	},
	{Name: "Tunnel", Value: func(_ report.Host, s report.Service) any { return s.Tunnel() }},
	{Name: "Method", Value: func(_ report.Host, s report.Service) any { return s.Detail("method") }},
	{Name: "Confidence", Style: StylePercent, Value: func(_ report.Host, s report.Service) any { return confidence(s) }},
	{Name: "Reason", Value: func(_ report.Host, s report.Service) any { return s.Reason() }},
	{Name: "Product", Width: 22, Value: func(_ report.Host, s report.Service) any { return s.Detail("product") }},
	{Name: "Version", Width: 14, Value: func(_ report.Host, s report.Service) any { return s.Detail("version") }},
	{Name: "Extra", Width: 32, Value: func(_ report.Host, s report.Service) any { return s.Detail("extrainfo") }},
	{Name: "Flagged", Value: func(report.Host, report.Service) any { return flaggedPlaceholder }},
	{Name: "Notes", Width: 40, Value: func(report.Host, report.Service) any { return "" }},
}

// formatTimestamp renders t in UTC; the zero time renders as "".
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// confidence converts nmap's 0-10 conf value to a fraction. Missing or
// non-numeric values count as 0.
func confidence(s report.Service) float64 {
	conf, err := strconv.ParseFloat(s.Detail("conf"), 64)
	if err != nil {
		return 0
	}
	return conf / 10
}

func head(xs []string) string {
	if len(xs) > 0 {
		return xs[0]
	}
	return ""
}
