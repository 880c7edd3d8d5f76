package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Ullaakut/nmap/v3"
)

// Report is one parsed nmap run, named after the file it was loaded from.
// It is a read-only view: nothing here mutates the underlying parse tree.
type Report struct {
	// Name is the base name of the input file
	Name string
	// Run is the parser's object model
	Run *nmap.Run

	incomplete bool
}

// New wraps an already parsed run.
func New(name string, run *nmap.Run) *Report {
	return &Report{Name: name, Run: run}
}

// Incomplete reports whether the run was recovered by lenient parsing.
func (r *Report) Incomplete() bool { return r.incomplete }

// CommandLine returns the nmap invocation that produced the run.
func (r *Report) CommandLine() string { return r.Run.Args }

// Version returns the scanner version.
func (r *Report) Version() string { return r.Run.Version }

// ScanType returns the scan technique, e.g. "syn" or "connect".
func (r *Report) ScanType() string { return r.Run.ScanInfo.Type }

// Started returns the scan start time; zero when nmap did not record one.
func (r *Report) Started() time.Time { return time.Time(r.Run.Start) }

// Ended returns the scan end time; zero for interrupted scans without runstats.
func (r *Report) Ended() time.Time { return time.Time(r.Run.Stats.Finished.Time) }

// HostsTotal returns the number of hosts nmap considered.
func (r *Report) HostsTotal() int { return r.Run.Stats.Hosts.Total }

// HostsUp returns the number of hosts found up.
func (r *Report) HostsUp() int { return r.Run.Stats.Hosts.Up }

// HostsDown returns the number of hosts found down.
func (r *Report) HostsDown() int { return r.Run.Stats.Hosts.Down }

// Summary returns nmap's one-line run summary, falling back to a synthesized
// one when the run was interrupted before runstats were written.
func (r *Report) Summary() string {
	if s := r.Run.Stats.Finished.Summary; s != "" {
		return s
	}

	started := r.Run.StartStr
	if started == "" && !r.Started().IsZero() {
		started = r.Started().UTC().Format(time.ANSIC)
	}
	if started == "" {
		return fmt.Sprintf("Nmap scan incomplete; %d hosts recorded", len(r.Run.Hosts))
	}
	return fmt.Sprintf("Nmap scan initiated %s; %d hosts recorded", started, len(r.Run.Hosts))
}

// Hosts returns the run's hosts in document order.
func (r *Report) Hosts() []Host {
	hosts := make([]Host, len(r.Run.Hosts))
	for i := range r.Run.Hosts {
		hosts[i] = Host{h: &r.Run.Hosts[i]}
	}
	return hosts
}

// Host is one scanned endpoint.
type Host struct {
	h *nmap.Host
}

// NewHost wraps a parser host.
func NewHost(h *nmap.Host) Host { return Host{h: h} }

// Hostnames returns the host's names in document order.
func (h Host) Hostnames() []string {
	names := make([]string, 0, len(h.h.Hostnames))
	for _, hn := range h.h.Hostnames {
		names = append(names, hn.Name)
	}
	return names
}

// Address returns the host's IP address. MAC-only hosts yield the MAC.
func (h Host) Address() string {
	for _, addr := range h.h.Addresses {
		if addr.AddrType == "ipv4" || addr.AddrType == "ipv6" {
			return addr.Addr
		}
	}
	if len(h.h.Addresses) > 0 {
		return h.h.Addresses[0].Addr
	}
	return ""
}

// Status returns "up", "down" or "unknown".
func (h Host) Status() string { return h.h.Status.State }

// Services returns the host's ports in document order.
func (h Host) Services() []Service {
	services := make([]Service, len(h.h.Ports))
	for i := range h.h.Ports {
		services[i] = Service{p: &h.h.Ports[i]}
	}
	return services
}

// String renders the host for progress output, e.g. "10.0.0.1 (web01) - up".
func (h Host) String() string {
	if names := h.Hostnames(); len(names) > 0 {
		return fmt.Sprintf("%s (%s) - %s", h.Address(), names[0], h.Status())
	}
	return fmt.Sprintf("%s - %s", h.Address(), h.Status())
}

// Service is one port/protocol entry on a host.
type Service struct {
	p *nmap.Port
}

// NewService wraps a parser port.
func NewService(p *nmap.Port) Service { return Service{p: p} }

// Port returns the port number.
func (s Service) Port() int { return int(s.p.ID) }

// Protocol returns the transport protocol.
func (s Service) Protocol() string { return s.p.Protocol }

// State returns open, closed, filtered and so on.
func (s Service) State() string { return s.p.State.State }

// Reason returns why nmap assigned the state, e.g. "syn-ack".
func (s Service) Reason() string { return s.p.State.Reason }

// Name returns the detected service name.
func (s Service) Name() string { return s.p.Service.Name }

// Tunnel returns the tunnel type, e.g. "ssl".
func (s Service) Tunnel() string { return s.p.Service.Tunnel }

// Details returns the detection-detail mapping. Only attributes nmap emitted
// are present.
func (s Service) Details() map[string]string {
	svc := s.p.Service
	details := make(map[string]string)
	set := func(key, value string) {
		if value != "" {
			details[key] = value
		}
	}

	set("method", svc.Method)
	// nmap writes conf together with method; a bare zero is the attribute being absent.
	if svc.Method != "" || svc.Confidence != 0 {
		details["conf"] = strconv.Itoa(svc.Confidence)
	}
	set("product", svc.Product)
	set("version", svc.Version)
	set("extrainfo", svc.ExtraInfo)
	set("ostype", svc.OSType)
	set("devicetype", svc.DeviceType)
	set("hostname", svc.Hostname)

	return details
}

// Detail returns one detection-detail value, or "" when absent.
func (s Service) Detail(key string) string {
	return s.Details()[key]
}

// Scripts returns the NSE script results attached to the port.
func (s Service) Scripts() []Script {
	scripts := make([]Script, 0, len(s.p.Scripts))
	for _, sc := range s.p.Scripts {
		scripts = append(scripts, Script{
			ID:       sc.ID,
			Output:   sc.Output,
			Elements: structuredOutput(sc.Elements, sc.Tables),
		})
	}
	return scripts
}

// Script is one NSE script result.
type Script struct {
	ID     string
	Output string
	// Elements is the script's structured output. Keyed <elem>/<table>
	// entries are stored under their key, unkeyed ones under their 1-based
	// position.
	Elements map[string]any
}

func structuredOutput(elems []nmap.Element, tables []nmap.Table) map[string]any {
	out := make(map[string]any, len(elems)+len(tables))
	pos := 0
	for _, e := range elems {
		pos++
		out[keyOrPosition(e.Key, pos)] = e.Value
	}
	for _, t := range tables {
		pos++
		out[keyOrPosition(t.Key, pos)] = structuredOutput(t.Elements, t.Tables)
	}
	return out
}

func keyOrPosition(key string, pos int) string {
	if key != "" {
		return key
	}
	return strconv.Itoa(pos)
}
