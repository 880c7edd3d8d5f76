package workbook

import (
	"time"

	"github.com/Ullaakut/nmap/v3"

	"github.com/anstrom/nmapxlsx/internal/report"
)

func webRun() *nmap.Run {
	return &nmap.Run{
		Args:     "nmap -sV --script ssl-cert -oX web.xml 192.168.1.10",
		Version:  "7.94",
		ScanInfo: nmap.ScanInfo{Type: "syn"},
		Start:    nmap.Timestamp(time.Unix(1700000000, 0)),
		Stats: nmap.Stats{
			Finished: nmap.Finished{
				Time:    nmap.Timestamp(time.Unix(1700000060, 0)),
				Summary: "Nmap done; 1 IP address (1 host up) scanned in 60.00 seconds",
			},
			Hosts: nmap.HostStats{Up: 1, Down: 0, Total: 1},
		},
		Hosts: []nmap.Host{
			{
				Addresses: []nmap.Address{{Addr: "192.168.1.10", AddrType: "ipv4"}},
				Hostnames: []nmap.Hostname{{Name: "web01.lan", Type: "PTR"}},
				Status:    nmap.Status{State: "up"},
				Ports: []nmap.Port{
					{
						ID:       22,
						Protocol: "tcp",
						State:    nmap.State{State: "open", Reason: "syn-ack"},
						Service: nmap.Service{
							Name:       "ssh",
							Product:    "OpenSSH",
							Version:    "9.6p1",
							ExtraInfo:  "protocol 2.0",
							Method:     "probed",
							Confidence: 10,
						},
					},
					{
						ID:       80,
						Protocol: "tcp",
						State:    nmap.State{State: "open", Reason: "syn-ack"},
						Service:  nmap.Service{Name: "http"},
						Scripts: []nmap.Script{
							{ID: "ssl-cert", Output: "foo"},
						},
					},
				},
			},
		},
	}
}

func idleRun() *nmap.Run {
	return &nmap.Run{
		Args:     "nmap -sT -oX idle.xml 192.168.1.20",
		Version:  "7.94",
		ScanInfo: nmap.ScanInfo{Type: "connect"},
		Start:    nmap.Timestamp(time.Unix(1700003600, 0)),
		Stats: nmap.Stats{
			Finished: nmap.Finished{Time: nmap.Timestamp(time.Unix(1700003720, 0))},
			Hosts:    nmap.HostStats{Up: 1, Down: 1, Total: 2},
		},
		Hosts: []nmap.Host{
			{
				Addresses: []nmap.Address{{Addr: "192.168.1.20", AddrType: "ipv4"}},
				Status:    nmap.Status{State: "up"},
			},
		},
	}
}

func fixtureReports() []*report.Report {
	return []*report.Report{
		report.New("web.xml", webRun()),
		report.New("idle.xml", idleRun()),
	}
}

func webServices() (report.Host, []report.Service) {
	rep := report.New("web.xml", webRun())
	host := rep.Hosts()[0]
	return host, host.Services()
}
