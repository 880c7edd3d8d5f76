// Command nmapxlsx converts nmap XML scan reports to an xlsx workbook.
package main

import "github.com/anstrom/nmapxlsx/cmd/cli"

// Build information, set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}
