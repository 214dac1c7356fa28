// Command nirprep preprocesses near-infrared scans for model input.
//
// Usage:
//
//	nirprep [--config file] [--log-level level] <command>
//
// Commands:
//
//	process <file>       print the enriched table of one scan
//	batch <files...>     average the model vectors of several scans
//	grid                 print the canonical wavelength grid
//	serve                serve the pipeline over HTTP
//	watch                process scans dropped into a directory
//
// Examples:
//
//	nirprep process scan.csv
//	nirprep process --json --column SNV scan.csv
//	nirprep batch plot-a/*.csv
//	nirprep serve --addr :8080
//	nirprep watch --dir ./incoming --out ./processed
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
