package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-nir/nir/table"
)

func printTable(w io.Writer, t *table.Table) error {
	names := t.Names()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, strings.Join(names, "\t")); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rule := make([]string, len(names))
	for i, n := range names {
		rule[i] = strings.Repeat("-", len(n))
	}
	if _, err := fmt.Fprintln(tw, strings.Join(rule, "\t")); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	cells := make([]string, len(names))
	for _, rec := range t.Records() {
		for i, n := range names {
			cells[i] = ""
			if v, ok := rec.Get(n); ok {
				cells[i] = formatValue(n, v)
			}
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	return tw.Flush()
}

func formatValue(column string, v float64) string {
	if column == table.Wavelength {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.6f", v)
}

func printVector(w io.Writer, grid []float64, vector []float32) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Wavelength\tValue\n----------\t-----\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, v := range vector {
		if _, err := fmt.Fprintf(tw, "%.1f\t%.6f\n", grid[i], v); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
