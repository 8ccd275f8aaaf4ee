package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the sitewizard banner to w, colored when the terminal
// supports it.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"      _ _                  _                  _ ", "#22d3ee"},
		{"  ___(_) |_ _____ __ _(_)______ _ _ _ __| |", "#38bdf8"},
		{" (_-< |  _/ -_) V  V / |_ / _` | '_/ _` |", "#818cf8"},
		{" /__/_|\\__\\___|\\_/\\_/|_/__\\__,_|_| \\__,_|", "#c084fc"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  site wizard "+version).Faint())
	fmt.Fprintln(w)
}
