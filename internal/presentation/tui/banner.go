package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"  _                 _      _ _ ",
	" | |_ ___ _ __   __| |_ __(_) |",
	" | __/ _ \\ '_ \\ / _` | '__| | |",
	" | ||  __/ | | | (_| | |  | | |",
	"  \\__\\___|_| |_|\\__,_|_|  |_|_|",
}

var bannerColors = []string{"#34d399", "#10b981", "#059669", "#047857", "#065f46"}

// PrintBanner writes the tendril banner to w, colored for the terminal
// profile of the current process.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, termenv.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
