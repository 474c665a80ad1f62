package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the homecare banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	// Teal to green, matching the clinic palette
	lines := []struct {
		text  string
		color string
	}{
		{" _                                            ", "#2dd4bf"},
		{"| |__   ___  _ __ ___   ___  ___ __ _ _ __ ___ ", "#34d399"},
		{"| '_ \\ / _ \\| '_ ` _ \\ / _ \\/ __/ _` | '__/ _ \\", "#4ade80"},
		{"| | | | (_) | | | | | |  __/ (_| (_| | | |  __/", "#a3e635"},
		{"|_| |_|\\___/|_| |_| |_|\\___|\\___\\__,_|_|  \\___|", "#facc15"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, termenv.String("  home physiotherapy  v"+version).Faint())
	}
	fmt.Fprintln(w)
}
