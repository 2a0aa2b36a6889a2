package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	` __     ___ _             ____                `,
	` \ \   / (_) |__   ___   / ___|__ _ _ __ ___  `,
	`  \ \ / /| | '_ \ / _ \ | |   / _' | '_ ' _ \ `,
	`   \ V / | | |_) |  __/ | |__| (_| | | | | | |`,
	`    \_/  |_|_.__/ \___|  \____\__,_|_| |_| |_|`,
}

// Orange fading to red, the caption colors of a developed print.
var bannerColors = []string{"#fbbf24", "#fb923c", "#f97316", "#ea580c", "#dc2626"}

// PrintBanner writes the VIBE CAM banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(p.Color(bannerColors[i])))
	}
	if version = strings.TrimSpace(version); version != "" {
		fmt.Fprintln(w, out.String("  v"+version).Faint())
	}
	fmt.Fprintln(w)
}
