package board

import (
	"fmt"
	"strings"
)

// Render formats a board for terminal output. maxEntries caps the listed
// rows, 0 uses the default of 10.
func Render(b *Board, maxEntries int) string {
	if b == nil || len(b.Departures) == 0 {
		return "No departures found."
	}
	if maxEntries <= 0 {
		maxEntries = 10
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Departure Board - %s\n", b.StationName)
	fmt.Fprintf(&sb, "Last updated: %s\n", b.UpdatedAt.Format("15:04:05"))
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	fmt.Fprintf(&sb, "%8s %6s %12s %-25s %8s %s\n", "Time", "Delay", "Line", "Destination", "Platform", "Status")
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	shown := b.Departures
	if len(shown) > maxEntries {
		shown = shown[:maxEntries]
	}
	for _, dep := range shown {
		timeStr := "??:??"
		if !dep.Planned.IsZero() {
			timeStr = dep.Planned.Format("15:04")
		}
		var delayStr string
		switch {
		case dep.Status == StatusCancelled:
			delayStr = "CANC"
		case dep.DelayMinutes > 0:
			delayStr = fmt.Sprintf("+%d'", dep.DelayMinutes)
		case dep.DelayMinutes == 0:
			delayStr = "On time"
		}
		platform := dep.Platform
		if platform == "" {
			platform = dep.PlannedPlatform
		}
		if platform == "" {
			platform = "?"
		}
		if dep.PlatformChanged {
			platform += "*"
		}
		fmt.Fprintf(&sb, "%8s %6s %12s %-25s %8s %s\n",
			timeStr, delayStr, dep.Line, truncate(dep.Destination, 25), platform, dep.Status)
	}
	if len(b.Departures) > maxEntries {
		fmt.Fprintf(&sb, "... and %d more departures\n", len(b.Departures)-maxEntries)
	}

	sb.WriteString(strings.Repeat("-", 80) + "\n")
	fmt.Fprintf(&sb, "Summary: %d on time, %d delayed, %d cancelled\n",
		len(b.ByStatus(StatusOnTime)), len(b.ByStatus(StatusDelayed)), len(b.ByStatus(StatusCancelled)))
	sb.WriteString("* Platform changed")
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
