package ui

import (
	"fmt"
	"time"
)

// formatClock renders a playback position as m:ss, or h:mm:ss past an hour.
func formatClock(d time.Duration) string {
	secs := max(int(d/time.Second), 0)
	h, m, s := secs/3600, secs/60%60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
