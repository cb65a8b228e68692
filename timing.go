package main

import (
	"fmt"
	"time"
)

// formatElapsed renders durations under a second as whole milliseconds ("850ms")
// and anything longer as seconds with two decimals ("1.50s").
func formatElapsed(elapsed time.Duration) string {
	if elapsed < time.Second {
		return fmt.Sprintf("%dms", elapsed.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", elapsed.Seconds())
}
