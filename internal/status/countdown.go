package status

import (
	"fmt"
	"time"
)

// FormatCountdown renders d as mm:ss, truncated to whole seconds. Minutes are
// not wrapped into hours, so 90 minutes reads "90:00". Negative values read
// "00:00".
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
