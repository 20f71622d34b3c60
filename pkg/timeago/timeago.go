// Package timeago renders post timestamps relative to the current time.
package timeago

import (
	"fmt"
	"time"
)

// Format describes t relative to now: "Just now", "42s ago", "15m ago",
// "10h ago", "Yesterday", "3d ago", and the month and day beyond a week.
func Format(t, now time.Time) string {
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}

	seconds := int64(d / time.Second)
	minutes := int64(d / time.Minute)
	hours := int64(d / time.Hour)
	days := hours / 24

	switch {
	case seconds < 5:
		return "Just now"
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.In(now.Location()).Format("Jan 02")
	}
}

