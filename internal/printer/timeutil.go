package printer

import (
	"fmt"
	"time"
)

// timeAgoUnits are checked in order; the first one whose ceiling the
// elapsed time is under names the unit rendered.
var timeAgoUnits = []struct {
	ceiling time.Duration
	size    time.Duration
	name    string
}{
	{time.Minute, time.Second, "second"},
	{time.Hour, time.Minute, "minute"},
	{24 * time.Hour, time.Hour, "hour"},
}

// TimeAgo renders how long ago t was as a UTC-anchored human string,
// e.g. "5 seconds ago (UTC)" or "3 hours ago (UTC)".
func TimeAgo(t time.Time) string {
	elapsed := time.Now().UTC().Sub(t.UTC())
	if elapsed < 0 {
		return "in the future (UTC)"
	}

	for _, u := range timeAgoUnits {
		if elapsed < u.ceiling {
			return pluralAgo(int(elapsed/u.size), u.name)
		}
	}

	return pluralAgo(int(elapsed/(24*time.Hour)), "day")
}

func pluralAgo(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago (UTC)", unit)
	}
	return fmt.Sprintf("%d %ss ago (UTC)", n, unit)
}

// FormatTimestamp renders t as "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}
