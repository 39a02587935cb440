package util

import "time"

// FromUnix converts seconds or milliseconds since epoch to UTC time.
// Values above 1e11 are treated as milliseconds.
func FromUnix(ts int64) time.Time {
	if ts > 1e11 {
		return time.UnixMilli(ts).UTC()
	}
	return time.Unix(ts, 0).UTC()
}

// BucketStart truncates t to the start of its bucket of size d, anchored at the unix epoch in UTC.
func BucketStart(t time.Time, d time.Duration) time.Time {
	if d <= 0 {
		return t.UTC()
	}
	return t.UTC().Truncate(d)
}
