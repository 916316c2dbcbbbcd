package normalize

import "time"

// ShanghaiLocation is the fixed display timezone for local-facing output
// (report dates, publish-history timestamps).
var ShanghaiLocation = time.FixedZone("Asia/Shanghai", 8*60*60)

// WindowHours is the "past 24 hours" window extended to 28 hours to absorb
// clock skew and late-arriving items, per spec.md §4.2.
const WindowHours = 28

// ToUTC converts t to UTC. Naive timestamps (parsed without an explicit
// zone) are assumed to already be UTC, so callers parsing date strings
// should parse them as UTC before calling this rather than letting them
// default to the process's local zone.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// InShanghai converts t to the Asia/Shanghai display timezone.
func InShanghai(t time.Time) time.Time {
	return t.In(ShanghaiLocation)
}

// WithinWindow reports whether t falls within WindowHours of now. A nil
// pub_time passes the filter (spec.md §4.11 step 2: "items lacking pub_time
// are kept").
func WithinWindow(t *time.Time, now time.Time) bool {
	if t == nil {
		return true
	}
	cutoff := now.Add(-WindowHours * time.Hour)
	return !t.Before(cutoff)
}
