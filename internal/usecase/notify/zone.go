package notify

import (
	"fmt"
	"time"
)

// LoadZone resolves name, falling back to a fixed offset when zone data is
// missing. The fallback has no DST rules. ok is false when the fallback was used.
func LoadZone(name string, fallback time.Duration) (loc *time.Location, ok bool) {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc, true
		}
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", int(fallback.Hours())), int(fallback.Seconds())), false
}
