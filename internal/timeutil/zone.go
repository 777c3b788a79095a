package timeutil

import (
	"fmt"
	"time"
)

// LoadLocation resolves an IANA zone name against the tz database. An empty
// name or "Local" is the machine's zone.
func LoadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", name, err)
	}
	return loc, nil
}
