package deploy

import (
	"regexp"

	"github.com/pawanpaudel93/ao-deploy/internal/network"
)

// cronPattern accepts an interval like "5-minutes": an integer, a dash, and
// a pluralized unit word.
var cronPattern = regexp.MustCompile(`^\d+\-(second|minute|hour|day|month|year|block)s$`)

// IsCronPattern reports whether s is a valid cron interval string.
func IsCronPattern(s string) bool {
	return cronPattern.MatchString(s)
}

// cronTags returns the spawn tags that schedule the given interval.
func cronTags(interval string) []network.Tag {
	return []network.Tag{
		{Name: "Cron-Interval", Value: interval},
		{Name: "Cron-Tag-Action", Value: "Cron"},
	}
}
