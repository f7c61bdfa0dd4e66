package model

import "strings"

// DefaultKey is the reserved city key used when no city is specified and as
// the backward-compatibility fallback bundle.
const DefaultKey = "default"

// cityAliases rewrites colloquial or historical city names to the canonical
// name the training pipeline uses. Applied after normalization.
var cityAliases = map[string]string{
	"bangalore": "bengaluru",
	"bombay":    "mumbai",
	"madras":    "chennai",
}

// NormalizeCityKey maps a free-text city name to the canonical lookup key:
// trimmed, lower-cased, internal whitespace collapsed to single underscores,
// known aliases rewritten. An empty or blank input maps to DefaultKey.
// Every input maps to some key; there is no failure mode.
func NormalizeCityKey(raw string) string {
	key := strings.Join(strings.Fields(strings.ToLower(raw)), "_")
	if key == "" {
		return DefaultKey
	}
	if canonical, ok := cityAliases[key]; ok {
		return canonical
	}
	return key
}
