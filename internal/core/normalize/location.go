package normalize

import (
	"regexp"
	"strings"

	"jobcrawler/internal/models"
)

var locationLabelRe = regexp.MustCompile(`(?i)(?:duty\s+station|job\s+location|work\s+station|place\s+of\s+work|location)\s*:\s*([^\n|;•]{2,80})`)

// LocationFromText returns the value after an explicit "Duty Station:" or
// "Location:" label, or "" when no label is present.
func LocationFromText(text string) string {
	m := locationLabelRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return CleanText(m[1])
}

// MatchDistrict resolves a location string against the known districts,
// case-insensitively. The longest matching name wins so that "Kampala
// Central" is not shadowed by a shorter district. Unknown locations resolve
// to fallbackID.
func MatchDistrict(location string, districts []models.District, fallbackID int64) int64 {
	loc := strings.ToLower(CleanText(location))
	if loc == "" {
		return fallbackID
	}
	bestID, bestLen := fallbackID, 0
	for _, d := range districts {
		name := strings.ToLower(d.Name)
		if len(name) <= bestLen {
			continue
		}
		if CountTerm(loc, name) > 0 {
			bestID, bestLen = d.ID, len(name)
		}
	}
	return bestID
}
