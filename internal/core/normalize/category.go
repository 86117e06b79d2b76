package normalize

import "strings"

// CategoryRule describes one known job category and the terms that point at it.
type CategoryRule struct {
	ID       int64
	Name     string
	Keywords []string
	Synonyms []string
}

// MatchCategoryLabel resolves an explicit category label (taken from a
// taxonomy link) by exact name, then partial name, then synonym.
func MatchCategoryLabel(label string, rules []CategoryRule) (int64, bool) {
	l := strings.ToLower(CleanText(label))
	if l == "" {
		return 0, false
	}
	for _, r := range rules {
		if strings.ToLower(r.Name) == l {
			return r.ID, true
		}
	}
	for _, r := range rules {
		name := strings.ToLower(r.Name)
		if CountTerm(name, l) > 0 || CountTerm(l, name) > 0 {
			return r.ID, true
		}
	}
	for _, r := range rules {
		for _, syn := range r.Synonyms {
			if CountTerm(l, strings.ToLower(syn)) > 0 {
				return r.ID, true
			}
		}
	}
	return 0, false
}

// ScoreCategories counts keyword hits per rule over text. The returned slice
// is parallel to rules.
func ScoreCategories(text string, rules []CategoryRule) []int {
	lower := strings.ToLower(text)
	scores := make([]int, len(rules))
	for i, r := range rules {
		for _, kw := range r.Keywords {
			scores[i] += CountTerm(lower, strings.ToLower(kw))
		}
	}
	return scores
}

// ClassifyByKeywords picks the rule with the highest non-zero keyword tally.
// Ties go to the rule declared first.
func ClassifyByKeywords(text string, rules []CategoryRule) (CategoryRule, bool) {
	scores := ScoreCategories(text, rules)
	best := -1
	for i, s := range scores {
		if s == 0 {
			continue
		}
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	if best < 0 {
		return CategoryRule{}, false
	}
	return rules[best], true
}
