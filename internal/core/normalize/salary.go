package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// Salary is the parsed salary range. Min and Max stay nil unless a pattern matched.
type Salary struct {
	Min  *float64
	Max  *float64
	Show bool
}

const (
	amount     = `(\d{1,3}(?:[,\s]\d{3}\b)+(?:\.\d+)?|\d+(?:\.\d+)?)`
	bareAmount = `(\d{1,3}(?:,\d{3})+|\d{4,})`
	localCur   = `\b(?:ugx|ushs?\.?|shs?\.?|uganda shillings)`
	rangeSep   = `\s*(?:-|–|—|to)\s*`
)

// salaryPatterns are tried in order; the first match wins.
var salaryPatterns = []*regexp.Regexp{
	// USh 300,000 - 500,000 / UGX 1,000,000 to UGX 2,000,000
	regexp.MustCompile(`(?i)` + localCur + `\s*` + amount + rangeSep + `(?:` + localCur + `\s*)?` + amount),
	// 300,000 - 500,000 UGX
	regexp.MustCompile(`(?i)` + amount + rangeSep + amount + `\s*(?:` + localCur + `|/=)`),
	// UGX 800,000
	regexp.MustCompile(`(?i)` + localCur + `\s*` + amount),
	// 800,000 UGX / 800,000/=
	regexp.MustCompile(`(?i)` + amount + `\s*(?:` + localCur + `|/=)`),
	// $1,200 - $1,500
	regexp.MustCompile(`(?i)\$\s*` + amount + rangeSep + `\$?\s*` + amount),
	// $1,200 / 1,200 USD
	regexp.MustCompile(`(?i)(?:\$|usd)\s*` + amount),
	regexp.MustCompile(`(?i)` + amount + `\s*usd`),
	// 300,000 - 500,000
	bareRangeRe,
}

var bareRangeRe = regexp.MustCompile(bareAmount + rangeSep + bareAmount)

// ParseSalary scans text with the ordered salary patterns. A single amount
// sets both bounds to the same value. Two amounts are assigned as min/max
// regardless of their order in the text.
func ParseSalary(text string) Salary {
	for _, re := range salaryPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			var nums []float64
			for _, g := range m[1:] {
				if v, ok := parseAmount(g); ok {
					nums = append(nums, v)
				}
			}
			if len(nums) == 0 {
				continue
			}
			lo, hi := nums[0], nums[0]
			if len(nums) > 1 {
				lo, hi = min(nums[0], nums[1]), max(nums[0], nums[1])
			}
			if hi <= 0 {
				continue
			}
			// "2025 - 2026" next to a salary word is a period, not pay.
			if re == bareRangeRe && isYear(lo) && isYear(hi) {
				continue
			}
			return Salary{Min: &lo, Max: &hi, Show: true}
		}
	}
	return Salary{}
}

func isYear(v float64) bool {
	return v == float64(int(v)) && v >= 1900 && v <= 2100
}

func parseAmount(s string) (float64, bool) {
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
