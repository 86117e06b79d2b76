package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"jobcrawler/internal/models"
)

type keywordRule[T any] struct {
	value T
	terms []string
}

// firstRule returns the value of the first rule with a term present in text.
func firstRule[T any](text string, rules []keywordRule[T], def T) T {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, t := range r.terms {
			if CountTerm(lower, t) > 0 {
				return r.value
			}
		}
	}
	return def
}

var (
	employmentRules = []keywordRule[models.EmploymentStatus]{
		{models.Internship, []string{"internship", "intern", "internship program", "industrial training"}},
		{models.PartTime, []string{"part time", "part-time", "parttime"}},
		{models.Contract, []string{"contractual", "fixed term", "fixed-term", "temporary", "consultancy", "contract position", "contract role", "contract basis", "contract job", "short term contract", "short-term contract"}},
		{models.FullTime, []string{"full time", "full-time", "fulltime", "permanent"}},
		{models.Contract, []string{"contract", "consultant"}},
	}
	employmentLabelRe = regexp.MustCompile(`(?im)^[ \t]*(?:employment|job|contract|position|engagement)[ \t]+type[ \t]*:?[ \t]*(.+)$`)
)

// EmploymentStatus defaults to Full Time. An explicit "Job type:" style line
// wins over terms found elsewhere in the text.
func EmploymentStatus(text string) models.EmploymentStatus {
	for _, m := range employmentLabelRe.FindAllStringSubmatch(text, -1) {
		if st := firstRule(m[1], employmentRules, ""); st != "" {
			return st
		}
	}
	return firstRule(text, employmentRules, models.FullTime)
}

var workplaceRules = []keywordRule[models.Workplace]{
	{models.Hybrid, []string{"hybrid"}},
	{models.Remote, []string{"remote", "remotely", "work from home", "work-from-home", "wfh", "telecommute"}},
}

// Workplace defaults to Onsite.
func Workplace(text string) models.Workplace {
	return firstRule(text, workplaceRules, models.Onsite)
}

var genderRules = []keywordRule[models.Gender]{
	{models.Female, []string{"female only", "females only", "only female", "only females", "ladies only", "women only", "female candidates only", "female applicants only"}},
	{models.Male, []string{"male only", "males only", "only male", "only males", "men only", "male candidates only", "male applicants only"}},
}

// Gender defaults to Both.
func Gender(text string) models.Gender {
	return firstRule(text, genderRules, models.Both)
}

type qualificationLevel struct {
	label string
	terms []string
	// pattern catches spellings too loose to match as plain terms.
	pattern *regexp.Regexp
}

// "a level" alone is ordinary English, so the spaced school-level forms only
// count next to a qualification word.
const levelQualifier = `(?:certificates?|qualifications?|pass(?:es)?|results?|education|standard|leavers?|holders?|graduates?|school)`

// qualificationLevels are ordered from lowest to highest.
var qualificationLevels = []qualificationLevel{
	{"O Level", []string{"uce", "o-level", "o'level", "o' level", "o-levels", "ordinary level"},
		regexp.MustCompile(`\bo\s+levels?\s+(?:and|&)?\s*(?:a\s+levels?\s+)?` + levelQualifier + `\b`)},
	{"A Level", []string{"uace", "a-level", "a'level", "a' level", "a-levels", "advanced level"},
		regexp.MustCompile(`\ba\s+levels?\s+` + levelQualifier + `\b`)},
	{"Certificate", []string{"certificate in", "certificate holder", "national certificate"}, nil},
	{"Diploma", []string{"diploma"}, nil},
	{"Bachelor's Degree", []string{"bachelor", "bachelors", "bachelor's", "undergraduate degree", "university degree", "first degree", "bsc", "b.sc", "b.com", "bba", "llb"}, nil},
	{"Master's Degree", []string{"master's", "masters", "master of", "msc", "m.sc", "mba", "postgraduate"}, nil},
	{"PhD", []string{"phd", "ph.d", "doctorate", "doctoral"}, nil},
}

// QualificationNotSpecified is used when no known level is mentioned.
const QualificationNotSpecified = "Not Specified"

// MinimumQualification returns the lowest academic level mentioned in text.
func MinimumQualification(text string) string {
	lower := strings.ToLower(text)
	for _, lvl := range qualificationLevels {
		if lvl.pattern != nil && lvl.pattern.MatchString(lower) {
			return lvl.label
		}
		for _, t := range lvl.terms {
			if CountTerm(lower, t) > 0 {
				return lvl.label
			}
		}
	}
	return QualificationNotSpecified
}

var (
	ageRangeRe = regexp.MustCompile(`(?i)\bage[ds]?\s*(?:limit|bracket|range|group)?\s*(?:of|:|between|from|-)?\s*(\d{2})\s*(?:-|–|to|and)\s*(\d{2})`)
	ageMaxRe   = regexp.MustCompile(`(?i)(?:not\s+(?:be\s+)?(?:more|older)\s+than|below|under|maximum\s+age\s+(?:of|is)?|not\s+exceed(?:ing)?)\s*(\d{2})\s*years`)
	ageMinRe   = regexp.MustCompile(`(?i)(?:above|at\s+least|minimum\s+age\s+(?:of|is)?|over|not\s+(?:be\s+)?(?:less|younger)\s+than)\s*(\d{2})\s*years`)
)

// Ages extracts optional minimum and maximum applicant ages.
func Ages(text string) (minAge, maxAge *int) {
	if m := ageRangeRe.FindStringSubmatch(text); m != nil {
		a, aok := plausibleAge(m[1])
		b, bok := plausibleAge(m[2])
		if aok && bok {
			lo, hi := min(a, b), max(a, b)
			return &lo, &hi
		}
	}
	if m := ageMinRe.FindStringSubmatch(text); m != nil {
		if v, ok := plausibleAge(m[1]); ok {
			minAge = &v
		}
	}
	if m := ageMaxRe.FindStringSubmatch(text); m != nil {
		if v, ok := plausibleAge(m[1]); ok {
			maxAge = &v
		}
	}
	return minAge, maxAge
}

func plausibleAge(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 14 || v > 80 {
		return 0, false
	}
	return v, true
}

var (
	vacancyLabelRe = regexp.MustCompile(`(?i)(?:no\.?|number)\s*of\s*(?:vacancies|positions|posts|openings|slots)\s*:?\s*(\d{1,3}|[a-z]+)`)
	vacancyCountRe = regexp.MustCompile(`(?i)\b(\d{1,3}|one|two|three|four|five|six|seven|eight|nine|ten|twenty)\s*(?:\(\d{1,3}\)\s*)?(?:vacancies|positions|posts|openings|slots)\b`)
	numberWords    = map[string]int{
		"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
		"seven": 7, "eight": 8, "nine": 9, "ten": 10, "twenty": 20,
	}
)

// Vacancies defaults to 1.
func Vacancies(text string) int {
	for _, re := range []*regexp.Regexp{vacancyLabelRe, vacancyCountRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if n, ok := countValue(m[1]); ok {
			return n
		}
	}
	return 1
}

func countValue(s string) (int, bool) {
	s = strings.ToLower(s)
	if n, ok := numberWords[s]; ok {
		return n, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 500 {
		return 0, false
	}
	return n, true
}

var videoCVTerms = []string{"video cv", "video resume", "video résumé", "video application", "video introduction", "short video"}

// RequiresVideoCV defaults to false.
func RequiresVideoCV(text string) bool {
	return ContainsAny(text, videoCVTerms)
}

var experienceRe = regexp.MustCompile(`(?i)(?:(?:minimum|at\s+least)\s+(?:of\s+)?)?(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten)\s*(?:\(\d{1,2}\)\s*)?\+?\s*(?:(?:-|–|to)\s*(\d{1,2})\s*)?years?\s+(?:of\s+)?(?:[a-z]+\s+){0,2}(?:work(?:ing)?\s+)?experience`)

// Experience returns a short "N years" or "N-M years" hint, or "".
func Experience(text string) string {
	m := experienceRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	lo, ok := countValue(m[1])
	if !ok || lo > 40 {
		return ""
	}
	if m[2] != "" {
		if hi, err := strconv.Atoi(m[2]); err == nil && hi > lo && hi <= 40 {
			return fmt.Sprintf("%d-%d years", lo, hi)
		}
	}
	if lo == 1 {
		return "1 year"
	}
	return fmt.Sprintf("%d years", lo)
}
