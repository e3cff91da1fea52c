package extract

import (
	"regexp"
	"strconv"
	"strings"
)

const milesToKM = 1.60934

// Bounds holds numeric constraints recovered deterministically from the
// message text. Deterministic parses take precedence over model-proposed
// numerics: a regex cannot hallucinate.
type Bounds struct {
	DistanceMinKM *float64
	DistanceMaxKM *float64
	TimeMinH      *float64
	TimeMaxH      *float64
	GradeMin      *int
	GradeMax      *int
}

type boundKind int

const (
	kindBetween boundKind = iota
	kindRange
	kindMin
	kindMax
)

type numPattern struct {
	re   *regexp.Regexp
	kind boundKind
}

const distUnit = `(km|kilometers|kilometres|kms|mi|mile|miles)`
const timeUnit = `(h|hr|hrs|hour|hours)`

// Ordered like the original filter tables: between, range, min, max —
// first match per dimension wins.
var distPatterns = []numPattern{
	{regexp.MustCompile(`between\s+(\d+(?:\.\d+)?)\s*` + distUnit + `?\s+and\s+(\d+(?:\.\d+)?)\s*` + distUnit), kindBetween},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)\s*` + distUnit), kindRange},
	{regexp.MustCompile(`(?:at\s+least|>=|more\s+than|over|longer\s+than)\s+(\d+(?:\.\d+)?)\s*` + distUnit), kindMin},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*` + distUnit + `\s*\+`), kindMin},
	{regexp.MustCompile(`(?:at\s+most|<=|less\s+than|under|no\s+more\s+than|shorter\s+than|up\s+to)\s+(\d+(?:\.\d+)?)\s*` + distUnit), kindMax},
}

var timePatterns = []numPattern{
	{regexp.MustCompile(`between\s+(\d+(?:\.\d+)?)\s*` + timeUnit + `?\s+and\s+(\d+(?:\.\d+)?)\s*` + timeUnit), kindBetween},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)\s*` + timeUnit), kindRange},
	{regexp.MustCompile(`(?:at\s+least|>=|more\s+than|over|longer\s+than)\s+(\d+(?:\.\d+)?)\s*` + timeUnit), kindMin},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*` + timeUnit + `\s*\+`), kindMin},
	{regexp.MustCompile(`(?:at\s+most|<=|less\s+than|under|no\s+more\s+than|shorter\s+than|up\s+to)\s+(\d+(?:\.\d+)?)\s*` + timeUnit), kindMax},
}

var (
	gradeMinRe = regexp.MustCompile(`(?:at\s+least|minimum\s+of|minimum)\s+grade\s+(\d)`)
	gradeMaxRe = regexp.MustCompile(`(?:at\s+most|under|up\s+to|no\s+harder\s+than|max(?:imum)?(?:\s+of)?)\s+grade\s+(\d)`)
)

// gradeWords maps difficulty words to walkhighlands grades; used to
// normalize model-proposed grade strings, same table as the tagger.
var gradeWords = map[string]int{
	"easy":     3,
	"moderate": 4,
	"hard":     5,
	"serious":  5,
}

// GradeFromWord converts a difficulty word or digit string to a grade.
func GradeFromWord(s string) (int, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(v); err == nil {
		if n < 3 {
			n = 3
		}
		return n, true
	}
	n, ok := gradeWords[v]
	return n, ok
}

// ParseBounds recognizes bounded natural-language numeric expressions:
// "under 6 hours", "between 10 and 15 km", "12km+", "at least grade 2".
// Miles convert to kilometers.
func ParseBounds(message string) Bounds {
	s := strings.ToLower(message)
	var b Bounds

	lo, hi := matchDimension(s, distPatterns, toKM)
	b.DistanceMinKM, b.DistanceMaxKM = lo, hi

	lo, hi = matchDimension(s, timePatterns, toHours)
	b.TimeMinH, b.TimeMaxH = lo, hi

	if m := gradeMinRe.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			b.GradeMin = &n
		}
	}
	if m := gradeMaxRe.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			b.GradeMax = &n
		}
	}

	return b
}

// matchDimension tries each pattern in order, converting units with conv,
// and returns (min, max) for the first pattern that matches.
func matchDimension(s string, patterns []numPattern, conv func(float64, string) float64) (*float64, *float64) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		switch p.kind {
		case kindBetween:
			// Unit after the first number is optional ("between 10 and
			// 15 km"); the second unit applies to both when absent.
			u1, u2 := m[2], m[4]
			if u1 == "" {
				u1 = u2
			}
			v1 := conv(atof(m[1]), u1)
			v2 := conv(atof(m[3]), u2)
			return ptr(minF(v1, v2)), ptr(maxF(v1, v2))
		case kindRange:
			v1 := conv(atof(m[1]), m[3])
			v2 := conv(atof(m[2]), m[3])
			return ptr(minF(v1, v2)), ptr(maxF(v1, v2))
		case kindMin:
			return ptr(conv(atof(m[1]), m[2])), nil
		case kindMax:
			return nil, ptr(conv(atof(m[1]), m[2]))
		}
	}
	return nil, nil
}

func toKM(v float64, unit string) float64 {
	if strings.HasPrefix(unit, "km") || strings.Contains(unit, "kilomet") {
		return v
	}
	return v * milesToKM
}

func toHours(v float64, _ string) float64 { return v }

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func ptr(f float64) *float64 { return &f }

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
