// internal/matching/calculators.go
package matching

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"school-match-workers/internal/models"
)

// Calculator scores one dimension of a (school, program) pair in [0,100].
// Calculators never fail: missing data yields the dimension's neutral score.
type Calculator func(school models.School, program models.Program, criteria models.UserCriteria) float64

const (
	neutralScore      = 50.0
	belowBudgetScore  = 60.0
	inBudgetSpread    = 30.0
	majorMatchBonus   = 50.0
	degreeMatchBonus  = 30.0
	countryMatchBonus = 30.0
	cityMatchBonus    = 20.0
	languageBonus     = 20.0
)

var degreeSynonyms = map[models.DegreeLevel][]string{
	models.DegreeBachelor: {"本科", "bachelor", "undergraduate"},
	models.DegreeMaster:   {"硕士", "master", "msc", "ma", "mba"},
	models.DegreePhD:      {"博士", "phd", "doctorate"},
	models.DegreeDiploma:  {"文凭", "diploma", "certificate"},
}

// RankingScore applies the policy after the optional hard ranking band.
func (p RankingPolicy) RankingScore(school models.School, _ models.Program, criteria models.UserCriteria) float64 {
	rank := schoolRank(school)
	if criteria.Preferences != nil && criteria.Preferences.Ranking != nil {
		lo, hi := criteria.Preferences.Ranking.Min, criteria.Preferences.Ranking.Max
		if lo <= 0 {
			lo = 1
		}
		if hi <= 0 {
			hi = models.DefaultRankLimit
		}
		if rank < lo || rank > hi {
			return 0
		}
	}
	return p.Score(rank)
}

// RankingScore uses DefaultRankingPolicy.
func RankingScore(school models.School, program models.Program, criteria models.UserCriteria) float64 {
	return DefaultRankingPolicy().RankingScore(school, program, criteria)
}

var (
	nonNumeric     = regexp.MustCompile(`[^\d.]`)
	leadingNumeric = regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)`)
)

// ParseTuition extracts a numeric fee from free text like "£28,500/年".
func ParseTuition(fee string) (float64, bool) {
	m := leadingNumeric.FindString(nonNumeric.ReplaceAllString(fee, ""))
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func CostScore(_ models.School, program models.Program, criteria models.UserCriteria) float64 {
	tuition, ok := ParseTuition(program.TuitionFee)
	if !ok {
		return neutralScore
	}

	budgetMin, budgetMax := 0.0, math.Inf(1)
	if criteria.BudgetMin != nil {
		budgetMin = *criteria.BudgetMin
	}
	if criteria.BudgetMax != nil {
		budgetMax = *criteria.BudgetMax
	}

	switch {
	case tuition >= budgetMin && tuition <= budgetMax:
		span := budgetMax - budgetMin
		if span == 0 {
			return 100
		}
		return 100 - (tuition-budgetMin)/span*inBudgetSpread
	case tuition > budgetMax:
		overshoot := (tuition - budgetMax) / budgetMax
		return math.Max(0, neutralScore-overshoot*100)
	default:
		return belowBudgetScore
	}
}

// RequiredGPA is the GPA expected by a school of the given rank.
func RequiredGPA(rank int) float64 {
	switch {
	case rank <= 50:
		return 3.5
	case rank <= 100:
		return 3.0
	default:
		return 2.5
	}
}

func AdmissionScore(school models.School, _ models.Program, criteria models.UserCriteria) float64 {
	score := neutralScore
	if criteria.GPA != nil && *criteria.GPA > 0 {
		gpa := *criteria.GPA
		required := RequiredGPA(schoolRank(school))
		switch {
		case gpa >= required+0.5:
			score += 30
		case gpa >= required:
			score += 20
		case gpa >= required-0.3:
			score += 10
		default:
			score -= 20
		}
	}
	if criteria.LanguageScore != nil {
		score += languageBonus
	}
	return clamp(score)
}

func ProgramScore(_ models.School, program models.Program, criteria models.UserCriteria) float64 {
	score := neutralScore

	name := strings.ToLower(program.DisplayName())
	category := strings.ToLower(program.Category)
	for _, major := range criteria.Majors {
		m := strings.ToLower(major)
		if m == "" {
			continue
		}
		if strings.Contains(name, m) || strings.Contains(category, m) {
			score += majorMatchBonus
			break
		}
	}

	degree := strings.ToLower(program.Degree)
	for _, synonym := range degreeSynonyms[criteria.DegreeLevel] {
		if strings.Contains(degree, synonym) {
			score += degreeMatchBonus
			break
		}
	}

	return math.Min(100, score)
}

func LocationScore(school models.School, _ models.Program, criteria models.UserCriteria) float64 {
	score := neutralScore

	if len(criteria.Countries) > 0 {
		if !CountryMatches(school.Country, criteria.Countries) {
			return 0
		}
		score += countryMatchBonus
	}

	if criteria.Preferences != nil && len(criteria.Preferences.Locations) > 0 {
		location := strings.ToLower(school.Location)
		for _, city := range criteria.Preferences.Locations {
			if c := strings.ToLower(city); c != "" && strings.Contains(location, c) {
				score += cityMatchBonus
				break
			}
		}
	}

	return math.Min(100, score)
}

// CountryMatches reports whether any accepted country is a case-insensitive
// substring of the school's country.
func CountryMatches(schoolCountry string, countries []string) bool {
	country := strings.ToLower(schoolCountry)
	for _, c := range countries {
		if strings.Contains(country, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
