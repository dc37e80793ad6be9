// internal/matching/ranking.go
package matching

import (
	"fmt"
	"regexp"
	"strconv"

	"school-match-workers/internal/models"
)

// RankingBand interpolates linearly from From (just after the previous
// band's UpTo) to To (at UpTo).
type RankingBand struct {
	UpTo int
	From float64
	To   float64
}

// RankingPolicy maps a rank to a prestige score. Ranks past the last band
// approach Floor asymptotically.
type RankingPolicy struct {
	Bands []RankingBand
	Floor float64
}

func DefaultRankingPolicy() RankingPolicy {
	return RankingPolicy{
		Bands: []RankingBand{
			{UpTo: 10, From: 100, To: 100},
			{UpTo: 50, From: 90, To: 51},
			{UpTo: 100, From: 51, To: 40},
			{UpTo: 200, From: 40, To: 22},
		},
		Floor: 20,
	}
}

// Score assumes rank >= 1.
func (p RankingPolicy) Score(rank int) float64 {
	prev := 0
	for _, band := range p.Bands {
		if rank <= band.UpTo {
			span := float64(band.UpTo - prev)
			if span <= 0 {
				return band.To
			}
			return band.From + (band.To-band.From)*float64(rank-prev)/span
		}
		prev = band.UpTo
	}
	if len(p.Bands) == 0 {
		return p.Floor
	}
	last := p.Bands[len(p.Bands)-1]
	return p.Floor + (last.To-p.Floor)*float64(last.UpTo)/float64(rank)
}

// Validate checks the table is ordered and never increases.
func (p RankingPolicy) Validate() error {
	prevUpTo := 0
	prevTo := -1.0
	for i, band := range p.Bands {
		if band.UpTo <= prevUpTo {
			return fmt.Errorf("band %d: upTo %d must exceed %d", i, band.UpTo, prevUpTo)
		}
		if band.To > band.From {
			return fmt.Errorf("band %d: score rises from %v to %v", i, band.From, band.To)
		}
		if prevTo >= 0 && band.From > prevTo {
			return fmt.Errorf("band %d: starts at %v above previous end %v", i, band.From, prevTo)
		}
		if band.To < p.Floor {
			return fmt.Errorf("band %d: ends at %v below floor %v", i, band.To, p.Floor)
		}
		prevUpTo, prevTo = band.UpTo, band.To
	}
	return nil
}

var nonDigits = regexp.MustCompile(`\D`)

// ParseRank reads the digits of a ranking label such as "#12" or "QS 45".
// Missing or zero ranks read as models.DefaultRankLimit.
func ParseRank(label string) int {
	n, err := strconv.Atoi(nonDigits.ReplaceAllString(label, ""))
	if err != nil || n <= 0 {
		return models.DefaultRankLimit
	}
	return n
}

func schoolRank(school models.School) int {
	if school.Ranking == nil || *school.Ranking <= 0 {
		return models.DefaultRankLimit
	}
	return *school.Ranking
}
