// internal/models/school.go
package models

import (
	"fmt"
	"strings"
)

const (
	UnrankedLabel    = "未排名"
	UnknownSchool    = "未知学校"
	UnknownLocation  = "位置未知"
	UnknownDegree    = "未知"
	DefaultRankLimit = 999
)

// School is a catalog institution. A nil Ranking means unranked.
type School struct {
	ID       string   `json:"id" yaml:"id" validate:"required"`
	Name     string   `json:"name" yaml:"name" validate:"required"`
	Country  string   `json:"country" yaml:"country"`
	Region   string   `json:"region,omitempty" yaml:"region,omitempty"`
	City     string   `json:"city,omitempty" yaml:"city,omitempty"`
	Location string   `json:"location" yaml:"location"`
	Ranking  *int     `json:"ranking,omitempty" yaml:"ranking,omitempty" validate:"omitempty,gt=0"`
	Tags     []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// RankingLabel renders the ranking as "#N", or the unranked label.
func (s School) RankingLabel() string {
	if s.Ranking == nil || *s.Ranking <= 0 {
		return UnrankedLabel
	}
	return fmt.Sprintf("#%d", *s.Ranking)
}

// ComposeLocation joins country and city the way catalog rows are displayed.
func ComposeLocation(country, city string) string {
	loc := strings.TrimSpace(strings.TrimSpace(country) + " " + strings.TrimSpace(city))
	if loc == "" {
		return UnknownLocation
	}
	return loc
}

// Program belongs to exactly one School via SchoolID.
type Program struct {
	ID         string `json:"id" yaml:"id" validate:"required"`
	SchoolID   string `json:"schoolId" yaml:"schoolId" validate:"required"`
	Name       string `json:"name" yaml:"name"`
	EnName     string `json:"enName,omitempty" yaml:"enName,omitempty"`
	Degree     string `json:"degree" yaml:"degree"`
	Duration   string `json:"duration,omitempty" yaml:"duration,omitempty"`
	TuitionFee string `json:"tuitionFee,omitempty" yaml:"tuitionFee,omitempty"`
	Category   string `json:"category,omitempty" yaml:"category,omitempty"`
	Faculty    string `json:"faculty,omitempty" yaml:"faculty,omitempty"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
}

// DisplayName prefers the Chinese name and falls back to the English one.
func (p Program) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.EnName
}
