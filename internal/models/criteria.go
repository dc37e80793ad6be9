// internal/models/criteria.go
package models

import (
	"fmt"
	"math"
)

type DegreeLevel string

const (
	DegreeBachelor DegreeLevel = "bachelor"
	DegreeMaster   DegreeLevel = "master"
	DegreePhD      DegreeLevel = "phd"
	DegreeDiploma  DegreeLevel = "diploma"
)

func (d DegreeLevel) Valid() bool {
	switch d {
	case DegreeBachelor, DegreeMaster, DegreePhD, DegreeDiploma:
		return true
	default:
		return false
	}
}

type LanguageTest string

const (
	LanguageIELTS    LanguageTest = "IELTS"
	LanguageTOEFL    LanguageTest = "TOEFL"
	LanguagePTE      LanguageTest = "PTE"
	LanguageDuolingo LanguageTest = "Duolingo"
)

type LanguageScore struct {
	Type  LanguageTest `json:"type" yaml:"type"`
	Score float64      `json:"score" yaml:"score"`
}

// RankingBand is an inclusive hard constraint on school ranking.
// Zero values fall back to 1 and DefaultRankLimit.
type RankingBand struct {
	Min int `json:"min,omitempty" yaml:"min,omitempty"`
	Max int `json:"max,omitempty" yaml:"max,omitempty"`
}

type Preferences struct {
	Locations []string     `json:"location,omitempty" yaml:"location,omitempty"`
	Ranking   *RankingBand `json:"ranking,omitempty" yaml:"ranking,omitempty"`
}

// UserCriteria is the candidate's matching input. Optional fields are pointers.
type UserCriteria struct {
	Countries       []string       `json:"countries" yaml:"countries"`
	Majors          []string       `json:"majors" yaml:"majors"`
	DegreeLevel     DegreeLevel    `json:"degreeLevel" yaml:"degreeLevel"`
	GPA             *float64       `json:"gpa,omitempty" yaml:"gpa,omitempty"`
	LanguageScore   *LanguageScore `json:"languageScore,omitempty" yaml:"languageScore,omitempty"`
	BudgetMin       *float64       `json:"budgetMin,omitempty" yaml:"budgetMin,omitempty"`
	BudgetMax       *float64       `json:"budgetMax,omitempty" yaml:"budgetMax,omitempty"`
	NeedScholarship bool           `json:"needScholarship,omitempty" yaml:"needScholarship,omitempty"`
	Preferences     *Preferences   `json:"preferences,omitempty" yaml:"preferences,omitempty"`
	Weights         *Weights       `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// Weights uses the externally exposed dimension keys.
type Weights struct {
	Ranking       float64 `json:"ranking" yaml:"ranking" mapstructure:"ranking"`
	Cost          float64 `json:"cost" yaml:"cost" mapstructure:"cost"`
	Employability float64 `json:"employability" yaml:"employability" mapstructure:"employability"`
	Reputation    float64 `json:"reputation" yaml:"reputation" mapstructure:"reputation"`
	Location      float64 `json:"location" yaml:"location" mapstructure:"location"`
}

func DefaultWeights() Weights {
	return Weights{
		Ranking:       25,
		Cost:          20,
		Employability: 25,
		Reputation:    15,
		Location:      15,
	}
}

func (w Weights) Sum() float64 {
	return w.Ranking + w.Cost + w.Employability + w.Reputation + w.Location
}

func (w Weights) IsZero() bool {
	return w == Weights{}
}

// Validate reports negative entries or a sum other than 100.
func (w Weights) Validate() error {
	for key, v := range map[string]float64{
		"ranking":       w.Ranking,
		"cost":          w.Cost,
		"employability": w.Employability,
		"reputation":    w.Reputation,
		"location":      w.Location,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative, got %v", key, v)
		}
	}
	if math.Abs(w.Sum()-100) > 1e-9 {
		return fmt.Errorf("weights must sum to 100, got %v", w.Sum())
	}
	return nil
}

// DefaultCriteria mirrors the advisor console's initial form.
func DefaultCriteria() UserCriteria {
	gpa := 3.5
	budgetMin, budgetMax := 200000.0, 400000.0
	return UserCriteria{
		Countries:   []string{"英国"},
		Majors:      []string{"计算机"},
		DegreeLevel: DegreeMaster,
		GPA:         &gpa,
		BudgetMin:   &budgetMin,
		BudgetMax:   &budgetMax,
	}
}
