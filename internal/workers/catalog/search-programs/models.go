// internal/workers/catalog/search-programs/models.go
package searchprograms

import "school-match-workers/internal/catalog"

type Input struct {
	Keywords   string      `json:"keywords"`
	Degree     string      `json:"degree,omitempty"`
	Category   string      `json:"category,omitempty"`
	SchoolIDs  []string    `json:"schoolIds,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

type Output struct {
	Hits     []catalog.ProgramHit `json:"hits"`
	Total    int64                `json:"total"`
	MaxScore float64              `json:"maxScore"`
	Took     int64                `json:"took"`
	From     int                  `json:"from"`
	Size     int                  `json:"size"`
	HasMore  bool                 `json:"hasMore"`
}
