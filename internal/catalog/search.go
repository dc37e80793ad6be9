// internal/catalog/search.go
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"school-match-workers/internal/models"
)

const (
	DefaultSearchSize = 20
	MaxSearchSize     = 100
)

var (
	ErrIndexMissing = errors.New("search index not found")
	ErrSearchFailed = errors.New("search request failed")
)

// ProgramQuery narrows a free-text program search.
type ProgramQuery struct {
	Keywords  string   `json:"keywords"`
	Degree    string   `json:"degree,omitempty"`
	Category  string   `json:"category,omitempty"`
	SchoolIDs []string `json:"schoolIds,omitempty"`
	From      int      `json:"from,omitempty"`
	Size      int      `json:"size,omitempty"`
}

type ProgramHit struct {
	Program models.Program `json:"program"`
	Score   float64        `json:"score"`
}

type SearchResult struct {
	Hits     []ProgramHit `json:"hits"`
	Total    int64        `json:"total"`
	MaxScore float64      `json:"maxScore"`
	Took     int64        `json:"took"`
}

// ProgramSearcher runs full-text program queries against the program index.
type ProgramSearcher struct {
	client *elasticsearch.Client
	index  string
}

func NewProgramSearcher(client *elasticsearch.Client, index string) *ProgramSearcher {
	if index == "" {
		index = "programs"
	}
	return &ProgramSearcher{client: client, index: index}
}

func (s *ProgramSearcher) Index() string { return s.index }

// NormalizePage clamps a requested page to the searchable window.
func NormalizePage(from, size int) (int, int) {
	if from < 0 {
		from = 0
	}
	if size <= 0 {
		size = DefaultSearchSize
	}
	if size > MaxSearchSize {
		size = MaxSearchSize
	}
	return from, size
}

// BuildQuery returns the request body for q.
func BuildQuery(q ProgramQuery) map[string]interface{} {
	var must []interface{}
	if kw := strings.TrimSpace(q.Keywords); kw != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     kw,
				"fields":    []string{"name^3", "enName^2", "category", "faculty"},
				"fuzziness": "AUTO",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	var filter []interface{}
	if q.Degree != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"degree": q.Degree}})
	}
	if q.Category != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"category": q.Category}})
	}
	if len(q.SchoolIDs) > 0 {
		filter = append(filter, map[string]interface{}{"terms": map[string]interface{}{"schoolId": q.SchoolIDs}})
	}

	boolQuery := map[string]interface{}{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}
	return map[string]interface{}{
		"query":            map[string]interface{}{"bool": boolQuery},
		"track_total_hits": true,
	}
}

func (s *ProgramSearcher) Search(ctx context.Context, q ProgramQuery) (*SearchResult, error) {
	from, size := NormalizePage(q.From, q.Size)

	body, err := json.Marshal(BuildQuery(q))
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrSearchFailed, err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexMissing, s.index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.Status())
	}

	var raw struct {
		Took int64 `json:"took"`
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			MaxScore *float64 `json:"max_score"`
			Hits     []struct {
				Score  *float64       `json:"_score"`
				Source models.Program `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	result := &SearchResult{
		Hits:  make([]ProgramHit, 0, len(raw.Hits.Hits)),
		Total: raw.Hits.Total.Value,
		Took:  raw.Took,
	}
	if raw.Hits.MaxScore != nil {
		result.MaxScore = *raw.Hits.MaxScore
	}
	for _, h := range raw.Hits.Hits {
		hit := ProgramHit{Program: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}
