package queries

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"connector-workers/internal/models"
)

var ErrMissingIndex = errors.New("index name is required")

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// BuildCandidateSearch builds the profile search for q against index.
func BuildCandidateSearch(index string, q PoolQuery) (*esapi.SearchRequest, error) {
	if index == "" {
		return nil, ErrMissingIndex
	}

	boolQuery := map[string]interface{}{
		"filter": []interface{}{
			map[string]interface{}{
				"terms": map[string]interface{}{"user_type": q.Roles},
			},
		},
	}
	if q.RequesterID != "" {
		boolQuery["must_not"] = []interface{}{
			map[string]interface{}{
				"term": map[string]interface{}{"id": q.RequesterID},
			},
		}
	}

	body, err := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc", "unmapped_type": "date"}},
		},
	})
	if err != nil {
		return nil, err
	}

	size := q.Limit
	return &esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}, nil
}

func FromElasticsearch(ctx context.Context, client *elasticsearch.Client, index string, q PoolQuery) (*Result, error) {
	req, err := BuildCandidateSearch(index, q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := req.Do(ctx, client)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search query failed: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	profiles := make([]models.UserProfile, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		var p models.UserProfile
		if err := json.Unmarshal(hit.Source, &p); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", hit.ID, err)
		}
		if p.ID == "" {
			p.ID = hit.ID
		}
		profiles = append(profiles, p)
	}

	return &Result{
		Profiles: profiles,
		Took:     time.Since(start).Milliseconds(),
	}, nil
}
