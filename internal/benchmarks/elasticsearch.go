// internal/benchmarks/elasticsearch.go
package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"

	"readiness-scorer/internal/common/database"
	"readiness-scorer/internal/readiness"
)

// maxCohorts bounds one search; the cohort space is industries x size bands.
const maxCohorts = 5000

type esCohort struct {
	Industry       string            `json:"industry"`
	SizeBand       string            `json:"size_band"`
	TypicalScore   int               `json:"typical_score"`
	Metadata       map[string]string `json:"metadata"`
	Version        string            `json:"version"`
	ReferenceScore int               `json:"reference_score"`
}

// ElasticsearchLoader reads cohort documents from an index.
type ElasticsearchLoader struct {
	es    *database.ElasticsearchClient
	index string
}

func NewElasticsearchLoader(es *database.ElasticsearchClient, index string) *ElasticsearchLoader {
	return &ElasticsearchLoader{es: es, index: index}
}

func (l *ElasticsearchLoader) Name() string { return "elasticsearch" }

func (l *ElasticsearchLoader) Load(ctx context.Context) (*Table, error) {
	hits, err := l.es.Search(ctx, l.index, map[string]interface{}{
		"size":  maxCohorts,
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort": []interface{}{
			map[string]interface{}{"industry.keyword": "asc"},
			map[string]interface{}{"size_band.keyword": "asc"},
		},
	})
	if err != nil {
		return nil, err
	}

	var (
		records   []readiness.BenchmarkRecord
		version   string
		reference int
	)
	for _, hit := range hits {
		var doc esCohort
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			return nil, fmt.Errorf("decode benchmark document %s: %w", hit.ID, err)
		}
		version, reference = doc.Version, doc.ReferenceScore
		records = append(records, readiness.BenchmarkRecord{
			Industry:       doc.Industry,
			SizeBand:       doc.SizeBand,
			TypicalScore:   doc.TypicalScore,
			CohortMetadata: doc.Metadata,
		})
	}

	return NewTable(version, reference, records)
}
