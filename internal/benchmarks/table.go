// internal/benchmarks/table.go
package benchmarks

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"readiness-scorer/internal/readiness"
)

//go:embed default_table.yaml
var defaultTableYAML []byte

// Table is an immutable cohort snapshot. It is safe for unlimited concurrent
// readers; a refresh builds a new Table instead of mutating this one.
type Table struct {
	version   string
	reference int
	records   []readiness.BenchmarkRecord
	index     map[string]readiness.BenchmarkRecord
}

type tableFile struct {
	Version        string                      `yaml:"version"`
	ReferenceScore int                         `yaml:"reference_score"`
	Cohorts        []readiness.BenchmarkRecord `yaml:"cohorts"`
}

// NewTable validates records and builds the lookup index. A zero reference
// score is replaced by the mean typical score across cohorts.
func NewTable(version string, reference int, records []readiness.BenchmarkRecord) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("benchmark table %q has no cohorts", version)
	}

	index := make(map[string]readiness.BenchmarkRecord, len(records))
	copied := make([]readiness.BenchmarkRecord, 0, len(records))
	sum := 0
	for _, r := range records {
		if r.Industry == "" || r.SizeBand == "" {
			return nil, fmt.Errorf("benchmark cohort missing industry or size band: %+v", r)
		}
		if r.TypicalScore < 0 || r.TypicalScore > 100 {
			return nil, fmt.Errorf("benchmark cohort %s/%s typical score %d outside 0..100", r.Industry, r.SizeBand, r.TypicalScore)
		}
		key := readiness.CohortKey(r.Industry, r.SizeBand)
		if _, dup := index[key]; dup {
			return nil, fmt.Errorf("duplicate benchmark cohort %s/%s", r.Industry, r.SizeBand)
		}
		r.CohortMetadata = copyMetadata(r.CohortMetadata)
		index[key] = r
		copied = append(copied, r)
		sum += r.TypicalScore
	}

	if reference == 0 {
		reference = (sum + len(records)/2) / len(records)
	}
	if reference < 0 || reference > 100 {
		return nil, fmt.Errorf("benchmark reference score %d outside 0..100", reference)
	}

	sort.Slice(copied, func(i, j int) bool {
		return readiness.CohortKey(copied[i].Industry, copied[i].SizeBand) < readiness.CohortKey(copied[j].Industry, copied[j].SizeBand)
	})

	return &Table{version: version, reference: reference, records: copied, index: index}, nil
}

// ParseYAML decodes a table file.
func ParseYAML(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse benchmark table: %w", err)
	}
	return NewTable(f.Version, f.ReferenceScore, f.Cohorts)
}

// LoadFile reads a YAML table from disk.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read benchmark table %s: %w", path, err)
	}
	return ParseYAML(data)
}

// Default returns the table compiled into the binary.
func Default() *Table {
	t, err := ParseYAML(defaultTableYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded benchmark table is invalid: %v", err))
	}
	return t
}

func (t *Table) Cohort(industry, sizeBand string) (readiness.BenchmarkRecord, bool) {
	r, ok := t.index[readiness.CohortKey(industry, sizeBand)]
	if !ok {
		return readiness.BenchmarkRecord{}, false
	}
	r.CohortMetadata = copyMetadata(r.CohortMetadata)
	return r, true
}

func (t *Table) ReferenceScore() int { return t.reference }

func (t *Table) Version() string { return t.version }

func (t *Table) Len() int { return len(t.records) }

// Records returns a copy of all cohorts sorted by cohort key.
func (t *Table) Records() []readiness.BenchmarkRecord {
	out := make([]readiness.BenchmarkRecord, len(t.records))
	for i, r := range t.records {
		r.CohortMetadata = copyMetadata(r.CohortMetadata)
		out[i] = r
	}
	return out
}

// MarshalYAML renders the table in the same shape ParseYAML accepts.
func (t *Table) MarshalYAML() (interface{}, error) {
	return tableFile{Version: t.version, ReferenceScore: t.reference, Cohorts: t.Records()}, nil
}

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
