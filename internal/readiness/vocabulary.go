// internal/readiness/vocabulary.go
package readiness

import "sort"

// Field names used in validation errors and defaulted-field reports.
const (
	FieldPainPointVolume = "painPointVolume"
	FieldCloudReadiness  = "cloudReadiness"
	FieldAutomationTools = "automationTools"
	FieldTimeline        = "timeline"
	FieldBudget          = "budget"
	FieldRegulations     = "regulations"
	FieldIndustry        = "industry"
	FieldCompanySize     = "companySize"
)

// Vocabulary is the closed set of accepted answer values per field.
// Industry is intentionally absent: it is a free tag resolved by the benchmark table.
type Vocabulary struct {
	PainPointVolumes []string `yaml:"pain_point_volumes"`
	CloudReadiness   []string `yaml:"cloud_readiness"`
	AutomationTools  []string `yaml:"automation_tools"`
	Timelines        []string `yaml:"timelines"`
	Budgets          []string `yaml:"budgets"`
	Regulations      []string `yaml:"regulations"`
	CompanySizes     []string `yaml:"company_sizes"`
}

// DefaultVocabulary returns the v1 answer vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		PainPointVolumes: []string{"under_100", "100_500", "500_1000", "1000_5000", "over_5000"},
		CloudReadiness:   []string{"yes", "partial", "no", "unsure"},
		AutomationTools:  []string{"zapier", "make", "power_automate", "uipath", "n8n", "workato", "custom_scripts"},
		Timelines:        []string{"immediate", "this_quarter", "this_year", "next_year", "exploring"},
		Budgets:          []string{"under_10k", "10_25k", "25_100k", "100k_plus", "undecided"},
		Regulations:      []string{"hipaa", "gdpr", "sox", "pci_dss", "ccpa", "ferpa", "glba", "soc2"},
		CompanySizes:     []string{"1-10", "11-50", "51-200", "201-500", "501-1000", "1000+"},
	}
}

// Values returns the accepted values for a field, or nil when the field has no closed vocabulary.
func (v Vocabulary) Values(field string) []string {
	switch field {
	case FieldPainPointVolume:
		return v.PainPointVolumes
	case FieldCloudReadiness:
		return v.CloudReadiness
	case FieldAutomationTools:
		return v.AutomationTools
	case FieldTimeline:
		return v.Timelines
	case FieldBudget:
		return v.Budgets
	case FieldRegulations:
		return v.Regulations
	case FieldCompanySize:
		return v.CompanySizes
	default:
		return nil
	}
}

// Contains reports whether value belongs to the field's vocabulary.
func (v Vocabulary) Contains(field, value string) bool {
	for _, allowed := range v.Values(field) {
		if allowed == value {
			return true
		}
	}
	return false
}

// IndexOf returns the position of value in the field's vocabulary, or -1.
func (v Vocabulary) IndexOf(field, value string) int {
	for i, allowed := range v.Values(field) {
		if allowed == value {
			return i
		}
	}
	return -1
}

// dedupeSorted returns a sorted copy of values without duplicates.
func dedupeSorted(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
