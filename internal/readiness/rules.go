// internal/readiness/rules.go
package readiness

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Component names, in the order they appear in a ReadinessScore.
const (
	ComponentPainPoint   = "pain_point_severity"
	ComponentTechnology  = "technology_maturity"
	ComponentBusinessFit = "business_fit"
	ComponentBenchmark   = "benchmark_position"
	ComponentInference   = "website_signals"
)

// ComponentOrder is the fixed emission order of score components.
var ComponentOrder = []string{
	ComponentPainPoint,
	ComponentTechnology,
	ComponentBusinessFit,
	ComponentBenchmark,
	ComponentInference,
}

// Rules centralizes every weight, threshold and template used by the scorer.
// A Rules value is read-only once handed to a Scorer.
type Rules struct {
	Version          string        `yaml:"version"`
	AllowPartial     bool          `yaml:"allow_partial"`
	InferenceTimeout time.Duration `yaml:"inference_timeout"`

	Vocabulary   Vocabulary       `yaml:"vocabulary"`
	Defaults     AnswerDefaults   `yaml:"defaults"`
	PainPoint    PainPointRules   `yaml:"pain_point"`
	Technology   TechnologyRules  `yaml:"technology"`
	BusinessFit  BusinessFitRules `yaml:"business_fit"`
	Benchmark    BenchmarkRules   `yaml:"benchmark"`
	Inference    InferenceRules   `yaml:"inference"`
	Explanations ExplanationRules `yaml:"explanations"`
}

// AnswerDefaults are substituted for unanswered fields on partial submissions.
type AnswerDefaults struct {
	PainPointVolume string `yaml:"pain_point_volume"`
	CloudReadiness  string `yaml:"cloud_readiness"`
	Timeline        string `yaml:"timeline"`
	Budget          string `yaml:"budget"`
	Industry        string `yaml:"industry"`
	CompanySize     string `yaml:"company_size"`
}

type PainPointRules struct {
	MaxPoints   int            `yaml:"max_points"`
	Base        int            `yaml:"base"`
	VolumeSteps map[string]int `yaml:"volume_steps"`
}

type TechnologyRules struct {
	MaxPoints     int            `yaml:"max_points"`
	CloudPoints   map[string]int `yaml:"cloud_points"`
	PointsPerTool int            `yaml:"points_per_tool"`
	ToolCap       int            `yaml:"tool_cap"`
}

type BusinessFitRules struct {
	MaxPoints            int            `yaml:"max_points"`
	Base                 int            `yaml:"base"`
	TimelineAdjust       map[string]int `yaml:"timeline_adjust"`
	BudgetBonus          map[string]int `yaml:"budget_bonus"`
	PenaltyPerRegulation int            `yaml:"penalty_per_regulation"`
	PenaltyCap           int            `yaml:"penalty_cap"`
}

type BenchmarkRules struct {
	MaxPoints        int    `yaml:"max_points"`
	AbovePoints      int    `yaml:"above_points"`
	AtPoints         int    `yaml:"at_points"`
	BelowPoints      int    `yaml:"below_points"`
	Tolerance        int    `yaml:"tolerance"`
	FallbackIndustry string `yaml:"fallback_industry"`
}

type InferenceRules struct {
	MaxPoints        int            `yaml:"max_points"`
	Base             int            `yaml:"base"`
	QualityPercent   map[string]int `yaml:"quality_percent"`
	AttributeWeights map[string]int `yaml:"attribute_weights"`
}

// Upper bounds on the explanation lists of a ReadinessScore.
const (
	MaxKeyStrengths = 3
	MaxKeyGaps      = 2
)

// ExplanationRules drives strength/gap selection and the summary templates.
type ExplanationRules struct {
	StrengthPercent int                   `yaml:"strength_percent"`
	GapPercent      int                   `yaml:"gap_percent"`
	MaxStrengths    int                   `yaml:"max_strengths"`
	MaxGaps         int                   `yaml:"max_gaps"`
	Bands           []ScoreBand           `yaml:"bands"`
	Phrases         map[string]Phrasebook `yaml:"phrases"`
}

// ScoreBand labels overall scores at or above Min. Bands are ordered by Min descending.
type ScoreBand struct {
	Min   int    `yaml:"min"`
	Label string `yaml:"label"`
}

// Phrasebook holds the templated text for one component.
type Phrasebook struct {
	Label    string `yaml:"label"`
	Strength string `yaml:"strength"`
	Gap      string `yaml:"gap"`
}

// DefaultRules returns the v1 weighting scheme. Component maxima sum to 100.
func DefaultRules() Rules {
	return Rules{
		Version:          "v1",
		AllowPartial:     true,
		InferenceTimeout: 5 * time.Second,
		Vocabulary:       DefaultVocabulary(),
		Defaults: AnswerDefaults{
			PainPointVolume: "under_100",
			CloudReadiness:  "unsure",
			Timeline:        "exploring",
			Budget:          "undecided",
			Industry:        "Other",
			CompanySize:     "11-50",
		},
		PainPoint: PainPointRules{
			MaxPoints: 25,
			Base:      5,
			VolumeSteps: map[string]int{
				"under_100": 0,
				"100_500":   5,
				"500_1000":  10,
				"1000_5000": 15,
				"over_5000": 20,
			},
		},
		Technology: TechnologyRules{
			MaxPoints: 25,
			CloudPoints: map[string]int{
				"yes":     15,
				"partial": 8,
				"unsure":  4,
				"no":      0,
			},
			PointsPerTool: 4,
			ToolCap:       10,
		},
		BusinessFit: BusinessFitRules{
			MaxPoints: 20,
			Base:      10,
			TimelineAdjust: map[string]int{
				"immediate":    -2,
				"this_quarter": 3,
				"this_year":    3,
				"next_year":    1,
				"exploring":    -1,
			},
			BudgetBonus: map[string]int{
				"under_10k": 0,
				"10_25k":    2,
				"25_100k":   5,
				"100k_plus": 7,
				"undecided": 0,
			},
			PenaltyPerRegulation: 1,
			PenaltyCap:           4,
		},
		Benchmark: BenchmarkRules{
			MaxPoints:        15,
			AbovePoints:      15,
			AtPoints:         8,
			BelowPoints:      2,
			Tolerance:        3,
			FallbackIndustry: "Other",
		},
		Inference: InferenceRules{
			MaxPoints: 15,
			Base:      4,
			QualityPercent: map[string]int{
				string(QualityHigh):   100,
				string(QualityMedium): 75,
				string(QualityLow):    50,
			},
			AttributeWeights: map[string]int{
				"cloud_hosting":        3,
				"api_documentation":    3,
				"crm_integration":      3,
				"marketing_automation": 2,
				"modern_js_framework":  2,
				"analytics":            2,
				"chat_widget":          2,
				"online_booking":       2,
				"https":                1,
				"legacy_cms":           -3,
				"no_https":             -3,
				"flash_content":        -4,
				"table_layout":         -2,
				"legacy_jquery":        -1,
			},
		},
		Explanations: ExplanationRules{
			StrengthPercent: 80,
			GapPercent:      30,
			MaxStrengths:    MaxKeyStrengths,
			MaxGaps:         MaxKeyGaps,
			Bands: []ScoreBand{
				{Min: 75, Label: "advanced"},
				{Min: 50, Label: "ready"},
				{Min: 30, Label: "emerging"},
				{Min: 0, Label: "early"},
			},
			Phrases: map[string]Phrasebook{
				ComponentPainPoint: {
					Label:    "Pain-point severity",
					Strength: "High volume of repetitive work gives automation a fast payback",
					Gap:      "Low volume of repetitive work limits automation payback",
				},
				ComponentTechnology: {
					Label:    "Technology maturity",
					Strength: "Cloud-ready infrastructure and tool experience support rapid rollout",
					Gap:      "Infrastructure and tooling need groundwork before automating",
				},
				ComponentBusinessFit: {
					Label:    "Business fit",
					Strength: "Timeline and budget align well with an automation project",
					Gap:      "Timeline, budget or compliance load constrain an automation project",
				},
				ComponentBenchmark: {
					Label:    "Peer benchmark",
					Strength: "Peers in the same industry and size band are ahead on automation",
					Gap:      "Peers in the same industry and size band trail on automation adoption",
				},
				ComponentInference: {
					Label:    "Website signals",
					Strength: "Public web presence shows a modern, integration-friendly stack",
					Gap:      "Public web presence shows legacy technology markers",
				},
			},
		},
	}
}

// LoadRules reads a YAML rules file. Keys present in the file override DefaultRules.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse rules %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

// MaxPoints returns the configured maximum for a component name.
func (r Rules) MaxPoints(component string) int {
	switch component {
	case ComponentPainPoint:
		return r.PainPoint.MaxPoints
	case ComponentTechnology:
		return r.Technology.MaxPoints
	case ComponentBusinessFit:
		return r.BusinessFit.MaxPoints
	case ComponentBenchmark:
		return r.Benchmark.MaxPoints
	case ComponentInference:
		return r.Inference.MaxPoints
	default:
		return 0
	}
}

// Validate checks the rules for internal consistency.
func (r Rules) Validate() error {
	if r.Version == "" {
		return fmt.Errorf("rules: version is required")
	}
	if r.InferenceTimeout <= 0 {
		return fmt.Errorf("rules: inference_timeout must be positive")
	}

	total := 0
	for _, name := range ComponentOrder {
		max := r.MaxPoints(name)
		if max <= 0 {
			return fmt.Errorf("rules: %s max_points must be positive, got %d", name, max)
		}
		total += max
	}
	if total != 100 {
		return fmt.Errorf("rules: component max_points sum to %d, must sum to 100", total)
	}

	v := r.Vocabulary
	if err := requireMapping("pain_point.volume_steps", v.PainPointVolumes, r.PainPoint.VolumeSteps); err != nil {
		return err
	}
	if err := requireNonDecreasing("pain_point.volume_steps", v.PainPointVolumes, r.PainPoint.VolumeSteps); err != nil {
		return err
	}
	if err := requireMapping("technology.cloud_points", v.CloudReadiness, r.Technology.CloudPoints); err != nil {
		return err
	}
	if err := requireMapping("business_fit.timeline_adjust", v.Timelines, r.BusinessFit.TimelineAdjust); err != nil {
		return err
	}
	if err := requireMapping("business_fit.budget_bonus", v.Budgets, r.BusinessFit.BudgetBonus); err != nil {
		return err
	}

	defaults := map[string]string{
		FieldPainPointVolume: r.Defaults.PainPointVolume,
		FieldCloudReadiness:  r.Defaults.CloudReadiness,
		FieldTimeline:        r.Defaults.Timeline,
		FieldBudget:          r.Defaults.Budget,
		FieldCompanySize:     r.Defaults.CompanySize,
	}
	for field, value := range defaults {
		if !v.Contains(field, value) {
			return fmt.Errorf("rules: default %q for %s is not in the vocabulary", value, field)
		}
	}
	if r.Defaults.Industry == "" || r.Benchmark.FallbackIndustry == "" {
		return fmt.Errorf("rules: default industry and fallback industry are required")
	}

	b := r.Benchmark
	if b.BelowPoints > b.AtPoints || b.AtPoints > b.AbovePoints || b.AbovePoints > b.MaxPoints || b.BelowPoints < 0 {
		return fmt.Errorf("rules: benchmark points must satisfy 0 <= below <= at <= above <= max")
	}
	if b.Tolerance < 0 {
		return fmt.Errorf("rules: benchmark tolerance must be non-negative")
	}

	for _, q := range []Quality{QualityHigh, QualityMedium, QualityLow} {
		pct, ok := r.Inference.QualityPercent[string(q)]
		if !ok || pct < 0 || pct > 100 {
			return fmt.Errorf("rules: inference quality_percent for %s must be within 0..100", q)
		}
	}

	e := r.Explanations
	if e.GapPercent < 0 || e.StrengthPercent > 100 || e.GapPercent >= e.StrengthPercent {
		return fmt.Errorf("rules: explanation thresholds must satisfy 0 <= gap < strength <= 100")
	}
	if e.MaxStrengths < 0 || e.MaxStrengths > MaxKeyStrengths {
		return fmt.Errorf("rules: max_strengths must be within 0..%d, got %d", MaxKeyStrengths, e.MaxStrengths)
	}
	if e.MaxGaps < 0 || e.MaxGaps > MaxKeyGaps {
		return fmt.Errorf("rules: max_gaps must be within 0..%d, got %d", MaxKeyGaps, e.MaxGaps)
	}
	if len(e.Bands) == 0 {
		return fmt.Errorf("rules: at least one score band is required")
	}
	for i := 1; i < len(e.Bands); i++ {
		if e.Bands[i].Min >= e.Bands[i-1].Min {
			return fmt.Errorf("rules: score bands must be ordered by min descending")
		}
	}
	for _, name := range ComponentOrder {
		if _, ok := e.Phrases[name]; !ok {
			return fmt.Errorf("rules: missing phrases for component %s", name)
		}
	}
	return nil
}

func requireMapping(name string, vocabulary []string, table map[string]int) error {
	for _, value := range vocabulary {
		if _, ok := table[value]; !ok {
			return fmt.Errorf("rules: %s has no entry for %q", name, value)
		}
	}
	return nil
}

// requireNonDecreasing checks that points never drop along the vocabulary's order.
func requireNonDecreasing(name string, vocabulary []string, table map[string]int) error {
	for i := 1; i < len(vocabulary); i++ {
		prev, cur := vocabulary[i-1], vocabulary[i]
		if table[cur] < table[prev] {
			return fmt.Errorf("rules: %s must not decrease: %q=%d is below %q=%d",
				name, cur, table[cur], prev, table[prev])
		}
	}
	return nil
}
