// internal/readiness/normalizer.go
package readiness

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Normalizer validates answers and maps them to the user-declared score components.
// It is stateless after construction and safe for concurrent use.
type Normalizer struct {
	rules    Rules
	validate *validator.Validate
}

func NewNormalizer(rules Rules) (*Normalizer, error) {
	v, err := newInputValidator(rules.Vocabulary)
	if err != nil {
		return nil, err
	}
	return &Normalizer{rules: rules, validate: v}, nil
}

// Normalize rejects out-of-vocabulary values and fills unanswered fields.
func (n *Normalizer) Normalize(in ReadinessInput) (NormalizedInput, error) {
	var errs ValidationErrors
	if err := validateInput(n.validate, in); err != nil {
		ves, ok := err.(ValidationErrors)
		if !ok {
			return NormalizedInput{}, err
		}
		errs = append(errs, ves...)
	}

	d := n.rules.Defaults
	out := NormalizedInput{
		PainPointVolume: in.PainPointVolume,
		CloudReadiness:  in.CloudReadiness,
		AutomationTools: dedupeSorted(in.AutomationTools),
		Timeline:        in.Timeline,
		Budget:          in.Budget,
		Regulations:     dedupeSorted(in.Regulations),
		Industry:        strings.TrimSpace(in.Industry),
		CompanySize:     in.CompanySize,
	}

	fill := func(field string, value *string, def string) {
		if *value != "" {
			return
		}
		out.Defaulted = append(out.Defaulted, field)
		*value = def
	}
	fillSet := func(field string, value *[]string) {
		if *value != nil {
			return
		}
		out.Defaulted = append(out.Defaulted, field)
		*value = []string{}
	}

	fill(FieldPainPointVolume, &out.PainPointVolume, d.PainPointVolume)
	fill(FieldCloudReadiness, &out.CloudReadiness, d.CloudReadiness)
	fillSet(FieldAutomationTools, &out.AutomationTools)
	fill(FieldTimeline, &out.Timeline, d.Timeline)
	fill(FieldBudget, &out.Budget, d.Budget)
	fillSet(FieldRegulations, &out.Regulations)
	fill(FieldIndustry, &out.Industry, d.Industry)
	fill(FieldCompanySize, &out.CompanySize, d.CompanySize)

	if !n.rules.AllowPartial {
		for _, field := range out.Defaulted {
			errs = append(errs, &ValidationError{Field: field, Reason: "answer is required"})
		}
	}
	if len(errs) > 0 {
		return NormalizedInput{}, errs
	}
	return out, nil
}

// Components returns the pain-point, technology and business-fit components in order.
func (n *Normalizer) Components(in NormalizedInput) []ScoreComponent {
	return []ScoreComponent{
		n.painPoint(in),
		n.technology(in),
		n.businessFit(in),
	}
}

func (n *Normalizer) painPoint(in NormalizedInput) ScoreComponent {
	r := n.rules.PainPoint
	points := clamp(r.Base+r.VolumeSteps[in.PainPointVolume], 0, r.MaxPoints)
	explanation := fmt.Sprintf("monthly volume band %s scores %d of %d", in.PainPointVolume, points, r.MaxPoints)
	return newComponent(n.rules, ComponentPainPoint, points, explanation)
}

func (n *Normalizer) technology(in NormalizedInput) ScoreComponent {
	r := n.rules.Technology
	cloud := r.CloudPoints[in.CloudReadiness]
	tools := clamp(len(in.AutomationTools)*r.PointsPerTool, 0, r.ToolCap)
	points := clamp(cloud+tools, 0, r.MaxPoints)
	explanation := fmt.Sprintf("cloud readiness %q adds %d; %d automation tool(s) add %d",
		in.CloudReadiness, cloud, len(in.AutomationTools), tools)
	return newComponent(n.rules, ComponentTechnology, points, explanation)
}

func (n *Normalizer) businessFit(in NormalizedInput) ScoreComponent {
	r := n.rules.BusinessFit
	timeline := r.TimelineAdjust[in.Timeline]
	budget := r.BudgetBonus[in.Budget]
	penalty := clamp(len(in.Regulations)*r.PenaltyPerRegulation, 0, r.PenaltyCap)
	points := clamp(r.Base+timeline+budget-penalty, 0, r.MaxPoints)
	explanation := fmt.Sprintf("timeline %s (%+d), budget %s (%+d), %d regulation(s) (-%d)",
		in.Timeline, timeline, in.Budget, budget, len(in.Regulations), penalty)
	return newComponent(n.rules, ComponentBusinessFit, points, explanation)
}
