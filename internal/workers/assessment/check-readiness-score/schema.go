// internal/workers/assessment/check-readiness-score/schema.go
package checkreadinessscore

import (
	"readiness-scorer/internal/common/validation"
	"readiness-scorer/internal/readiness"
)

// GetInputSchema builds the variable schema from the active answer vocabulary.
// Empty strings are accepted everywhere: they mean "not answered".
func GetInputSchema(vocab readiness.Vocabulary) validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"subjectId", "answers"},
		Properties: map[string]validation.Property{
			"subjectId": {
				Type:        "string",
				Description: "Caller identifier for the scored organization",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(128),
			},
			"subjectReference": {
				Type:        "string",
				Description: "Website used for inferred signals",
				MaxLength:   validation.IntPtr(2048),
			},
			"answers": {
				Type:                 "object",
				AdditionalProperties: validation.BoolPtr(false),
				Properties: map[string]validation.Property{
					readiness.FieldPainPointVolume: answer(vocab.PainPointVolumes),
					readiness.FieldCloudReadiness:  answer(vocab.CloudReadiness),
					readiness.FieldTimeline:        answer(vocab.Timelines),
					readiness.FieldBudget:          answer(vocab.Budgets),
					readiness.FieldCompanySize:     answer(vocab.CompanySizes),
					readiness.FieldAutomationTools: answerSet(vocab.AutomationTools),
					readiness.FieldRegulations:     answerSet(vocab.Regulations),
					readiness.FieldIndustry: {
						Type:      "string",
						MaxLength: validation.IntPtr(readiness.MaxIndustryLength),
					},
				},
			},
		},
		AdditionalProperties: true,
	}
}

func answer(values []string) validation.Property {
	return validation.Property{Type: "string", Enum: append([]string{""}, values...)}
}

func answerSet(values []string) validation.Property {
	return validation.Property{Type: "array", Items: &validation.Property{Type: "string", Enum: values}}
}
