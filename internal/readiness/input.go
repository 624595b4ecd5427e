// internal/readiness/input.go
package readiness

import (
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MaxIndustryLength bounds the free-form industry tag, in characters.
const MaxIndustryLength = 256

// ReadinessInput holds the caller's answers. Empty strings and nil sets mean "not answered";
// an empty non-nil set is the explicit answer "none".
type ReadinessInput struct {
	PainPointVolume string   `json:"painPointVolume" validate:"omitempty,vocab=painPointVolume"`
	CloudReadiness  string   `json:"cloudReadiness" validate:"omitempty,vocab=cloudReadiness"`
	AutomationTools []string `json:"automationTools" validate:"omitempty,dive,vocab=automationTools"`
	Timeline        string   `json:"timeline" validate:"omitempty,vocab=timeline"`
	Budget          string   `json:"budget" validate:"omitempty,vocab=budget"`
	Regulations     []string `json:"regulations" validate:"omitempty,dive,vocab=regulations"`
	Industry        string   `json:"industry" validate:"omitempty,max=256,utf8"`
	CompanySize     string   `json:"companySize" validate:"omitempty,vocab=companySize"`
}

// NormalizedInput is a fully populated, validated copy of ReadinessInput.
type NormalizedInput struct {
	PainPointVolume string
	CloudReadiness  string
	AutomationTools []string
	Timeline        string
	Budget          string
	Regulations     []string
	Industry        string
	CompanySize     string

	// Defaulted lists fields that were missing and filled from AnswerDefaults.
	Defaulted []string
}

// Complete reports whether every field was answered by the caller.
func (n NormalizedInput) Complete() bool {
	return len(n.Defaulted) == 0
}

func newInputValidator(vocab Vocabulary) (*validator.Validate, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("vocab", func(fl validator.FieldLevel) bool {
		return vocab.Contains(fl.Param(), fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("register vocab rule: %w", err)
	}
	if err := v.RegisterValidation("utf8", func(fl validator.FieldLevel) bool {
		return utf8.ValidString(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("register utf8 rule: %w", err)
	}
	return v, nil
}

func validateInput(v *validator.Validate, in ReadinessInput) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validate readiness input: %w", err)
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field, _, _ := strings.Cut(fe.Field(), "[")
		out = append(out, &ValidationError{
			Field:  field,
			Value:  fmt.Sprint(fe.Value()),
			Reason: reasonFor(fe),
		})
	}
	return out
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "vocab":
		return "value is not in the accepted vocabulary"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "utf8":
		return "must be valid UTF-8 text"
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
