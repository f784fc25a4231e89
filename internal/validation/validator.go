// Package validation checks analysis requests before they reach the scorer.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/utils"
)

type analysisInput struct {
	Subject  string `json:"subject" validate:"required,min=1,max=200"`
	Industry string `json:"industry" validate:"required,industry"`
}

// SubjectValidator implements core.RequestValidator
type SubjectValidator struct {
	validate      *validator.Validate
	textProcessor *utils.TextProcessor
}

// NewSubjectValidator creates a validator that sanitizes subjects with textProcessor
func NewSubjectValidator(textProcessor *utils.TextProcessor) *SubjectValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("industry", func(fl validator.FieldLevel) bool {
		return core.Industry(fl.Field().String()).IsSupported()
	})

	return &SubjectValidator{
		validate:      v,
		textProcessor: textProcessor,
	}
}

// Validate sanitizes the request and checks it. The cleaned request is returned
// together with every field problem found.
func (sv *SubjectValidator) Validate(req core.AnalysisRequest) (core.AnalysisRequest, []core.FieldError) {
	in := analysisInput{
		Subject:  sv.textProcessor.SanitizeSubject(req.Subject),
		Industry: strings.ToLower(strings.TrimSpace(req.Industry)),
	}

	err := sv.validate.Struct(in)
	if err == nil {
		return core.AnalysisRequest{Subject: in.Subject, Industry: in.Industry}, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return req, []core.FieldError{{Field: "request", Message: err.Error()}}
	}

	fieldErrs := make([]core.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := message(fe)
		if req.SubjectMissing && fe.Field() == "subject" && fe.Tag() == "required" {
			msg = "Subject line is required"
		}
		fieldErrs = append(fieldErrs, core.FieldError{
			Field:   fe.Field(),
			Message: msg,
		})
	}
	return req, fieldErrs
}

// Rules describes the request contract
func (sv *SubjectValidator) Rules() core.ValidationRules {
	industries := make([]core.Industry, len(core.SupportedIndustries))
	copy(industries, core.SupportedIndustries)
	return core.ValidationRules{
		MaxSubjectLength:    core.MaxSubjectLength,
		MinSubjectLength:    core.MinSubjectLength,
		SupportedIndustries: industries,
	}
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case "subject":
		switch fe.Tag() {
		case "required":
			return "Subject line cannot be empty"
		case "min":
			return fmt.Sprintf("Subject line must be at least %d character long", core.MinSubjectLength)
		case "max":
			return fmt.Sprintf("Subject line cannot exceed %d characters", core.MaxSubjectLength)
		}
	case "industry":
		switch fe.Tag() {
		case "required":
			return "Industry is required"
		case "industry":
			return "Industry must be one of: " + industryList()
		}
	}
	return fmt.Sprintf("%s failed the %s check", fe.Field(), fe.Tag())
}

func industryList() string {
	names := make([]string, len(core.SupportedIndustries))
	for i, industry := range core.SupportedIndustries {
		names[i] = string(industry)
	}
	return strings.Join(names, ", ")
}
