package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	domainagg "github.com/yungbote/project-radar/internal/domain/aggregates"
)

var (
	validate *validator.Validate

	editionSlugPattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{1,2}$`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	if err := validate.RegisterValidation("edition_slug", func(fl validator.FieldLevel) bool {
		return editionSlugPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register edition_slug validation: %v", err))
	}
}

type ProjectInput struct {
	Name            string     `json:"name" validate:"required,max=200"`
	RCN             string     `json:"rcn" validate:"required,max=64"`
	Title           string     `json:"title" validate:"max=500"`
	Teaser          string     `json:"teaser" validate:"max=4000"`
	Call            string     `json:"call" validate:"max=200"`
	Type            string     `json:"type" validate:"max=100"`
	ProjectURL      string     `json:"project_url" validate:"omitempty,url"`
	FundingBodyLink string     `json:"funding_body_link" validate:"omitempty,url"`
	HubURL          string     `json:"hub_url" validate:"omitempty,url"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	Budget          float64    `json:"budget" validate:"gte=0"`
}

// ProjectUpdate carries descriptive fields only; nil leaves a field as is.
type ProjectUpdate struct {
	Name            *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Title           *string    `json:"title" validate:"omitempty,max=500"`
	Teaser          *string    `json:"teaser" validate:"omitempty,max=4000"`
	Call            *string    `json:"call" validate:"omitempty,max=200"`
	Type            *string    `json:"type" validate:"omitempty,max=100"`
	ProjectURL      *string    `json:"project_url" validate:"omitempty,url"`
	FundingBodyLink *string    `json:"funding_body_link" validate:"omitempty,url"`
	HubURL          *string    `json:"hub_url" validate:"omitempty,url"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	Budget          *float64   `json:"budget" validate:"omitempty,gte=0"`
}

type ClassificationInput struct {
	Term          string    `json:"term" validate:"required,max=100"`
	ClassifiedBy  string    `json:"classified_by" validate:"max=200"`
	ChangeSummary string    `json:"change_summary" validate:"max=2000"`
	EffectiveDate time.Time `json:"effective_date" validate:"required"`
}

type ScoreInput struct {
	MRL         int       `json:"mrl"`
	TRL         int       `json:"trl"`
	ScoredBy    string    `json:"scored_by" validate:"max=200"`
	Description string    `json:"description" validate:"max=2000"`
	ScoringDate time.Time `json:"scoring_date" validate:"required"`
}

type EditionInput struct {
	Year    int    `json:"year" validate:"required,gte=1000,lte=9999"`
	Release int    `json:"release" validate:"required,gte=1,lte=99"`
	Summary string `json:"summary" validate:"max=5000"`
}

// validateInput runs struct tags and folds field failures into one
// CodeValidation error.
func validateInput(op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domainagg.NewError(domainagg.CodeValidation, op, err.Error(), err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Field() + ": " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		parts = append(parts, msg)
	}
	return domainagg.NewError(domainagg.CodeValidation, op, strings.Join(parts, "; "), err)
}

// ValidEditionSlug reports whether s has the "YYYY-R" form.
func ValidEditionSlug(s string) bool {
	return validate.Var(s, "edition_slug") == nil
}

func validateDateRange(op string, start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return domainagg.NewError(domainagg.CodeValidation, op, "end_date: before start_date", nil)
	}
	return nil
}
