package bank

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"ranczo-quiz/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("question_type", validateQuestionType)
	_ = v.RegisterValidation("category", validateCategory)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateQuestionType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, t := range domain.QuestionTypes {
		if string(t) == value {
			return true
		}
	}
	return false
}

func validateCategory(fl validator.FieldLevel) bool {
	return domain.Category(fl.Field().String()).Valid()
}

// Validate checks struct tags and the answer rules tags cannot express:
// correct indices point at options, single-answer types have exactly one
// correct answer, true/false has two options, and ids are unique.
func Validate(questions []domain.Question) error {
	if len(questions) == 0 {
		return domain.ErrBankEmpty
	}
	var errs []error
	seen := make(map[string]struct{}, len(questions))
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			errs = append(errs, fmt.Errorf("question %d (%s): %w", i, q.ID, err))
		}
		if _, dup := seen[q.ID]; dup {
			errs = append(errs, fmt.Errorf("question %d: duplicate id %q", i, q.ID))
		}
		seen[q.ID] = struct{}{}
	}
	return errors.Join(errs...)
}

func validateQuestion(q domain.Question) error {
	if err := validate.Struct(q); err != nil {
		return err
	}
	var errs []error
	if q.Type != domain.TypeMultiple && len(q.CorrectAnswers) != 1 {
		errs = append(errs, fmt.Errorf("%s question needs exactly one correct answer, has %d", q.Type, len(q.CorrectAnswers)))
	}
	if q.Type == domain.TypeTrueFalse && len(q.Options) != 2 {
		errs = append(errs, fmt.Errorf("true_false question needs two options, has %d", len(q.Options)))
	}
	seen := make(map[int]struct{}, len(q.CorrectAnswers))
	for _, idx := range q.CorrectAnswers {
		if idx >= len(q.Options) {
			errs = append(errs, fmt.Errorf("correct answer %d out of range (%d options)", idx, len(q.Options)))
		}
		if _, dup := seen[idx]; dup {
			errs = append(errs, fmt.Errorf("correct answer %d listed twice", idx))
		}
		seen[idx] = struct{}{}
	}
	return errors.Join(errs...)
}
