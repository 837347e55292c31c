package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lingoforge/authoring-service/internal/models"
)

// Validator combines struct-tag validation with the draft submission rules.
type Validator struct {
	structValidator *validator.Validate
	draftValidator  *DraftValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		draftValidator:  NewDraftValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Draft returns the draft validator
func (v *Validator) Draft() *DraftValidator {
	return v.draftValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validateQuestionType)
	validate.RegisterValidation("left_media_type", validateLeftMediaType)
	validate.RegisterValidation("true_false_answer", validateTrueFalseAnswer)

	// Report json field names in validation errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.MultipleChoice,
		models.TrueFalse,
		models.MatchingPairs,
		models.ListenAndMatch,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateLeftMediaType(fl validator.FieldLevel) bool {
	validTypes := []models.LeftMediaType{
		models.LeftText,
		models.LeftImage,
		models.LeftAudio,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateTrueFalseAnswer(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "", "True", "False":
		return true
	}
	return false
}
