package validator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lingoforge/authoring-service/internal/models"
)

// DraftValidator holds the submission rules checked before any network call.
// A non-empty result blocks the submit entirely.
type DraftValidator struct{}

func NewDraftValidator() *DraftValidator {
	return &DraftValidator{}
}

// ValidateForSubmit checks a draft against the rules of its question type.
func (v *DraftValidator) ValidateForSubmit(draft *models.QuestionDraft) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(draft.Text) == "" {
		errs = append(errs, *NewValidationError("question_text", "is required", draft.Text))
	}

	if draft.Position > models.MaxQuestionsPerLesson {
		errs = append(errs, *NewValidationErrorWithRule("position",
			fmt.Sprintf("lesson already holds the maximum of %d questions", models.MaxQuestionsPerLesson),
			"question_limit", draft.Position))
	}

	switch draft.Type {
	case models.MultipleChoice:
		errs = append(errs, v.validateMultipleChoice(draft)...)
	case models.TrueFalse:
		errs = append(errs, v.validateTrueFalse(draft)...)
	case models.MatchingPairs:
		errs = append(errs, v.validateMatchingPairs(draft)...)
	case models.ListenAndMatch:
		errs = append(errs, v.validateListenAndMatch(draft)...)
	default:
		errs = append(errs, *NewValidationError("question_type", "must be a valid question type", string(draft.Type)))
	}

	return errs
}

func (v *DraftValidator) validateMultipleChoice(draft *models.QuestionDraft) ValidationErrors {
	var errs ValidationErrors

	if len(draft.Options) != models.OptionCount {
		errs = append(errs, *NewValidationErrorWithRule("options",
			fmt.Sprintf("must provide exactly %d options", models.OptionCount), "option_count", len(draft.Options)))
	}
	for i, option := range draft.Options {
		if strings.TrimSpace(option) == "" {
			errs = append(errs, *NewValidationError(fmt.Sprintf("options[%d]", i), "is required", option))
		}
	}
	if strings.TrimSpace(draft.Answer) == "" {
		errs = append(errs, *NewValidationError("answer", "is required", draft.Answer))
	}

	return errs
}

func (v *DraftValidator) validateTrueFalse(draft *models.QuestionDraft) ValidationErrors {
	var errs ValidationErrors

	if draft.Answer != "True" && draft.Answer != "False" {
		errs = append(errs, *NewValidationErrorWithRule("answer",
			`must be "True" or "False"`, "true_false_answer", draft.Answer))
	}

	return errs
}

func (v *DraftValidator) validateMatchingPairs(draft *models.QuestionDraft) ValidationErrors {
	var errs ValidationErrors

	if len(draft.Pairs) == 0 {
		errs = append(errs, *NewValidationError("pairs", "must contain at least one pair", nil))
		return errs
	}
	if len(draft.Pairs) > models.MaxPairs {
		errs = append(errs, *NewValidationErrorWithRule("pairs",
			fmt.Sprintf("must hold at most %d matching pairs", models.MaxPairs), "pair_limit", len(draft.Pairs)))
	}

	for i, pair := range draft.Pairs {
		if strings.TrimSpace(pair.Right) == "" {
			errs = append(errs, *NewValidationError(fmt.Sprintf("pairs[%d].right", i), "is required", pair.Right))
		}
	}
	for i, pair := range draft.CorrectPairs {
		if strings.TrimSpace(pair.Right) == "" {
			errs = append(errs, *NewValidationError(fmt.Sprintf("correct_pairs[%d].right", i), "is required", pair.Right))
		}
	}

	if draft.LeftType == models.LeftText {
		for i, pair := range draft.Pairs {
			if strings.TrimSpace(pair.Left) == "" {
				errs = append(errs, *NewValidationError(fmt.Sprintf("pairs[%d].left", i), "is required", pair.Left))
			}
		}
		return errs
	}

	// Non-text anchors must either carry a pending file or already point at
	// an uploaded object; an incomplete anchor blocks the whole submission.
	for i, ref := range draft.PairMedia {
		if ref.IsEmpty() {
			errs = append(errs, *NewValidationErrorWithRule(fmt.Sprintf("pairs[%d].left", i),
				fmt.Sprintf("pair %d is missing its %s anchor", i, draft.LeftType), "incomplete_anchor", i))
		}
	}

	return errs
}

func (v *DraftValidator) validateListenAndMatch(draft *models.QuestionDraft) ValidationErrors {
	var errs ValidationErrors

	attached := 0
	for _, ref := range draft.OptionImages {
		if !ref.IsEmpty() {
			attached++
		}
	}
	if attached == 0 {
		errs = append(errs, *NewValidationError("options", "must attach at least one image option", nil))
	}

	if strings.TrimSpace(draft.Answer) == "" {
		errs = append(errs, *NewValidationError("answer", "is required", draft.Answer))
		return errs
	}
	index, err := strconv.Atoi(draft.Answer)
	switch {
	case err != nil || index < 0 || index >= len(draft.OptionImages):
		errs = append(errs, *NewValidationError("answer",
			fmt.Sprintf("must be an option index between 0 and %d", len(draft.OptionImages)-1), draft.Answer))
	case draft.OptionImages[index].IsEmpty():
		errs = append(errs, *NewValidationErrorWithRule("answer",
			fmt.Sprintf("option %d has no attached image", index), "unattached_option", draft.Answer))
	}

	return errs
}
