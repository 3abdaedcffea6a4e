package flow

import (
	"errors"
	"fmt"

	"github.com/m3rciful/craftbot/internal/product"
	"github.com/m3rciful/craftbot/internal/session"
)

// Advance applies a Value or Skip input to the session and moves it to the
// next state. The session is left untouched when the input is rejected.
func Advance(sess *session.Session, in Input) error {
	if in.Kind != InputValue && in.Kind != InputSkip {
		return newError(KindInvalidInput, "advance", nil)
	}

	switch sess.State.Step {
	case session.StepAwaitingImage:
		if in.Kind != InputValue || in.Image == nil {
			return newError(KindInvalidInput, "advance", errReason(ReasonImageRequired))
		}
		img := *in.Image
		sess.Product.Image = &img
		sess.State = session.State{Step: session.StepAwaitingName}

	case session.StepAwaitingName:
		if in.Kind == InputValue {
			name := in.Text
			sess.Product.Name = &name
		}
		sess.State = session.State{Step: session.StepAwaitingPrice}

	case session.StepAwaitingPrice:
		if in.Kind == InputValue {
			price, err := product.ParsePrice(in.Text)
			if err != nil {
				return newError(KindInvalidInput, "advance", fmt.Errorf("%w: %v", errReason(ReasonNotANumber), err))
			}
			sess.Product.Price = &price
		}
		sess.State = session.State{Step: session.StepAwaitingSpecAnswers}

	case session.StepAwaitingSpecAnswers:
		k := sess.State.Question
		if k >= len(sess.Questions) {
			return newError(KindInvalidInput, "advance", errReason(ReasonNothingToRetry))
		}
		ans := product.Answer{Question: sess.Questions[k]}
		if in.Kind == InputValue {
			text := in.Text
			ans.Answer = &text
		}
		sess.Product.Answers = append(sess.Product.Answers, ans)
		k++
		if k >= product.QuestionCount {
			sess.State = session.State{Step: session.StepGeneratingDescription}
		} else {
			sess.State = session.State{Step: session.StepAwaitingSpecAnswers, Question: k}
		}

	default:
		return newError(KindInvalidInput, "advance", errReason(ReasonNothingToRetry))
	}
	return nil
}

// NeedsQuestions reports whether the spec phase is blocked on question generation.
func NeedsQuestions(sess session.Session) bool {
	return sess.State.Step == session.StepAwaitingSpecAnswers && len(sess.Questions) == 0
}

// Retryable reports whether a Retry input has something to repeat in this session.
func Retryable(sess session.Session) bool {
	switch sess.State.Step {
	case session.StepGeneratingDescription, session.StepComplete:
		return true
	}
	return NeedsQuestions(sess)
}

// RemainingQuestions counts specification questions still to be answered.
func RemainingQuestions(sess session.Session) int {
	switch sess.State.Step {
	case session.StepAwaitingSpecAnswers:
		return product.QuestionCount - sess.State.Question
	case session.StepGeneratingDescription, session.StepComplete:
		return 0
	}
	return product.QuestionCount
}

type errReason string

func (r errReason) Error() string { return string(r) }

// reasonOf returns the invalid-input reason carried by err, if any.
func reasonOf(err error) string {
	var r errReason
	if errors.As(err, &r) {
		return string(r)
	}
	return ""
}
