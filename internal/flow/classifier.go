package flow

import (
	"strings"

	"github.com/m3rciful/craftbot/internal/product"
	"github.com/m3rciful/craftbot/internal/session"
)

// InputKind is the classifier verdict for an event.
type InputKind int

const (
	InputInvalid InputKind = iota
	InputValue
	InputSkip
	InputRestart
	InputStatus
	InputRetry
)

func (k InputKind) String() string {
	switch k {
	case InputValue:
		return "value"
	case InputSkip:
		return "skip"
	case InputRestart:
		return "restart"
	case InputStatus:
		return "status"
	case InputRetry:
		return "retry"
	default:
		return "invalid"
	}
}

// Input is a classified event. Text or Image carry the payload of a Value,
// Reason explains an Invalid.
type Input struct {
	Kind   InputKind
	Text   string
	Image  *product.ImageRef
	Reason string
}

// Invalid reasons.
const (
	ReasonImageRequired  = "image_required"
	ReasonTextRequired   = "text_required"
	ReasonEmpty          = "empty"
	ReasonUnknownCommand = "unknown_command"
	ReasonNotSkippable   = "not_skippable"
	ReasonNothingToRetry = "nothing_to_retry"
	ReasonNotANumber     = "not_a_number"
)

// Classify maps an event onto the input it represents in state st.
// It is pure and never touches the session store.
func Classify(st session.State, ev Event) Input {
	token, isToken := tokenOf(ev)
	if isToken {
		switch token {
		case "start", "restart":
			return Input{Kind: InputRestart}
		case "status":
			return Input{Kind: InputStatus}
		case "retry":
			return Input{Kind: InputRetry}
		case "skip":
			switch st.Step {
			case session.StepAwaitingName, session.StepAwaitingPrice, session.StepAwaitingSpecAnswers:
				return Input{Kind: InputSkip}
			}
			return Input{Kind: InputInvalid, Reason: ReasonNotSkippable}
		}
		return Input{Kind: InputInvalid, Reason: ReasonUnknownCommand}
	}

	switch st.Step {
	case session.StepAwaitingImage:
		if ev.Kind == EventImage && ev.Image != nil && ev.Image.FileID != "" {
			img := *ev.Image
			return Input{Kind: InputValue, Image: &img}
		}
		return Input{Kind: InputInvalid, Reason: ReasonImageRequired}

	case session.StepAwaitingName, session.StepAwaitingPrice, session.StepAwaitingSpecAnswers:
		if ev.Kind != EventText {
			return Input{Kind: InputInvalid, Reason: ReasonTextRequired}
		}
		text := strings.TrimSpace(ev.Text)
		if text == "" {
			return Input{Kind: InputInvalid, Reason: ReasonEmpty}
		}
		return Input{Kind: InputValue, Text: text}

	case session.StepGeneratingDescription, session.StepComplete:
		if ev.Kind == EventText || ev.Kind == EventImage {
			return Input{Kind: InputRetry}
		}
	}
	return Input{Kind: InputInvalid, Reason: ReasonUnknownCommand}
}

// tokenOf extracts a command or button token. Commands may carry a
// @botname suffix and trailing arguments.
func tokenOf(ev Event) (string, bool) {
	switch ev.Kind {
	case EventButton:
		return strings.ToLower(strings.TrimSpace(ev.Button)), true
	case EventText:
		text := strings.TrimSpace(ev.Text)
		if !strings.HasPrefix(text, "/") {
			return "", false
		}
		cmd := strings.Fields(text)[0][1:]
		if i := strings.IndexByte(cmd, '@'); i >= 0 {
			cmd = cmd[:i]
		}
		return strings.ToLower(cmd), true
	}
	return "", false
}
