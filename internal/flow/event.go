package flow

import (
	"github.com/m3rciful/craftbot/internal/product"
	"github.com/m3rciful/craftbot/internal/session"
)

// EventKind tells what the transport received.
type EventKind string

const (
	EventText   EventKind = "text"
	EventImage  EventKind = "image"
	EventButton EventKind = "button"
)

// Button payloads understood by the classifier.
const (
	ButtonSkip    = "skip"
	ButtonRestart = "restart"
	ButtonRetry   = "retry"
	ButtonStatus  = "status"
)

// Event is one inbound message from a seller.
type Event struct {
	UserID   int64
	UserName string
	Kind     EventKind
	Text     string
	Image    *product.ImageRef
	Button   string
}

// InstructionKind tells the transport how to present an instruction.
type InstructionKind string

const (
	InstructionPrompt   InstructionKind = "prompt"
	InstructionRetry    InstructionKind = "retry"
	InstructionBusy     InstructionKind = "busy"
	InstructionFailure  InstructionKind = "failure"
	InstructionStatus   InstructionKind = "status"
	InstructionComplete InstructionKind = "complete"
)

// Option is an affordance the transport may render next to the text.
type Option string

const (
	OptionSkip    Option = "skip"
	OptionRestart Option = "restart"
	OptionRetry   Option = "retry"
)

// Instruction is the single outbound reply produced for an event.
type Instruction struct {
	UserID  int64
	Kind    InstructionKind
	Text    string
	Options []Option
	State   session.State
	// Record is set on completion and on a failed save.
	Record *product.Record
}

// Has reports whether the option is offered.
func (i Instruction) Has(o Option) bool {
	for _, v := range i.Options {
		if v == o {
			return true
		}
	}
	return false
}
