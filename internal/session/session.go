// Package session keeps the in-memory conversation state of every seller.
//
// Sessions are ephemeral: they live only in process memory and are lost on
// restart. Callers always receive copies; the store owns the originals.
package session

import (
	"fmt"
	"time"

	"github.com/m3rciful/craftbot/internal/product"
)

// Step is a top-level state of the listing flow.
type Step string

const (
	StepAwaitingImage         Step = "AWAITING_IMAGE"
	StepAwaitingName          Step = "AWAITING_NAME"
	StepAwaitingPrice         Step = "AWAITING_PRICE"
	StepAwaitingSpecAnswers   Step = "AWAITING_SPEC_ANSWERS"
	StepGeneratingDescription Step = "GENERATING_DESCRIPTION"
	StepComplete              Step = "COMPLETE"
)

// State is the flow position. Question is meaningful only while awaiting
// specification answers and counts the answers already recorded.
type State struct {
	Step     Step
	Question int
}

func (s State) String() string {
	if s.Step == StepAwaitingSpecAnswers {
		return fmt.Sprintf("%s(%d)", s.Step, s.Question)
	}
	return string(s.Step)
}

// Initial is the state of a fresh session.
func Initial() State {
	return State{Step: StepAwaitingImage}
}

// Meta carries seller details captured when the session is created.
type Meta struct {
	SellerName string
}

// Session is one seller's in-progress listing.
type Session struct {
	ID             string
	UserID         int64
	Meta           Meta
	State          State
	Product        product.Draft
	Questions      []product.Question
	Saved          bool
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// Clone returns a deep copy so callers can mutate it without touching the store.
func (s Session) Clone() Session {
	out := s
	out.Product = s.Product.Clone()
	if s.Questions != nil {
		out.Questions = append([]product.Question(nil), s.Questions...)
	}
	return out
}

// Record assembles the persistable listing from a completed session.
func (s Session) Record() product.Record {
	rec := product.Record{
		SessionID:  s.ID,
		SellerID:   s.UserID,
		SellerName: s.Meta.SellerName,
		Answers:    s.Product.Clone().Answers,
	}
	d := s.Product.Clone()
	if d.Image != nil {
		rec.Image = *d.Image
	}
	rec.Name = d.Name
	rec.Price = d.Price
	if d.Description != nil {
		rec.Description = *d.Description
	}
	return rec
}
