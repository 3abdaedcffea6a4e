package flow

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/craftbot/internal/product"
	"github.com/m3rciful/craftbot/internal/session"
)

const (
	msgWelcome       = "Welcome! Let's list a new product.\n\nStart by sending me a photo of your product."
	msgExpired       = "Your previous session timed out, so we are starting over.\n\n"
	msgImageRequired = "Please upload a product image to get started."
	msgAskName       = "Great! I've received your product image.\n\nNow, please provide the product name. If you don't have an idea, you can skip this step."
	msgAskPrice      = "Thank you! Now please provide the product price. If you're unsure, you can skip this step."
	msgPriceInvalid  = "I couldn't read that as a price. Please send a number such as 250 or ₹1,499.50, or skip."
	msgTextRequired  = "Please reply with text, or skip this step."
	msgNotSkippable  = "The product image is required and cannot be skipped."
	msgUnknown       = "Unknown command. Available commands: /start, /restart, /status, /skip, /retry"
	msgNothingRetry  = "There is nothing to retry right now."
	msgBusy          = "I'm still working on your previous message. Please wait a moment."
	msgQuestionsFail = "I couldn't prepare the specification questions right now. Tap Retry to try again."
	msgDescribeFail  = "I couldn't generate the product description right now. Tap Retry to try again."
	msgSaveFail      = "Your listing is ready but I couldn't save it. Tap Retry to save it again, nothing is lost."
	msgTimedOut      = "That took too long. "
	msgGone          = "This session is no longer active. Send /start to begin a new listing."
)

func stepPrompt(sess session.Session) (string, []Option) {
	switch sess.State.Step {
	case session.StepAwaitingImage:
		return msgWelcome, []Option{OptionRestart}
	case session.StepAwaitingName:
		return msgAskName, []Option{OptionSkip, OptionRestart}
	case session.StepAwaitingPrice:
		return msgAskPrice, []Option{OptionSkip, OptionRestart}
	case session.StepAwaitingSpecAnswers:
		if len(sess.Questions) == 0 {
			return msgQuestionsFail, []Option{OptionRetry, OptionRestart}
		}
		k := sess.State.Question
		return fmt.Sprintf("Question %d of %d: %s", k+1, product.QuestionCount, sess.Questions[k].Text),
			[]Option{OptionSkip, OptionRestart}
	case session.StepGeneratingDescription:
		return msgDescribeFail, []Option{OptionRetry, OptionRestart}
	case session.StepComplete:
		return msgSaveFail, []Option{OptionRetry, OptionRestart}
	}
	return msgWelcome, []Option{OptionRestart}
}

func invalidText(reason string) string {
	switch reason {
	case ReasonImageRequired:
		return msgImageRequired
	case ReasonTextRequired, ReasonEmpty:
		return msgTextRequired
	case ReasonNotSkippable:
		return msgNotSkippable
	case ReasonNothingToRetry:
		return msgNothingRetry
	case ReasonNotANumber:
		return msgPriceInvalid
	}
	return msgUnknown
}

func completionText(rec product.Record) string {
	var b strings.Builder
	b.WriteString("✅ Product uploaded successfully!\n\n")
	fmt.Fprintf(&b, "Name: %s\n", valueOr(rec.Name, "not provided"))
	if rec.Price != nil {
		fmt.Fprintf(&b, "Price: ₹%s\n", product.FormatPrice(*rec.Price))
	} else {
		b.WriteString("Price: not provided\n")
	}
	fmt.Fprintf(&b, "Description: %s\n\nSpecifications:\n", rec.Description)
	answered := 0
	for _, a := range rec.Answers {
		if a.Answer == nil {
			continue
		}
		answered++
		fmt.Fprintf(&b, "  • %s: %s\n", specLabel(a.Question.Key), *a.Answer)
	}
	if answered == 0 {
		b.WriteString("  • No specifications provided\n")
	}
	return b.String()
}

func statusText(sess session.Session, idle time.Duration) string {
	var b strings.Builder
	b.WriteString("Session status\n\n")
	fmt.Fprintf(&b, "Stage: %s\n", sess.State)
	if sess.Product.Image != nil {
		b.WriteString("Image: received\n")
	} else {
		b.WriteString("Image: not yet\n")
	}
	fmt.Fprintf(&b, "Name: %s\n", valueOr(sess.Product.Name, "not set"))
	if sess.Product.Price != nil {
		fmt.Fprintf(&b, "Price: %s\n", product.FormatPrice(*sess.Product.Price))
	} else {
		b.WriteString("Price: not set\n")
	}
	fmt.Fprintf(&b, "Answers: %d of %d\n", len(sess.Product.Answers), product.QuestionCount)
	fmt.Fprintf(&b, "Remaining questions: %d\n", RemainingQuestions(sess))
	if sess.Product.Description != nil {
		b.WriteString("Description: generated\n")
	}
	fmt.Fprintf(&b, "Last interaction: %s (sessions expire after %s idle)", sess.LastActivityAt.Format(time.RFC1123), idle)
	return b.String()
}

func specLabel(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func valueOr(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return fallback
	}
	return *s
}
