package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/m3rciful/craftbot/internal/product"
)

var fallbackQuestions = []struct {
	key    string
	format string
}{
	{"material", "What is the primary material of your %s?"},
	{"colour", "What is the main color of your %s?"},
	{"craft_style", "What traditional craft technique was used for this %s?"},
	{"occasion", "What occasions is this %s suitable for?"},
	{"care_instructions", "How should this %s be maintained?"},
}

// Static answers without a model. It is used when no Gemini key is
// configured and for tests.
type Static struct{}

// GenerateQuestions returns the fallback question set for the product.
func (Static) GenerateQuestions(_ context.Context, pc product.Context) ([]product.Question, error) {
	return FallbackQuestions(pc.DisplayName()), nil
}

// GenerateDescription composes a plain description from the collected answers.
func (Static) GenerateDescription(_ context.Context, rec product.Record) (string, error) {
	name := "product"
	if rec.Name != nil && strings.TrimSpace(*rec.Name) != "" {
		name = strings.TrimSpace(*rec.Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Premium quality %s with excellent craftsmanship and attention to detail.", name)

	var details []string
	for _, a := range rec.Answers {
		if a.Answer == nil || strings.TrimSpace(*a.Answer) == "" {
			continue
		}
		details = append(details, fmt.Sprintf("%s: %s", strings.ReplaceAll(a.Question.Key, "_", " "), strings.TrimSpace(*a.Answer)))
	}
	if len(details) > 0 {
		b.WriteString(" Details: ")
		b.WriteString(strings.Join(details, "; "))
		b.WriteString(".")
	}
	return b.String(), nil
}

// FallbackQuestions builds the default five questions for a product name.
func FallbackQuestions(name string) []product.Question {
	out := make([]product.Question, 0, len(fallbackQuestions))
	for _, q := range fallbackQuestions {
		out = append(out, product.Question{Key: q.key, Text: fmt.Sprintf(q.format, name)})
	}
	return out
}
