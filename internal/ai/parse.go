package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/craftbot/internal/product"
)

type questionsPayload struct {
	Questions []struct {
		Key      string `json:"key"`
		Question string `json:"question"`
	} `json:"questions"`
}

type descriptionPayload struct {
	Description string `json:"description"`
}

// StripCodeFences removes a markdown code fence around a model reply.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseQuestions decodes a question reply. Keys outside the catalogue and
// duplicates are dropped. When fewer than five survive, the list is topped
// up from the fallback questions for name, skipping keys already asked.
func ParseQuestions(raw, name string) ([]product.Question, error) {
	var p questionsPayload
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &p); err != nil {
		return nil, fmt.Errorf("questions: bad JSON: %w", err)
	}
	seen := make(map[string]struct{}, len(p.Questions))
	out := make([]product.Question, 0, product.QuestionCount)
	for _, q := range p.Questions {
		key := strings.ToLower(strings.TrimSpace(q.Key))
		text := strings.TrimSpace(q.Question)
		if text == "" {
			continue
		}
		if _, ok := LookupSpec(key); !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, product.Question{Key: key, Text: text})
		if len(out) == product.QuestionCount {
			break
		}
	}
	for _, q := range FallbackQuestions(name) {
		if len(out) == product.QuestionCount {
			break
		}
		if _, dup := seen[q.Key]; dup {
			continue
		}
		seen[q.Key] = struct{}{}
		out = append(out, q)
	}
	if len(out) != product.QuestionCount {
		return nil, fmt.Errorf("questions: got %d valid, want %d", len(out), product.QuestionCount)
	}
	return out, nil
}

// ParseDescription decodes a description reply.
func ParseDescription(raw string) (string, error) {
	var p descriptionPayload
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &p); err != nil {
		return "", fmt.Errorf("description: bad JSON: %w", err)
	}
	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		return "", errors.New("description: empty")
	}
	return desc, nil
}
