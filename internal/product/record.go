// Package product holds the listing record collected by the upload flow and
// its Postgres persistence.
package product

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// QuestionCount is the number of specification questions asked per listing.
const QuestionCount = 5

// ImageRef points at a product photo stored by the messaging transport.
type ImageRef struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id,omitempty"`
	MIME         string `json:"mime,omitempty"`
}

// Question is one generated specification question. Key names an entry of
// the specification catalogue (e.g. "material").
type Question struct {
	Key  string `json:"key"`
	Text string `json:"question"`
}

// Answer pairs a question with the seller's answer; nil Answer means skipped.
type Answer struct {
	Question Question `json:"question"`
	Answer   *string  `json:"answer"`
}

// Draft is the partially filled product carried by a session.
type Draft struct {
	Image       *ImageRef
	Name        *string
	Price       *float64
	Answers     []Answer
	Description *string
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	out := Draft{}
	if d.Image != nil {
		img := *d.Image
		out.Image = &img
	}
	out.Name = cloneString(d.Name)
	if d.Price != nil {
		p := *d.Price
		out.Price = &p
	}
	if d.Answers != nil {
		out.Answers = make([]Answer, len(d.Answers))
		for i, a := range d.Answers {
			out.Answers[i] = Answer{Question: a.Question, Answer: cloneString(a.Answer)}
		}
	}
	out.Description = cloneString(d.Description)
	return out
}

// Context is what the question generator knows about the product.
type Context struct {
	Name  string
	Price *float64
	Image *ImageRef
}

// DisplayName returns the product name or a neutral placeholder when skipped.
func (c Context) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return "product"
}

// Record is the finished listing handed to persistence.
type Record struct {
	SessionID   string   `json:"session_id"`
	SellerID    int64    `json:"seller_id"`
	SellerName  string   `json:"seller_name"`
	Image       ImageRef `json:"image"`
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Answers     []Answer `json:"answers"`
	Description string   `json:"description"`
}

// ContextOf builds the generator context from a draft.
func ContextOf(d Draft) Context {
	c := Context{Price: d.Price, Image: d.Image}
	if d.Name != nil {
		c.Name = *d.Name
	}
	return c
}

var (
	currencyRe  = regexp.MustCompile(`(?i)^(rs\.?|inr|usd|eur|₹|\$|€|£)\s*`)
	currencySfx = regexp.MustCompile(`(?i)\s*(rs\.?|inr|usd|eur|₹|\$|€|£|/-)$`)
	decimalRe   = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// MaxPrice is the largest amount the products.price column (NUMERIC(12,2)) holds.
const MaxPrice = 9999999999.99

// ParsePrice converts seller input into a non-negative amount rounded to two
// decimals. Currency markers and thousands separators are tolerated.
func ParsePrice(input string) (float64, error) {
	s := strings.TrimSpace(input)
	s = currencyRe.ReplaceAllString(s, "")
	s = currencySfx.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, fmt.Errorf("price %q: empty", input)
	}
	// Plain decimals only: ParseFloat would also take hex, exponents and
	// underscores. A leading '-' fails here too.
	if !decimalRe.MatchString(s) {
		return 0, fmt.Errorf("price %q: not a number", input)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("price %q: not a number", input)
	}
	v = math.Round(v*100) / 100
	if v > MaxPrice {
		return 0, fmt.Errorf("price %q: above %s", input, FormatPrice(MaxPrice))
	}
	return v, nil
}

// FormatPrice renders a price with two decimals.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
