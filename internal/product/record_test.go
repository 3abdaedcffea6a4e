package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	ok := []struct {
		in   string
		want float64
	}{
		{"25.50", 25.50},
		{"250", 250},
		{"₹1,499.50", 1499.50},
		{"Rs. 300", 300},
		{"rs 300", 300},
		{"INR 1 200", 1200},
		{"$19.999", 20.00},
		{"450/-", 450},
		{"0", 0},
		{"  75 inr ", 75},
		{"9999999999.99", MaxPrice},
		{"0.5", 0.5},
	}
	for _, tt := range ok {
		got, err := ParsePrice(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}

	bad := []string{
		"free", "", "₹", "-5", "-0", "NaN", "Inf", "12abc",
		// Go float literal forms.
		"0x1p3", "1_000", "1e3", ".5", "5.",
		// Out of the column's range.
		"99999999999", "1e15", "9999999999.999",
	}
	for _, in := range bad {
		_, err := ParsePrice(in)
		assert.Error(t, err, in)
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "25.50", FormatPrice(25.5))
}

func TestDraftCloneIsDeep(t *testing.T) {
	name := "vase"
	ans := "clay"
	d := Draft{
		Image:   &ImageRef{FileID: "a"},
		Name:    &name,
		Answers: []Answer{{Question: Question{Key: "material"}, Answer: &ans}},
	}
	c := d.Clone()
	*c.Name = "jar"
	c.Image.FileID = "b"
	*c.Answers[0].Answer = "wood"
	c.Answers = append(c.Answers, Answer{})

	assert.Equal(t, "vase", *d.Name)
	assert.Equal(t, "a", d.Image.FileID)
	assert.Equal(t, "clay", *d.Answers[0].Answer)
	assert.Len(t, d.Answers, 1)
}

func TestContextDisplayName(t *testing.T) {
	assert.Equal(t, "product", ContextOf(Draft{}).DisplayName())
	name := " Shawl "
	assert.Equal(t, "Shawl", ContextOf(Draft{Name: &name}).DisplayName())
}
