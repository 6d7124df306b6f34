package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text       string
		preSection bool
		want       FormatTag
	}{
		{"---", false, Header},
		{"***", true, Header},
		{"42", false, Header},
		{"42", true, Paragraph},
		{"THE END", false, Header},
		{"Into the Woods", false, Header},
		{"- take the sword", false, ListItem},
		{"• a lantern", false, ListItem},
		{"1. Open the door", false, ListItem},
		{"    x := 1", false, Code},
		{"> a voice whispers", false, Quote},
		{`"Halt, who goes there?"`, false, Quote},
		{"you walk on, slowly, until the road ends.", false, Paragraph},
		{"", false, Paragraph},

		{"THE DARK FORTRESS", true, Header},
		{"A Solo Adventure", true, Header},
		{"by Jane Doe", true, Paragraph},
		{"Translated by Jean Dupont", true, Paragraph},
		{"Chapter one begins with the storm", true, Subheader},
		{"   an indented dedication", true, Subheader},
		{"the rain had not stopped for three days, and the river was rising past the old stone markers on the bank.", true, Paragraph},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text, tt.preSection))
		})
	}
}

func TestCaseHelpers(t *testing.T) {
	assert.True(t, isUpper("THE END 2"))
	assert.False(t, isUpper("123"))
	assert.False(t, isUpper("The End"))

	assert.True(t, isTitle("The Dark Fortress"))
	assert.True(t, isTitle("Into-The Woods"))
	assert.False(t, isTitle("The dark fortress"))
	assert.False(t, isTitle("THE END"))
	assert.False(t, isTitle("42"))
}

func TestFormatTagString(t *testing.T) {
	assert.Equal(t, "list_item", ListItem.String())
	assert.Equal(t, "unknown", FormatTag(99).String())
}
