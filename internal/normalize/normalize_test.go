package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Simple Title", "simple-title"},
		{"Title!@#$%^&*()Special", "titlespecial"},
		{"Multiple    Spaces", "multiple-spaces"},
		{"  --Leading and trailing--  ", "leading-and-trailing"},
		{"Mixed - separators -- here", "mixed-separators-here"},
		{"snake_case stays", "snake_case-stays"},
		{"Crème Brûlée 101", "crème-brûlée-101"},
		{"Tabs\tand\nnewlines", "tabs-and-newlines"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.title))
		})
	}
}

func TestSlug_Idempotent(t *testing.T) {
	for _, title := range []string{"Simple Title", "How to Train Your Dragon", "a_b c-d"} {
		once := Slug(title)
		assert.Equal(t, once, Slug(once), "Slug(Slug(%q))", title)
	}
}

func TestTags(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{
			name: "lowercases and hyphenates",
			raw:  []string{"Python", "Machine Learning", "API Design"},
			want: []string{"python", "machine-learning", "api-design"},
		},
		{
			name: "drops case-insensitive duplicates keeping first",
			raw:  []string{"python", "Python", "PYTHON"},
			want: []string{"python"},
		},
		{
			name: "drops blanks and trims",
			raw:  []string{"", "   ", " go ", "\t"},
			want: []string{"go"},
		},
		{
			name: "collapses whitespace runs",
			raw:  []string{"deep    learning", "deep learning"},
			want: []string{"deep-learning"},
		},
		{
			name: "preserves first-occurrence order",
			raw:  []string{"b", "a", "B", "c", "a"},
			want: []string{"b", "a", "c"},
		},
		{
			name: "nil input gives empty slice",
			raw:  nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tags(tt.raw)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTag(t *testing.T) {
	assert.Equal(t, "machine-learning", Tag("  Machine Learning "))
	assert.Equal(t, "", Tag("   "))
}
