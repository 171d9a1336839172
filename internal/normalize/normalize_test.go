package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases and trims",
			input: "  Ramesh Kumar  ",
			want:  "ramesh kumar",
		},
		{
			name:  "strips leading honorific",
			input: "Shri Ramesh Kumar",
			want:  "ramesh kumar",
		},
		{
			name:  "strips smt honorific",
			input: "Smt Sunita Devi",
			want:  "sunita devi",
		},
		{
			name:  "keeps bare honorific with nothing after it",
			input: "Shri",
			want:  "shri",
		},
		{
			name:  "honorific with punctuation is not stripped as a title",
			input: "Shri. Ramesh",
			want:  "shri ramesh",
		},
		{
			name:  "strips only one honorific",
			input: "smt shri sunita",
			want:  "shri sunita",
		},
		{
			name:  "devanagari honorific",
			input: "श्री रमेश कुमार",
			want:  "रमेश कुमार",
		},
		{
			name:  "devanagari name passes through",
			input: "सुनीता देवी",
			want:  "सुनीता देवी",
		},
		{
			name:  "removes punctuation",
			input: "Ramesh, Kumar (S/O Mohan)",
			want:  "ramesh kumar so mohan",
		},
		{
			name:  "collapses whitespace",
			input: "ramesh   \t kumar",
			want:  "ramesh kumar",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "whitespace only",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.input))
		})
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "separator and zero padding collapse",
			input: "P-007",
			want:  "p7",
		},
		{
			name:  "bare identifier",
			input: "p7",
			want:  "p7",
		},
		{
			name:  "slash separator",
			input: "KH/123",
			want:  "kh123",
		},
		{
			name:  "dot and backslash separators",
			input: `12.3\4`,
			want:  "1234",
		},
		{
			name:  "leading zeros stripped per digit token",
			input: "007 042",
			want:  "742",
		},
		{
			name:  "all zeros become single zero",
			input: "000",
			want:  "0",
		},
		{
			name:  "mixed token keeps digits intact",
			input: "plot007x",
			want:  "plot007x",
		},
		{
			name:  "whitespace stripped",
			input: "  kh 12  ",
			want:  "kh12",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Identifier(tt.input))
		})
	}
}

func TestNameIdempotent(t *testing.T) {
	inputs := []string{
		"Shri Ramesh Kumar",
		"श्रीमती सुनीता देवी",
		"Dr A P Sharma",
		"ramesh kumar",
		"",
	}
	for _, in := range inputs {
		once := Name(in)
		assert.Equal(t, once, Name(once), "Name not idempotent for %q", in)
	}
}

func TestIdentifierIdempotent(t *testing.T) {
	inputs := []string{"P-007", "KH/123", "007 042", "plot007x", ""}
	for _, in := range inputs {
		once := Identifier(in)
		assert.Equal(t, once, Identifier(once), "Identifier not idempotent for %q", in)
	}
}
