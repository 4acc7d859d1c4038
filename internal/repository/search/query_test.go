package search

import (
	"strings"
	"testing"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "shoes", "shoes"},
		{"space", "red shoes", `red\ shoes`},
		{"wildcard", "a*b", `a\*b`},
		{"pipe and parens", "a|(b)", `a\|\(b\)`},
		{"quote", `say "hi"`, `say\ \"hi\"`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.input); got != tt.want {
				t.Errorf("Escape(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuildMatchQuery(t *testing.T) {
	got := BuildMatchQuery("red")
	want := "(@title:*red*)|(@description:*red*)|(@category:*red*)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildMatchQueryEscapesInput(t *testing.T) {
	got := BuildMatchQuery("a|b")
	if strings.Contains(got, "*a|b*") {
		t.Errorf("pipe not escaped: %q", got)
	}
	if !strings.Contains(got, `*a\|b*`) {
		t.Errorf("expected escaped pipe inside wildcard: %q", got)
	}
}

func TestBuildFulltextQuery(t *testing.T) {
	tests := []struct {
		name                        string
		query                       string
		fuzzy, autocomplete, phrase bool
		want                        string
	}{
		{
			name:  "no options falls back to plain terms",
			query: "red shoes",
			want:  "(@title|description|category:(red shoes))",
		},
		{
			name:   "phrase only",
			query:  "red shoes",
			phrase: true,
			want:   `(@title|description|category:"red shoes")=>{$weight:3;}`,
		},
		{
			name:  "fuzzy only",
			query: "red shoes",
			fuzzy: true,
			want:  "(@title|description|category:(%%red%% %%shoes%%))=>{$weight:1;}",
		},
		{
			name:         "autocomplete prefixes the last term",
			query:        "red sho",
			autocomplete: true,
			want:         "(@title|description|category:(red sho*))=>{$weight:2;}",
		},
		{
			name:         "all clauses joined with OR",
			query:        "red shoes",
			fuzzy:        true,
			autocomplete: true,
			phrase:       true,
			want: `(@title|description|category:"red shoes")=>{$weight:3;}` +
				"|(@title|description|category:(%%red%% %%shoes%%))=>{$weight:1;}" +
				"|(@title|description|category:(red shoes*))=>{$weight:2;}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildFulltextQuery(tt.query, tt.fuzzy, tt.autocomplete, tt.phrase)
			if got != tt.want {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestBuildFulltextQueryEscapesTokens(t *testing.T) {
	got := BuildFulltextQuery("a*b", true, false, false)
	if !strings.Contains(got, `%%a\*b%%`) {
		t.Errorf("token not escaped inside fuzzy clause: %q", got)
	}
}
