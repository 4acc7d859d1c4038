package search

import (
	"fmt"
	"strings"
)

// textFields scopes full-text clauses to the indexed text fields.
const textFields = "@title|description|category"

// ftSpecial are the query-syntax metacharacters that must be escaped when
// user input is interpolated into a raw FT query.
const ftSpecial = `,.<>{}[]"':;!@#$%^&*()-+=~|/\ `

// Escape backslash-escapes FT query metacharacters in a user-supplied term.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if strings.ContainsRune(ftSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapePhrase escapes only what breaks a quoted phrase.
func escapePhrase(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// tokenize splits a query on whitespace and escapes each token.
func tokenize(query string) []string {
	raw := strings.Fields(query)
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		tokens = append(tokens, Escape(t))
	}
	return tokens
}

// BuildMatchQuery builds the unscored substring query: the escaped input
// wrapped in infix wildcards, tried against each text field. Results come
// back in store order.
func BuildMatchQuery(query string) string {
	term := "*" + Escape(query) + "*"
	return fmt.Sprintf("(@title:%s)|(@description:%s)|(@category:%s)", term, term, term)
}

// BuildFulltextQuery assembles the full-text query from independently
// toggleable sub-clauses combined with OR semantics:
//
//	phrase       exact phrase match, weight 3
//	fuzzy        per-term match within Levenshtein distance 2, weight 1
//	autocomplete prefix match on the last term, weight 2
//
// With no options set it degrades to a plain term query.
func BuildFulltextQuery(query string, fuzzy, autocomplete, phrase bool) string {
	tokens := tokenize(query)

	var clauses []string

	if phrase {
		clauses = append(clauses,
			fmt.Sprintf(`(%s:"%s")=>{$weight:3;}`, textFields, escapePhrase(query)))
	}

	if fuzzy && len(tokens) > 0 {
		terms := make([]string, len(tokens))
		for i, t := range tokens {
			terms[i] = "%%" + t + "%%"
		}
		clauses = append(clauses,
			fmt.Sprintf("(%s:(%s))=>{$weight:1;}", textFields, strings.Join(terms, " ")))
	}

	if autocomplete && len(tokens) > 0 {
		terms := make([]string, len(tokens))
		copy(terms, tokens)
		terms[len(terms)-1] += "*"
		clauses = append(clauses,
			fmt.Sprintf("(%s:(%s))=>{$weight:2;}", textFields, strings.Join(terms, " ")))
	}

	if len(clauses) == 0 {
		return fmt.Sprintf("(%s:(%s))", textFields, strings.Join(tokens, " "))
	}

	return strings.Join(clauses, "|")
}
