package redis

import (
	"fmt"
	"strings"

	"github.com/helpdex/helpdex/internal/db"
)

// Index field groups per text tier. Exact and fuzzy stay close to the
// document title and body; broad also consults the description.
const (
	narrowFields = "@name|content"
	broadFields  = "@name|description|content"
)

// minFuzzyLen is the shortest token worth a Levenshtein wrap. Shorter
// tokens match exactly inside the fuzzy tier.
const minFuzzyLen = 3

// buildTextQuery renders the FT.SEARCH query string for one tier.
func buildTextQuery(q *db.TextQuery) (string, error) {
	var match string
	switch q.Kind {
	case db.TextExact:
		match = fmt.Sprintf(`%s:("%s")`, narrowFields, escapePhrase(q.Terms))
	case db.TextFuzzy:
		match = fmt.Sprintf("%s:(%s)", narrowFields, fuzzyTerms(q.Terms))
	case db.TextBroad:
		match = fmt.Sprintf("%s:(%s)", broadFields, escapeQuery(q.Terms))
	default:
		return "", fmt.Errorf("unknown text kind %q", q.Kind)
	}

	if filter := categoryFilter(q.Categories); filter != "" {
		return filter + " " + match, nil
	}
	return match, nil
}

// fuzzyTerms wraps each token in Levenshtein markers. Tokens too short
// for a meaningful edit distance are left as exact terms.
func fuzzyTerms(terms string) string {
	tokens := strings.Fields(terms)
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		escaped := escapeQuery(tok)
		if len([]rune(tok)) < minFuzzyLen {
			parts = append(parts, escaped)
			continue
		}
		parts = append(parts, "%"+escaped+"%")
	}
	return strings.Join(parts, " ")
}

// categoryFilter renders the hard TAG filter; multiple categories OR
// inside one clause.
func categoryFilter(categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	escaped := make([]string, 0, len(categories))
	for _, c := range categories {
		escaped = append(escaped, tagEscaper.Replace(c))
	}
	return fmt.Sprintf("@category:{%s}", strings.Join(escaped, "|"))
}

// knnQuery renders the KNN part of a vector search, with the category
// filter as pre-filter when present.
func knnQuery(k int, categories []string) string {
	knn := fmt.Sprintf("[KNN %d @embedding $BLOB]", k)
	if filter := categoryFilter(categories); filter != "" {
		return fmt.Sprintf("(%s)=>%s", filter, knn)
	}
	return "*=>" + knn
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)

// escapePhrase escapes only what breaks a quoted phrase.
var phraseEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
)

func escapePhrase(s string) string {
	return phraseEscaper.Replace(s)
}
