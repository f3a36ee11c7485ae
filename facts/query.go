package facts

import (
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// operators, longest first so "=" never matches inside ">=" or "!=".
var operators = []string{"!=", ">=", "<=", "=", ">", "<"}

// compiledPattern caches one regex compilation outcome. A pattern that
// failed to compile is cached too, so repeated keystrokes on an invalid
// fragment do not recompile on every row.
type compiledPattern struct {
	re *regexp.Regexp
	ok bool
}

// regexCache memoizes case-insensitive compilations across match calls.
// Interactive filtering re-evaluates the same term against tens of
// thousands of rows, so compilation must happen once per term, not per row.
// The cache is safe for concurrent use, which keeps Matches callable from
// the background filter worker.
var regexCache, _ = lru.New[string, compiledPattern](512)

func compilePattern(term string) compiledPattern {
	if cached, ok := regexCache.Get(term); ok {
		return cached
	}
	re, err := regexp.Compile("(?i)" + term)
	cp := compiledPattern{re: re, ok: err == nil}
	regexCache.Add(term, cp)
	return cp
}

// Matches evaluates one filter term against one row. The term grammar, in
// precedence order:
//
//  1. "a|b" — OR across sub-terms, each evaluated by the rules below.
//  2. "key<op>value" with op in != >= <= = > < — key suffix-matches the
//     fact path (or targets the host when the key is host/hostname).
//  3. "\"text\"" — exact (case-insensitive) match on host, path, or value.
//  4. anything else — case-insensitive regex over host, path, value and
//     modified timestamp; invalid regexes degrade to substring containment.
//
// Matches never returns an error: malformed input narrows to "no match" or
// a literal search, so a half-typed query can never break the view.
func Matches(row FactRow, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	if strings.Contains(term, "|") {
		for _, sub := range strings.Split(term, "|") {
			if sub = strings.TrimSpace(sub); sub == "" {
				continue
			}
			if matchSingle(row, sub) {
				return true
			}
		}
		return false
	}
	return matchSingle(row, term)
}

func matchSingle(row FactRow, term string) bool {
	if key, op, value, ok := splitOperator(term); ok {
		return matchComparison(row, key, op, value)
	}
	if inner, ok := unwrapExact(term); ok {
		return equalsFold(inner, row.Host) ||
			equalsFold(inner, row.FactPath) ||
			equalsFold(inner, row.Value.ComparableString())
	}
	return matchFreeText(row, term)
}

// splitOperator finds the first operator (checked longest-first) with a
// non-empty key on its left. Terms with no operator, or nothing before it,
// fall through to the free-text rules.
func splitOperator(term string) (key, op, value string, ok bool) {
	for _, candidate := range operators {
		idx := strings.Index(term, candidate)
		if idx <= 0 {
			continue
		}
		key = strings.TrimSpace(term[:idx])
		if key == "" {
			continue
		}
		value = strings.TrimSpace(term[idx+len(candidate):])
		return key, candidate, unquote(value), true
	}
	return "", "", "", false
}

// unquote strips a single layer of matching double or single quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// unwrapExact recognizes a term wrapped in one pair of double quotes.
func unwrapExact(term string) (string, bool) {
	if len(term) > 2 && term[0] == '"' && term[len(term)-1] == '"' {
		return term[1 : len(term)-1], true
	}
	return "", false
}

func matchComparison(row FactRow, key, op, value string) bool {
	lowKey := strings.ToLower(key)

	// host= / hostname= target the host column directly. Relational
	// operators make no sense against a hostname, so they never match.
	if lowKey == "host" || lowKey == "hostname" {
		switch op {
		case "=":
			return equalsFold(row.Host, value)
		case "!=":
			return !equalsFold(row.Host, value)
		default:
			return false
		}
	}

	// The key is a fact-path suffix so users can write the short leaf name
	// ("vcpus>4") instead of the full dotted path.
	if !strings.HasSuffix(strings.ToLower(row.FactPath), lowKey) {
		return false
	}

	switch op {
	case "=":
		return equalsFold(row.Value.ComparableString(), value)
	case "!=":
		return !equalsFold(row.Value.ComparableString(), value)
	}

	rowNum, numOK := row.Value.ComparableNumber()
	if !numOK {
		return false
	}
	want, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	switch op {
	case ">":
		return rowNum > want
	case "<":
		return rowNum < want
	case ">=":
		return rowNum >= want
	case "<=":
		return rowNum <= want
	}
	return false
}

func matchFreeText(row FactRow, term string) bool {
	fields := [4]string{row.Host, row.FactPath, row.Value.ComparableString(), row.Modified}

	if cp := compilePattern(term); cp.ok {
		for _, f := range fields {
			if f == "" {
				continue
			}
			if cp.re.MatchString(f) {
				return true
			}
		}
		return false
	}

	low := strings.ToLower(term)
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.Contains(strings.ToLower(f), low) {
			return true
		}
	}
	return false
}

func equalsFold(a, b string) bool { return strings.EqualFold(a, b) }
