package extract

import (
	"regexp"
	"strings"
)

// Rule inspects text and returns its captures when it matches.
type Rule struct {
	Name  string
	Match func(text string) ([]string, bool)
}

// cascade is an ordered list of rules; the first match wins.
type cascade []Rule

func (c cascade) resolve(text string) ([]string, bool) {
	for _, r := range c {
		if caps, ok := r.Match(text); ok {
			return caps, true
		}
	}
	return nil, false
}

// pattern builds a rule from a case-insensitive expression; the captures are
// the expression's submatches, trimmed.
func pattern(name, expr string) Rule {
	re := regexp.MustCompile(`(?i)` + expr)
	return Rule{Name: name, Match: func(text string) ([]string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return nil, false
		}
		caps := make([]string, len(m)-1)
		for i, s := range m[1:] {
			caps[i] = strings.TrimSpace(s)
		}
		return caps, true
	}}
}

// accept wraps a rule so that a match only counts when ok approves its first
// capture. A rejected match does not retry later occurrences.
func accept(r Rule, ok func(string) bool) Rule {
	inner := r.Match
	r.Match = func(text string) ([]string, bool) {
		caps, matched := inner(text)
		if !matched || len(caps) == 0 || !ok(caps[0]) {
			return nil, false
		}
		return caps, true
	}
	return r
}

// onlyDigits extracts decimal digits from a string.
func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// trimZeros strips leading zeros, keeping a single "0" for all-zero input.
func trimZeros(s string) string {
	if t := strings.TrimLeft(s, "0"); t != "" {
		return t
	}
	if s == "" {
		return ""
	}
	return "0"
}

// cuitDigits removes the hyphens of a CUIT.
func cuitDigits(s string) string { return strings.ReplaceAll(s, "-", "") }
