// Package normalize provides utilities for normalizing and sanitizing user input.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any non-alphanumeric character.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// Matches runs of whitespace, including newlines and tabs.
	whitespace = regexp.MustCompile(`\s+`)
)

// foldCase is not safe for concurrent use, so each call gets its own caser.
func foldCase(s string) string {
	return cases.Fold().String(s)
}

// Title cleans a workspace, list or card title: NFC composed, control
// characters removed, whitespace collapsed and trimmed.
// "  Sprint\t 12 " -> "Sprint 12".
func Title(s string) string {
	s = norm.NFC.String(s)
	s = sanitizeString(s)
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Text cleans free-form text such as card descriptions. Newlines are kept.
func Text(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// Email returns the canonical lookup form of an email address.
// "  Ada@Example.COM " -> "ada@example.com".
func Email(s string) string {
	return foldCase(norm.NFC.String(strings.TrimSpace(s)))
}

// Label converts a label to a compact slug.
// "High Priority" -> "high-priority".
// "Café" -> "cafe".
func Label(s string) string {
	// Decompose accented characters so the base letter survives.
	s = norm.NFKD.String(s)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Labels normalizes each label, dropping empties and duplicates while
// keeping first-seen order.
func Labels(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, l := range raw {
		slug := Label(l)
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	return out
}

// sanitizeString removes control characters.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			return -1
		}
		return r
	}, s)
}
