// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives machine-safe identifiers from display names: URL-style
// slugs used as category keys and camel-case variable names.
package slug

import (
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, or space.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// wordBreak matches every run of characters that separates two words
	// of a variable name.
	wordBreak = regexp.MustCompile(`[^a-z0-9]+`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, " ", "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// VariableName creates a lower camel case identifier from the given string,
// suitable for programmatic references to a category.
// Example: "Sports & Outdoors 2026" → "sportsOutdoors2026"
//
// Only ASCII letters and digits survive. A result that would start with a
// digit is prefixed with "c".
func VariableName(s string) string {
	words := strings.Fields(wordBreak.ReplaceAllString(strings.ToLower(s), " "))
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(w)
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]))
		b.WriteString(w[1:])
	}

	result := b.String()
	if result[0] >= '0' && result[0] <= '9' {
		result = "c" + result
	}
	return result
}
