// Package project resolves which project a piece of session content
// belongs to when the caller does not say.
package project

import (
	"regexp"
	"strings"
)

// DefaultName is used when nothing identifies the project.
const DefaultName = "default"

// headerPattern matches an explicit project header inside the note itself,
// e.g. "PROJECT: billing" or "PROJEKT: abrechnung".
var headerPattern = regexp.MustCompile(`(?im)^\s*(?:PROJECT|PROJEKT)\s*:\s*(\S+)\s*$`)

// Detect resolves the project name: an explicit value wins, then a
// PROJECT header inside the content, then the default.
func Detect(explicit, content string) string {
	if name := strings.TrimSpace(explicit); name != "" {
		return Normalize(name)
	}
	if m := headerPattern.FindStringSubmatch(content); m != nil {
		return Normalize(m[1])
	}
	return DefaultName
}

// Normalize folds a project name to a stable key: lowercase, spaces and
// slashes collapsed to hyphens.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\':
			return '-'
		}
		return r
	}, name)
	return strings.Trim(name, "-")
}
