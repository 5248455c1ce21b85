package parser

import (
	"regexp"
	"strings"
)

var (
	bulletPrefix    = regexp.MustCompile(`^[\s\-\*•·→>]+`)
	numberingPrefix = regexp.MustCompile(`^\d+[.)]\s*`)
)

// ParseList splits a section body into ordered list items, stripping
// bullet and numbering markup. Empty items are discarded.
func ParseList(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var items []string
	for _, line := range strings.Split(text, "\n") {
		cleaned := bulletPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		cleaned = numberingPrefix.ReplaceAllString(cleaned, "")
		cleaned = strings.TrimSpace(cleaned)
		if cleaned != "" {
			items = append(items, cleaned)
		}
	}
	return items
}
