package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kontext-dev/kontext/internal/domain"
)

var (
	fileLinePattern = regexp.MustCompile(`([^:\s][^:]*?):(\d+)`)
	functionPattern = regexp.MustCompile(`-\s*(\w+)\s*\(`)
)

// ParsePosition extracts file, line and function from a POSITION section.
// Accepted shapes, in order of preference:
//
//	main.go:123 - handleSave()
//	internal/service/save.go:45
//	config.json
//
// When no file:line token is present the whole trimmed text is treated as a
// bare file path.
func ParsePosition(text string) domain.Position {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.Position{}
	}

	pos := domain.Position{Raw: trimmed}

	if m := fileLinePattern.FindStringSubmatch(trimmed); m != nil {
		pos.File = strings.TrimSpace(m[1])
		line, err := strconv.Atoi(m[2])
		if err == nil {
			pos.Line = line
		}
		if fm := functionPattern.FindStringSubmatch(trimmed); fm != nil {
			pos.Function = fm[1]
		}
		return pos
	}

	pos.File = trimmed
	return pos
}
