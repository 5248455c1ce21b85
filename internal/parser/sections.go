// Package parser turns free-form continuation notes into canonical records.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/kontext-dev/kontext/internal/domain"
)

// sectionSynonyms maps each canonical section name to its accepted header
// spellings. Adding a language variant is a data change, not a code change.
var sectionSynonyms = map[string][]string{
	domain.SectionStatus:   {"STATUS", "WAS", "AUFGABE", "TASK"},
	domain.SectionPosition: {"POSITION", "WO", "WHERE", "STELLE"},
	domain.SectionProblem:  {"PROBLEM", "BLOCKER", "ISSUE", "FEHLER"},
	domain.SectionTried:    {"TRIED", "VERSUCHT", "ATTEMPTED", "PROBIERT"},
	domain.SectionNext:     {"NEXT", "NÄCHSTE", "WEITER"},
	domain.SectionTodo:     {"TODO", "TODOS", "AUFGABEN", "TASKS"},
	domain.SectionContext:  {"CONTEXT", "KONTEXT", "INFO", "ZUSATZ"},
}

// headerPattern matches a candidate section header: a single word at the
// start of the line followed by a colon. Whether it opens a section is
// decided by matchHeader.
var headerPattern = regexp.MustCompile(`^([\p{L}]+):\s*(.*)$`)

// Result is the outcome of parsing one continuation note. RawSections keeps
// the verbatim section bodies keyed by canonical (or literal uppercased)
// header name.
type Result struct {
	Status      string
	Position    domain.Position
	Problem     string
	Tried       []string
	Next        []string
	Todo        []string
	Context     string
	RawSections map[string]string
	Timestamp   time.Time
}

// Parser splits continuation notes into named sections.
type Parser struct {
	canonical map[string]string
}

// New builds a Parser from the synonym table.
func New() *Parser {
	canonical := make(map[string]string)
	for name, variants := range sectionSynonyms {
		for _, v := range variants {
			canonical[strings.ToUpper(v)] = name
		}
	}
	return &Parser{canonical: canonical}
}

// Parse extracts sections from a note and derives the canonical record.
// A note without a STATUS section falls back to its first content line.
func (p *Parser) Parse(text string) *Result {
	sections := p.ParseSections(text)

	result := &Result{
		Status:      sections[domain.SectionStatus],
		Position:    ParsePosition(sections[domain.SectionPosition]),
		Problem:     sections[domain.SectionProblem],
		Tried:       ParseList(sections[domain.SectionTried]),
		Next:        ParseList(sections[domain.SectionNext]),
		Todo:        ParseList(sections[domain.SectionTodo]),
		Context:     sections[domain.SectionContext],
		RawSections: sections,
		Timestamp:   time.Now().UTC(),
	}

	if result.Status == "" {
		if first := p.firstContentLine(text); first != "" {
			result.Status = first
		} else {
			result.Status = "Continuation session"
		}
	}

	return result
}

// ParseSections splits text into named sections. Known header synonyms map
// to their canonical name; unrecognized colon-terminated headers are kept
// under their literal uppercased keyword. At most one entry per name: a
// repeated header replaces the earlier body. Lines before the first header
// are dropped.
func (p *Parser) ParseSections(text string) map[string]string {
	sections := make(map[string]string)
	current := ""
	var body []string

	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(body, "\n"))
		}
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		name, rest, ok := p.matchHeader(trimmed)
		if ok {
			flush()
			current = name
			body = body[:0]
			if rest != "" {
				body = append(body, rest)
			}
			continue
		}
		if current != "" {
			body = append(body, trimmed)
		}
	}
	flush()

	return sections
}

// matchHeader reports whether the line opens a section. Known synonyms are
// matched case-insensitively; an unknown keyword only counts when it is
// written in uppercase, which keeps prose like "https://..." or "note: ..."
// from being swallowed as a section.
func (p *Parser) matchHeader(line string) (name, rest string, ok bool) {
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}

	keyword := strings.ToUpper(m[1])
	if canonical, known := p.canonical[keyword]; known {
		return canonical, strings.TrimSpace(m[2]), true
	}
	if m[1] == keyword {
		return keyword, strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

// firstContentLine returns the first non-empty line that is not itself a
// section header, used as the pseudo-status for header-less notes.
func (p *Parser) firstContentLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if _, _, ok := p.matchHeader(trimmed); ok {
			continue
		}
		return trimmed
	}
	return ""
}
