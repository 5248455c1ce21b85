// Package classifier assigns a knowledge type to arbitrary text using
// weighted pattern scoring over a fixed category table.
package classifier

import (
	"regexp"
	"strings"

	"github.com/kontext-dev/kontext/internal/domain"
)

const (
	patternWeight   = 0.3
	indicatorWeight = 0.7

	// DefaultConfidence is returned when no category produces a signal.
	DefaultConfidence = 0.5
)

// DefaultType is the safe fallback when classification finds no signal.
const DefaultType = domain.KnowledgeTypeImplementation

// category defines one knowledge type: regex patterns, literal indicator
// substrings and a weight. Indicators carry more weight than patterns.
type category struct {
	knowledgeType domain.KnowledgeType
	patterns      []*regexp.Regexp
	indicators    []string
	weight        float64
}

// Score is the per-category scoring breakdown, exposed for transparency.
type Score struct {
	Type            domain.KnowledgeType `json:"type"`
	PatternMatches  int                  `json:"pattern_matches"`
	IndicatorMatches int                 `json:"indicator_matches"`
	Weighted        float64              `json:"weighted"`
}

// Classifier scores text against the category table. It is stateless and
// deterministic; ties are broken by category declaration order.
type Classifier struct {
	categories []category
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+e))
	}
	return out
}

// New builds a Classifier with the default category table.
func New() *Classifier {
	return &Classifier{categories: []category{
		{
			knowledgeType: domain.KnowledgeTypeContinuation,
			patterns: compile(
				`\bSTATUS:`, `\bPOSITION:`, `\bNEXT:`, `\bTODO:`, `\bCONTEXT:`,
				`\bPROBLEM:`, `\bTRIED:`, `\bcontinue\s+with\b`, `\bresume\s+from\b`, `\bleft\s+off\b`,
			),
			indicators: []string{"status:", "next:", "todo:"},
			weight:     1.0,
		},
		{
			knowledgeType: domain.KnowledgeTypeAPIDoc,
			patterns: compile(
				`\bAPI\s+endpoint\b`, `\bREST\s+API\b`, `\bendpoint:`, `\bGET\s+/\w+`, `\bPOST\s+/\w+`,
				`\bPUT\s+/\w+`, `\bDELETE\s+/\w+`, `\brequest\s+body\b`, `\bresponse\s+format\b`,
				`\bstatus\s+code\b`, `\bOpenAPI\b`, `\bGraphQL\b`,
			),
			indicators: []string{"endpoint:", "request:", "response:"},
			weight:     0.9,
		},
		{
			knowledgeType: domain.KnowledgeTypeSchema,
			patterns: compile(
				`\bschema\b`, `\bdata\s+structure\b`, `\bCREATE\s+TABLE\b`, `\binterface\s+\w+\s*\{`,
				`\btype\s+\w+\s+struct\b`, `\bmigration\b`, `\bfields?:`, `\bproperties:`,
				`\bJSON\s+schema\b`, `\bprotobuf\b`,
			),
			indicators: []string{"create table", "schema", "fields:"},
			weight:     0.9,
		},
		{
			knowledgeType: domain.KnowledgeTypeImplementation,
			patterns: compile(
				`\bfunc\s+\w+\(`, `\bdef\s+\w+\(`, `\bfunction\s+\w+\(`, `\bimplemented\b`,
				`\balgorithm\b`, `\bsolution:`, "```", `\bimport\s+\w+`, `\bpackage\s+\w+\b`,
			),
			indicators: []string{"func ", "import ", "```"},
			weight:     0.8,
		},
		{
			knowledgeType: domain.KnowledgeTypeArchitecture,
			patterns: compile(
				`\barchitecture\b`, `\bsystem\s+design\b`, `\bcomponent\b`, `\blayer\s+\w+\b`,
				`\bmodule\s+structure\b`, `\bworkflow\b`, `\bdata\s+flow\b`, `\bmicroservices?\b`,
				`\bdesign\s+pattern\b`, `\bdiagram\b`,
			),
			indicators: []string{"architecture", "workflow", "design"},
			weight:     0.85,
		},
		{
			knowledgeType: domain.KnowledgeTypeMilestone,
			patterns: compile(
				`\bmilestone\b`, `\bachieved\b`, `\bcompleted?\b`, `\brelease\s+v?\d+`, `\bdeployed\b`,
				`\blaunched\b`, `\bshipped\b`, `\bDONE:`, `\bdelivered\b`, `\baccomplished\b`,
			),
			indicators: []string{"milestone", "completed", "release"},
			weight:     0.85,
		},
		{
			knowledgeType: domain.KnowledgeTypeErrorSolution,
			patterns: compile(
				`\berror:`, `\bexception:`, `\bfixed\b`, `\bworkaround\b`, `\bbugfix\b`, `\bpanic\b`,
				`\bstack\s+trace\b`, `\btraceback\b`, `\bresolved\b`, `\bfix:`,
			),
			indicators: []string{"error:", "fixed", "resolved"},
			weight:     0.8,
		},
		{
			knowledgeType: domain.KnowledgeTypeResearch,
			patterns: compile(
				`\bresearch\b`, `\banalysis\b`, `\bfindings?\b`, `\bexperiments?\b`, `\bbenchmarks?\b`,
				`\bcomparison\b`, `\bevaluation\b`, `\bconclusions?\b`, `\bhypothesis\b`, `\binvestigation\b`,
			),
			indicators: []string{"research", "findings", "benchmark"},
			weight:     0.75,
		},
	}}
}

// Classify returns the best-matching knowledge type and its confidence.
// A category contributes only when at least one pattern or indicator
// matched; without any signal the fixed default is returned at 0.5.
func (c *Classifier) Classify(text string) (domain.KnowledgeType, float64) {
	lower := strings.ToLower(text)

	best := DefaultType
	bestScore := 0.0
	matched := false

	for _, cat := range c.categories {
		score, ok := cat.score(text, lower)
		if !ok {
			continue
		}
		// strict comparison keeps declaration order as the tie break
		if !matched || score > bestScore {
			best = cat.knowledgeType
			bestScore = score
			matched = true
		}
	}

	if !matched {
		return DefaultType, DefaultConfidence
	}
	return best, bestScore
}

// Scores returns the full per-category breakdown for the given text.
func (c *Classifier) Scores(text string) []Score {
	lower := strings.ToLower(text)

	out := make([]Score, 0, len(c.categories))
	for _, cat := range c.categories {
		weighted, _ := cat.score(text, lower)
		out = append(out, Score{
			Type:             cat.knowledgeType,
			PatternMatches:   cat.countPatterns(text),
			IndicatorMatches: cat.countIndicators(lower),
			Weighted:         weighted,
		})
	}
	return out
}

func (cat category) score(text, lower string) (float64, bool) {
	patterns := cat.countPatterns(text)
	indicators := cat.countIndicators(lower)
	if patterns == 0 && indicators == 0 {
		return 0, false
	}

	patternScore := min(float64(patterns)/float64(len(cat.patterns)), 1.0)
	indicatorScore := min(float64(indicators)/float64(len(cat.indicators)), 1.0)

	return (patternScore*patternWeight + indicatorScore*indicatorWeight) * cat.weight, true
}

func (cat category) countPatterns(text string) int {
	n := 0
	for _, p := range cat.patterns {
		if p.MatchString(text) {
			n++
		}
	}
	return n
}

func (cat category) countIndicators(lower string) int {
	n := 0
	for _, ind := range cat.indicators {
		if strings.Contains(lower, ind) {
			n++
		}
	}
	return n
}
