// Package tagger derives descriptive tags for session content by pooling
// four independent extraction strategies.
package tagger

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kontext-dev/kontext/internal/domain"
)

// Fixed confidences per strategy. When the same tag is produced by more
// than one strategy the maximum wins.
const (
	patternConfidence   = 0.8
	filenameConfidence  = 0.7
	versionConfidence   = 0.6
	acronymConfidence   = 0.5
	frequencyConfidence = 0.5
	compoundConfidence  = 0.6
)

const (
	maxFilenameTags  = 3
	maxVersionTags   = 2
	maxAcronymTags   = 3
	maxFrequencyTags = 3
	maxCompoundTags  = 5

	// DefaultMaxTags bounds the merged result when the caller passes 0.
	DefaultMaxTags = 5
)

// patternEntry names a vocabulary tag and the expressions that trigger it.
type patternEntry struct {
	tag      string
	patterns []*regexp.Regexp
}

var (
	filenamePattern = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*\.(?:go|py|js|ts|cs|md|txt|json|yaml|yml|sql|toml))\b`)
	versionPattern  = regexp.MustCompile(`\bv(\d+\.\d+(?:\.\d+)?)\b`)
	acronymPattern  = regexp.MustCompile(`\b([A-Z]{2,})\b`)
	wordPattern     = regexp.MustCompile(`\b[a-z]{4,}\b`)
	compoundPattern = regexp.MustCompile(`\b([a-z]+[-_][a-z]+)\b`)
)

var stopWords = map[string]struct{}{
	"that": {}, "this": {}, "with": {}, "from": {}, "have": {}, "been": {},
	"were": {}, "will": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"their": {}, "there": {}, "these": {}, "those": {},
}

// Tagger generates ranked tags for raw text. Construction compiles the
// vocabulary table once; Generate is stateless after that.
type Tagger struct {
	vocabulary []patternEntry
}

func entry(tag string, exprs ...string) patternEntry {
	compiled := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		compiled = append(compiled, regexp.MustCompile(e))
	}
	return patternEntry{tag: tag, patterns: compiled}
}

// New builds a Tagger with the default technology, phase and importance
// vocabularies.
func New() *Tagger {
	return &Tagger{vocabulary: []patternEntry{
		// technology
		entry("go", `\bgolang\b`, `\.go\b`, `\bgoroutine\b`, `\bgo\s+mod\b`),
		entry("python", `\bpython\b`, `\.py\b`, `\bpip\b`, `\bdjango\b`, `\bflask\b`),
		entry("javascript", `\bjavascript\b`, `\.js\b`, `\bnode\b`, `\breact\b`, `\bvue\b`),
		entry("database", `\bsql\b`, `\bdatabase\b`, `\bpostgres\b`, `\bmysql\b`, `\bsqlite\b`),
		entry("ml", `\bmachine learning\b`, `\bneural\b`, `\bmodel\b`, `\btraining\b`),
		entry("ai", `\bai\b`, `\bartificial intelligence\b`, `\bgpt\b`, `\bllm\b`),

		// project phases
		entry("planning", `\bplan\b`, `\broadmap\b`, `\bstrategy\b`, `\bdesign\b`),
		entry("implementation", `\bimplement\b`, `\bcoding\b`, `\bdevelop\b`, `\bbuild\b`),
		entry("testing", `\btest\b`, `\bdebug\b`, `\bfix\b`, `\bqa\b`),
		entry("deployment", `\bdeploy\b`, `\brelease\b`, `\bproduction\b`, `\blive\b`),

		// importance indicators
		entry("breakthrough", `\bbreakthrough\b`, `\bmajor\b`, `\bsuccess\b`, `\bachieved\b`),
		entry("issue", `\bissue\b`, `\bproblem\b`, `\berror\b`, `\bbug\b`, `\bfail\b`),
		entry("todo", `\btodo\b`, `\bnext\b`, `\bupcoming\b`, `\bplan to\b`),

		// retrieval domain
		entry("embedding", `\bembedding\b`, `\bvector\b`, `\bsemantic\b`),
		entry("search", `\bsearch\b`, `\bsimilarity\b`, `\branking\b`),
	}}
}

// Generate returns up to maxTags tags ordered by descending confidence.
// Tags produced by multiple strategies keep their maximum confidence;
// equal confidences are ordered alphabetically for stable output.
func (t *Tagger) Generate(text string, maxTags int) []domain.Tag {
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}

	merged := make(map[string]float64)
	add := func(tag string, confidence float64) {
		tag = normalize(tag)
		if tag == "" {
			return
		}
		if existing, ok := merged[tag]; !ok || confidence > existing {
			merged[tag] = confidence
		}
	}

	for _, candidate := range t.patternTags(text) {
		add(candidate.Text, candidate.Confidence)
	}
	for _, candidate := range tokenShapeTags(text) {
		add(candidate.Text, candidate.Confidence)
	}
	for _, candidate := range frequencyTags(text) {
		add(candidate.Text, candidate.Confidence)
	}
	for _, candidate := range compoundTags(text) {
		add(candidate.Text, candidate.Confidence)
	}

	tags := make([]domain.Tag, 0, len(merged))
	for text, confidence := range merged {
		tags = append(tags, domain.Tag{Text: text, Confidence: confidence})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Confidence != tags[j].Confidence {
			return tags[i].Confidence > tags[j].Confidence
		}
		return tags[i].Text < tags[j].Text
	})

	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}
	return tags
}

// patternTags emits a vocabulary tag when any of its patterns match.
func (t *Tagger) patternTags(text string) []domain.Tag {
	lower := strings.ToLower(text)

	var tags []domain.Tag
	for _, e := range t.vocabulary {
		for _, p := range e.patterns {
			if p.MatchString(lower) {
				tags = append(tags, domain.Tag{Text: e.tag, Confidence: patternConfidence})
				break
			}
		}
	}
	return tags
}

// tokenShapeTags extracts filename, version and acronym shaped tokens.
func tokenShapeTags(text string) []domain.Tag {
	var tags []domain.Tag

	files := filenamePattern.FindAllStringSubmatch(text, maxFilenameTags)
	for _, m := range files {
		tags = append(tags, domain.Tag{Text: strings.ToLower(m[1]), Confidence: filenameConfidence})
	}

	versions := versionPattern.FindAllStringSubmatch(strings.ToLower(text), maxVersionTags)
	for _, m := range versions {
		tags = append(tags, domain.Tag{Text: "v" + m[1], Confidence: versionConfidence})
	}

	seen := 0
	for _, m := range acronymPattern.FindAllStringSubmatch(text, -1) {
		if len(m[1]) > 5 {
			continue
		}
		tags = append(tags, domain.Tag{Text: strings.ToLower(m[1]), Confidence: acronymConfidence})
		seen++
		if seen == maxAcronymTags {
			break
		}
	}

	return tags
}

// frequencyTags picks repeated lowercase words, stop-word filtered.
func frequencyTags(text string) []domain.Tag {
	counts := make(map[string]int)
	var order []string
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := stopWords[word]; stop {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	var tags []domain.Tag
	for _, word := range order {
		if counts[word] < 2 {
			continue
		}
		tags = append(tags, domain.Tag{Text: word, Confidence: frequencyConfidence})
		if len(tags) == maxFrequencyTags {
			break
		}
	}
	return tags
}

// compoundTags extracts hyphen or underscore joined two-word terms.
func compoundTags(text string) []domain.Tag {
	var tags []domain.Tag
	for _, m := range compoundPattern.FindAllStringSubmatch(strings.ToLower(text), maxCompoundTags) {
		if len(m[1]) <= 3 {
			continue
		}
		tags = append(tags, domain.Tag{Text: m[1], Confidence: compoundConfidence})
	}
	return tags
}

// normalize canonicalizes tag text: lowercase with dots and hyphens folded
// to underscores so "python.py" and "data-model" become stable keys.
func normalize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag = strings.ReplaceAll(tag, ".", "_")
	tag = strings.ReplaceAll(tag, "-", "_")
	return tag
}
