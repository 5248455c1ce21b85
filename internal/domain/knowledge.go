package domain

import (
	"fmt"
	"time"
)

// KnowledgeType represents the category a knowledge unit was classified into
type KnowledgeType string

const (
	KnowledgeTypeContinuation   KnowledgeType = "continuation"
	KnowledgeTypeAPIDoc         KnowledgeType = "api-documentation"
	KnowledgeTypeSchema         KnowledgeType = "schema"
	KnowledgeTypeImplementation KnowledgeType = "implementation"
	KnowledgeTypeArchitecture   KnowledgeType = "architecture"
	KnowledgeTypeMilestone      KnowledgeType = "milestone"
	KnowledgeTypeErrorSolution  KnowledgeType = "error-solution"
	KnowledgeTypeResearch       KnowledgeType = "research"
)

// Tag is a descriptive label with the confidence of the strategy that produced it
type Tag struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// KnowledgeUnit is one persisted, classified, tagged piece of session content.
// Units are upserted by ID and never deleted by the core; the embedding is
// optional and filled in later when the embedder was unavailable at save time.
type KnowledgeUnit struct {
	ID          string
	ProjectName string
	Content     string
	Type        KnowledgeType
	Confidence  float64
	Tags        []Tag
	Embedding   []float32
	CreatedAt   time.Time
}

// NewKnowledgeUnit creates a new KnowledgeUnit instance
func NewKnowledgeUnit(
	id, projectName, content string,
	knowledgeType KnowledgeType,
	confidence float64,
	tags []Tag,
	embedding []float32,
	createdAt time.Time,
) *KnowledgeUnit {
	return &KnowledgeUnit{
		ID:          id,
		ProjectName: projectName,
		Content:     content,
		Type:        knowledgeType,
		Confidence:  confidence,
		Tags:        tags,
		Embedding:   embedding,
		CreatedAt:   createdAt,
	}
}

// ValidateKnowledgeUnit validates a KnowledgeUnit instance
func ValidateKnowledgeUnit(u *KnowledgeUnit) error {
	if u == nil {
		return fmt.Errorf("knowledge unit cannot be nil")
	}

	if u.ID == "" {
		return fmt.Errorf("knowledge unit ID is required")
	}

	if u.ProjectName == "" {
		return fmt.Errorf("knowledge unit ProjectName is required")
	}

	if u.Content == "" {
		return fmt.Errorf("knowledge unit Content is required")
	}

	if !isValidKnowledgeType(u.Type) {
		return fmt.Errorf("knowledge unit Type is invalid: %s", u.Type)
	}

	if u.Confidence < 0 || u.Confidence > 1 {
		return fmt.Errorf("knowledge unit Confidence must be within [0,1]: %f", u.Confidence)
	}

	return nil
}

// KnowledgeTypes lists every valid knowledge type in classifier declaration order
func KnowledgeTypes() []KnowledgeType {
	return []KnowledgeType{
		KnowledgeTypeContinuation,
		KnowledgeTypeAPIDoc,
		KnowledgeTypeSchema,
		KnowledgeTypeImplementation,
		KnowledgeTypeArchitecture,
		KnowledgeTypeMilestone,
		KnowledgeTypeErrorSolution,
		KnowledgeTypeResearch,
	}
}

// isValidKnowledgeType checks if a KnowledgeType is valid
func isValidKnowledgeType(t KnowledgeType) bool {
	switch t {
	case KnowledgeTypeContinuation, KnowledgeTypeAPIDoc, KnowledgeTypeSchema,
		KnowledgeTypeImplementation, KnowledgeTypeArchitecture,
		KnowledgeTypeMilestone, KnowledgeTypeErrorSolution, KnowledgeTypeResearch:
		return true
	}
	return false
}
