package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/kontext-dev/kontext/internal/classifier"
	"github.com/kontext-dev/kontext/internal/domain"
	"github.com/kontext-dev/kontext/internal/embedding"
	"github.com/kontext-dev/kontext/internal/pagination"
	"github.com/kontext-dev/kontext/internal/tagger"
	"github.com/kontext-dev/kontext/internal/telemetry"
	"github.com/kontext-dev/kontext/internal/vector"
)

// UnitRepositoryInterface defines the repository interface for session unit persistence
type UnitRepositoryInterface interface {
	Upsert(ctx context.Context, u *domain.KnowledgeUnit) error
	GetByID(ctx context.Context, id string) (*domain.KnowledgeUnit, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.KnowledgeUnit, error)
	ListByProjectWithCursor(ctx context.Context, projectName string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.KnowledgeUnit], error)
	ListEmbeddings(ctx context.Context) ([]vector.Entry, error)
	ListMissingEmbeddings(ctx context.Context, limit int) ([]*domain.KnowledgeUnit, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
	SearchLexical(ctx context.Context, projectName, query string, limit int) ([]*domain.KnowledgeUnit, error)
	CountByType(ctx context.Context, projectName string) (map[domain.KnowledgeType]int, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// KnowledgeService runs the save pipeline: classify, tag, embed, persist,
// index. Classification and tagging never fail a save; a failed embedding
// degrades to a vector-less unit that the backfill worker completes later.
type KnowledgeService struct {
	units      UnitRepositoryInterface
	classifier *classifier.Classifier
	tagger     *tagger.Tagger
	embedder   embedding.Client
	index      *vector.Index
	uuidGen    UUIDGenerator
}

// NewKnowledgeService creates a new KnowledgeService instance
func NewKnowledgeService(
	units UnitRepositoryInterface,
	embedder embedding.Client,
	index *vector.Index,
) *KnowledgeService {
	return &KnowledgeService{
		units:      units,
		classifier: classifier.New(),
		tagger:     tagger.New(),
		embedder:   embedder,
		index:      index,
		uuidGen:    &DefaultUUIDGenerator{},
	}
}

// NewKnowledgeServiceWithUUIDGen creates a new KnowledgeService with custom UUID generator (for testing)
func NewKnowledgeServiceWithUUIDGen(
	units UnitRepositoryInterface,
	embedder embedding.Client,
	index *vector.Index,
	uuidGen UUIDGenerator,
) *KnowledgeService {
	s := NewKnowledgeService(units, embedder, index)
	s.uuidGen = uuidGen
	return s
}

// SaveInput represents the input for saving session content
type SaveInput struct {
	// ID is optional; passing the id of an existing unit replaces it.
	ID          string
	ProjectName string
	Content     string
	MaxTags     int
}

// Save classifies, tags, embeds and persists one piece of session content.
// The returned unit reflects what was stored, including whether an
// embedding made it in.
func (s *KnowledgeService) Save(ctx context.Context, input SaveInput) (*domain.KnowledgeUnit, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.Save", telemetry.SpanAttributes{
		ProjectName: input.ProjectName,
		Operation:   "save",
	})
	defer span.End()

	if input.ProjectName == "" {
		return nil, domain.ErrMissingProjectName
	}
	if input.Content == "" {
		return nil, domain.ErrMissingContent
	}

	knowledgeType, confidence := s.classifier.Classify(input.Content)
	tags := s.tagger.Generate(input.Content, input.MaxTags)

	id := input.ID
	if id == "" {
		id = s.uuidGen.NewString()
	}

	unit := domain.NewKnowledgeUnit(
		id, input.ProjectName, input.Content,
		knowledgeType, confidence, tags,
		nil, time.Now().UTC(),
	)

	if s.embedder.Available() {
		vec, err := s.embedder.Embed(ctx, input.Content)
		if err != nil {
			// Saved without a vector; the backfill worker retries.
			log.Printf("knowledge: embedding failed for unit %s (saving without vector): %v", unit.ID, err)
			telemetry.CaptureError(ctx, err)
		} else {
			unit.Embedding = vec
		}
	}

	if err := domain.ValidateKnowledgeUnit(unit); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid knowledge unit", err)
	}

	if err := s.units.Upsert(ctx, unit); err != nil {
		span.SetError(err)
		return nil, err
	}

	if len(unit.Embedding) > 0 {
		if err := s.index.Upsert(unit.ID, unit.Embedding); err != nil {
			// The row is persisted; the index catches up on next rebuild.
			log.Printf("knowledge: failed to index unit %s: %v", unit.ID, err)
			telemetry.CaptureError(ctx, err)
		}
	}

	return unit, nil
}

// Get returns a stored unit by id.
func (s *KnowledgeService) Get(ctx context.Context, id string) (*domain.KnowledgeUnit, error) {
	if id == "" {
		return nil, domain.ErrUnitNotFound
	}
	return s.units.GetByID(ctx, id)
}

// ListInput represents the input for listing a project's units
type ListInput struct {
	ProjectName string
	Cursor      string
	Limit       int
}

// List returns a page of the project's units, newest first.
func (s *KnowledgeService) List(ctx context.Context, input ListInput) (*pagination.PageResult[*domain.KnowledgeUnit], error) {
	if input.ProjectName == "" {
		return nil, domain.ErrMissingProjectName
	}

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	return s.units.ListByProjectWithCursor(ctx, input.ProjectName, cursor, input.Limit)
}

// ProjectSummary aggregates what is stored for one project.
type ProjectSummary struct {
	ProjectName string                       `json:"project_name"`
	TotalUnits  int                          `json:"total_units"`
	UnitsByType map[domain.KnowledgeType]int `json:"units_by_type"`
	IndexStats  vector.Stats                 `json:"index_stats"`
}

// Summary returns per-type unit counts for a project plus index diagnostics.
func (s *KnowledgeService) Summary(ctx context.Context, projectName string) (*ProjectSummary, error) {
	if projectName == "" {
		return nil, domain.ErrMissingProjectName
	}

	counts, err := s.units.CountByType(ctx, projectName)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	return &ProjectSummary{
		ProjectName: projectName,
		TotalUnits:  total,
		UnitsByType: counts,
		IndexStats:  s.index.Stats(),
	}, nil
}

// Classify runs classification and tagging without persisting anything.
func (s *KnowledgeService) Classify(ctx context.Context, content string, maxTags int) (domain.KnowledgeType, float64, []domain.Tag) {
	knowledgeType, confidence := s.classifier.Classify(content)
	tags := s.tagger.Generate(content, maxTags)
	return knowledgeType, confidence, tags
}

// RebuildIndex reloads every persisted embedding into the in-memory index.
// Called at startup and after the backfill worker writes vectors. Stored
// vectors with the wrong width are logged and skipped so one bad row never
// blocks the rest of the corpus.
func (s *KnowledgeService) RebuildIndex(ctx context.Context) (int, error) {
	entries, err := s.units.ListEmbeddings(ctx)
	if err != nil {
		return 0, err
	}

	want := s.embedder.Dimensions()
	usable := make([]vector.Entry, 0, len(entries))
	for _, e := range entries {
		if len(e.Embedding) != want {
			log.Printf("knowledge: skipping unit %s, stored embedding has %d dimensions, want %d", e.ID, len(e.Embedding), want)
			continue
		}
		usable = append(usable, e)
	}

	if err := s.index.Rebuild(usable); err != nil {
		return 0, err
	}
	return len(usable), nil
}
