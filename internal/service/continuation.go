package service

import (
	"context"
	"time"

	"github.com/kontext-dev/kontext/internal/domain"
	"github.com/kontext-dev/kontext/internal/pagination"
	"github.com/kontext-dev/kontext/internal/parser"
	"github.com/kontext-dev/kontext/internal/telemetry"
)

// ContinuationRepositoryInterface defines the repository interface for continuation persistence
type ContinuationRepositoryInterface interface {
	Create(ctx context.Context, c *domain.Continuation) error
	GetByID(ctx context.Context, id string) (*domain.Continuation, error)
	GetLatest(ctx context.Context, projectName string) (*domain.Continuation, error)
	ListByProjectWithCursor(ctx context.Context, projectName string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Continuation], error)
}

// ContinuationService parses continuation notes into canonical records and
// stores the note itself as a searchable knowledge unit alongside.
type ContinuationService struct {
	continuations ContinuationRepositoryInterface
	knowledge     *KnowledgeService
	parser        *parser.Parser
	uuidGen       UUIDGenerator
}

// NewContinuationService creates a new ContinuationService instance
func NewContinuationService(
	continuations ContinuationRepositoryInterface,
	knowledge *KnowledgeService,
) *ContinuationService {
	return &ContinuationService{
		continuations: continuations,
		knowledge:     knowledge,
		parser:        parser.New(),
		uuidGen:       &DefaultUUIDGenerator{},
	}
}

// NewContinuationServiceWithUUIDGen creates a new ContinuationService with custom UUID generator (for testing)
func NewContinuationServiceWithUUIDGen(
	continuations ContinuationRepositoryInterface,
	knowledge *KnowledgeService,
	uuidGen UUIDGenerator,
) *ContinuationService {
	s := NewContinuationService(continuations, knowledge)
	s.uuidGen = uuidGen
	return s
}

// SaveContinuationInput represents the input for saving a continuation note
type SaveContinuationInput struct {
	ProjectName string
	Content     string
}

// SaveContinuationOutput returns both records produced by one note.
type SaveContinuationOutput struct {
	Continuation *domain.Continuation
	Unit         *domain.KnowledgeUnit
}

// Save parses a continuation note, persists the canonical record and runs
// the note through the regular save pipeline so it is searchable.
func (s *ContinuationService) Save(ctx context.Context, input SaveContinuationInput) (*SaveContinuationOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "ContinuationService.Save", telemetry.SpanAttributes{
		ProjectName: input.ProjectName,
		Operation:   "save_continuation",
	})
	defer span.End()

	if input.ProjectName == "" {
		return nil, domain.ErrMissingProjectName
	}
	if input.Content == "" {
		return nil, domain.ErrMissingContent
	}

	parsed := s.parser.Parse(input.Content)

	continuation := &domain.Continuation{
		ID:          s.uuidGen.NewString(),
		ProjectName: input.ProjectName,
		Status:      parsed.Status,
		Position:    parsed.Position,
		Problem:     parsed.Problem,
		Tried:       parsed.Tried,
		Next:        parsed.Next,
		Todo:        parsed.Todo,
		Context:     parsed.Context,
		RawSections: parsed.RawSections,
		CreatedAt:   time.Now().UTC(),
	}

	if err := domain.ValidateContinuation(continuation); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid continuation", err)
	}

	if err := s.continuations.Create(ctx, continuation); err != nil {
		span.SetError(err)
		return nil, err
	}

	unit, err := s.knowledge.Save(ctx, SaveInput{
		ProjectName: input.ProjectName,
		Content:     input.Content,
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return &SaveContinuationOutput{
		Continuation: continuation,
		Unit:         unit,
	}, nil
}

// Latest returns the most recent continuation for a project.
func (s *ContinuationService) Latest(ctx context.Context, projectName string) (*domain.Continuation, error) {
	if projectName == "" {
		return nil, domain.ErrMissingProjectName
	}
	return s.continuations.GetLatest(ctx, projectName)
}

// ListContinuationsInput represents the input for listing continuations
type ListContinuationsInput struct {
	ProjectName string
	Cursor      string
	Limit       int
}

// List returns a page of the project's continuations, newest first.
func (s *ContinuationService) List(ctx context.Context, input ListContinuationsInput) (*pagination.PageResult[*domain.Continuation], error) {
	if input.ProjectName == "" {
		return nil, domain.ErrMissingProjectName
	}

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	return s.continuations.ListByProjectWithCursor(ctx, input.ProjectName, cursor, input.Limit)
}
