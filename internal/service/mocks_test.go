package service

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/kontext-dev/kontext/internal/domain"
	"github.com/kontext-dev/kontext/internal/pagination"
	"github.com/kontext-dev/kontext/internal/vector"
)

// MockUnitRepository is a mock implementation of UnitRepositoryInterface
type MockUnitRepository struct {
	mock.Mock
}

func (m *MockUnitRepository) Upsert(ctx context.Context, u *domain.KnowledgeUnit) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUnitRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeUnit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeUnit), args.Error(1)
}

func (m *MockUnitRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.KnowledgeUnit, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeUnit), args.Error(1)
}

func (m *MockUnitRepository) ListByProjectWithCursor(ctx context.Context, projectName string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.KnowledgeUnit], error) {
	args := m.Called(ctx, projectName, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.KnowledgeUnit]), args.Error(1)
}

func (m *MockUnitRepository) ListEmbeddings(ctx context.Context) ([]vector.Entry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vector.Entry), args.Error(1)
}

func (m *MockUnitRepository) ListMissingEmbeddings(ctx context.Context, limit int) ([]*domain.KnowledgeUnit, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeUnit), args.Error(1)
}

func (m *MockUnitRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	args := m.Called(ctx, id, embedding)
	return args.Error(0)
}

func (m *MockUnitRepository) SearchLexical(ctx context.Context, projectName, query string, limit int) ([]*domain.KnowledgeUnit, error) {
	args := m.Called(ctx, projectName, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeUnit), args.Error(1)
}

func (m *MockUnitRepository) CountByType(ctx context.Context, projectName string) (map[domain.KnowledgeType]int, error) {
	args := m.Called(ctx, projectName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.KnowledgeType]int), args.Error(1)
}

// MockContinuationRepository is a mock implementation of ContinuationRepositoryInterface
type MockContinuationRepository struct {
	mock.Mock
}

func (m *MockContinuationRepository) Create(ctx context.Context, c *domain.Continuation) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContinuationRepository) GetByID(ctx context.Context, id string) (*domain.Continuation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Continuation), args.Error(1)
}

func (m *MockContinuationRepository) GetLatest(ctx context.Context, projectName string) (*domain.Continuation, error) {
	args := m.Called(ctx, projectName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Continuation), args.Error(1)
}

func (m *MockContinuationRepository) ListByProjectWithCursor(ctx context.Context, projectName string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Continuation], error) {
	args := m.Called(ctx, projectName, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.Continuation]), args.Error(1)
}

// fixedUUIDGenerator returns canned ids in order, for deterministic tests
type fixedUUIDGenerator struct {
	ids  []string
	next int
}

func (g *fixedUUIDGenerator) NewString() string {
	if g.next >= len(g.ids) {
		return "overflow-uuid"
	}
	id := g.ids[g.next]
	g.next++
	return id
}

// hashEmbedder is a deterministic bag-of-words embedder: each lowercased
// term increments one dimension, so texts sharing vocabulary land close in
// cosine space. Good enough to test ranking without a real model.
type hashEmbedder struct {
	dims int
}

func (e *hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)
	for _, term := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(term))
		vec[int(h.Sum32())%e.dims]++
	}
	return vec, nil
}

func (e *hashEmbedder) Dimensions() int { return e.dims }
func (e *hashEmbedder) Available() bool { return true }

// failingEmbedder is configured but always errors, to exercise degradation
type failingEmbedder struct {
	dims int
}

func (e *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("model unreachable")
}

func (e *failingEmbedder) Dimensions() int { return e.dims }
func (e *failingEmbedder) Available() bool { return true }
