package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kontext-dev/kontext/internal/domain"
	"github.com/kontext-dev/kontext/internal/embedding"
	"github.com/kontext-dev/kontext/internal/vector"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockBackfillRepository is a mock implementation of BackfillRepository
type MockBackfillRepository struct {
	mock.Mock
}

func (m *MockBackfillRepository) ListMissingEmbeddings(ctx context.Context, limit int) ([]*domain.KnowledgeUnit, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeUnit), args.Error(1)
}

func (m *MockBackfillRepository) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	args := m.Called(ctx, id, embedding)
	return args.Error(0)
}

// countingEmbedder returns a fixed vector and counts calls
type countingEmbedder struct {
	mu    sync.Mutex
	calls int
	dims  int
	err   error
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, e.dims)
	vec[0] = 1
	return vec, nil
}

func (e *countingEmbedder) Dimensions() int { return e.dims }
func (e *countingEmbedder) Available() bool { return true }

func TestWorker(t *testing.T) {
	t.Run("polls the processor until stopped", func(t *testing.T) {
		processor := new(MockJobProcessor)
		processor.On("ProcessJobs", mock.Anything).Return(nil)

		worker := NewWorker(processor, 10*time.Millisecond)
		go worker.Start(context.Background())

		time.Sleep(50 * time.Millisecond)
		worker.Stop()

		processor.AssertCalled(t, "ProcessJobs", mock.Anything)
	})

	t.Run("keeps polling after processor errors", func(t *testing.T) {
		processor := new(MockJobProcessor)
		processor.On("ProcessJobs", mock.Anything).Return(errors.New("transient"))

		worker := NewWorker(processor, 10*time.Millisecond)
		go worker.Start(context.Background())

		time.Sleep(50 * time.Millisecond)
		worker.Stop()

		assert.GreaterOrEqual(t, len(processor.Calls), 2)
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		processor := new(MockJobProcessor)
		processor.On("ProcessJobs", mock.Anything).Return(nil)

		ctx, cancel := context.WithCancel(context.Background())
		worker := NewWorker(processor, 10*time.Millisecond)

		done := make(chan struct{})
		go func() {
			worker.Start(ctx)
			close(done)
		}()

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("worker did not stop after context cancellation")
		}
	})
}

func TestBackfillProcessor(t *testing.T) {
	const dims = 8

	t.Run("embeds, persists and indexes missing vectors", func(t *testing.T) {
		repo := new(MockBackfillRepository)
		embedder := &countingEmbedder{dims: dims}
		index := vector.NewIndex(dims)
		processor := NewBackfillProcessor(repo, embedder, index)

		units := []*domain.KnowledgeUnit{
			{ID: "u1", Content: "first note"},
			{ID: "u2", Content: "second note"},
		}
		repo.On("ListMissingEmbeddings", mock.Anything, DefaultBatchSize).Return(units, nil)
		repo.On("UpdateEmbedding", mock.Anything, "u1", mock.Anything).Return(nil)
		repo.On("UpdateEmbedding", mock.Anything, "u2", mock.Anything).Return(nil)

		err := processor.ProcessJobs(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, embedder.calls)
		assert.Equal(t, 2, index.Len())
		repo.AssertExpectations(t)
	})

	t.Run("unavailable embedder is a no-op", func(t *testing.T) {
		repo := new(MockBackfillRepository)
		processor := NewBackfillProcessor(repo, embedding.NewNullClient(dims), vector.NewIndex(dims))

		err := processor.ProcessJobs(context.Background())

		require.NoError(t, err)
		repo.AssertNotCalled(t, "ListMissingEmbeddings", mock.Anything, mock.Anything)
	})

	t.Run("a failing unit does not block the batch", func(t *testing.T) {
		repo := new(MockBackfillRepository)
		embedder := &countingEmbedder{dims: dims}
		index := vector.NewIndex(dims)
		processor := NewBackfillProcessor(repo, embedder, index)

		units := []*domain.KnowledgeUnit{
			{ID: "bad", Content: "x"},
			{ID: "good", Content: "y"},
		}
		repo.On("ListMissingEmbeddings", mock.Anything, DefaultBatchSize).Return(units, nil)
		repo.On("UpdateEmbedding", mock.Anything, "bad", mock.Anything).Return(errors.New("write failed"))
		repo.On("UpdateEmbedding", mock.Anything, "good", mock.Anything).Return(nil)

		err := processor.ProcessJobs(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, index.Len())
	})

	t.Run("empty batch is quiet", func(t *testing.T) {
		repo := new(MockBackfillRepository)
		processor := NewBackfillProcessor(repo, &countingEmbedder{dims: dims}, vector.NewIndex(dims))

		repo.On("ListMissingEmbeddings", mock.Anything, DefaultBatchSize).Return([]*domain.KnowledgeUnit{}, nil)

		err := processor.ProcessJobs(context.Background())

		require.NoError(t, err)
	})
}
