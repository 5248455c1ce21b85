// Package jobs runs background work on a polling loop, currently the
// embedding backfill for units saved while the model was unavailable.
package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/kontext-dev/kontext/internal/domain"
	"github.com/kontext-dev/kontext/internal/embedding"
	"github.com/kontext-dev/kontext/internal/vector"
)

const (
	// DefaultBatchSize bounds how many vector-less units one poll handles.
	DefaultBatchSize = 25
)

// BackfillRepository defines the persistence interface for the backfill worker
type BackfillRepository interface {
	ListMissingEmbeddings(ctx context.Context, limit int) ([]*domain.KnowledgeUnit, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
}

// BackfillProcessor completes units that were saved without a vector. Each
// poll embeds one batch, persists the vectors and feeds the search index.
type BackfillProcessor struct {
	repo      BackfillRepository
	embedder  embedding.Client
	index     *vector.Index
	batchSize int
}

// NewBackfillProcessor creates a new BackfillProcessor instance
func NewBackfillProcessor(repo BackfillRepository, embedder embedding.Client, index *vector.Index) *BackfillProcessor {
	return &BackfillProcessor{
		repo:      repo,
		embedder:  embedder,
		index:     index,
		batchSize: DefaultBatchSize,
	}
}

// ProcessJobs implements the JobProcessor interface
func (p *BackfillProcessor) ProcessJobs(ctx context.Context) error {
	if !p.embedder.Available() {
		return nil
	}

	units, err := p.repo.ListMissingEmbeddings(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch units missing embeddings: %w", err)
	}
	if len(units) == 0 {
		return nil
	}

	log.Printf("jobs: backfilling embeddings for %d units", len(units))

	for _, unit := range units {
		if err := p.processUnit(ctx, unit); err != nil {
			// Leave the unit vector-less; the next poll retries it.
			log.Printf("jobs: backfill failed for unit %s: %v", unit.ID, err)
		}
	}
	return nil
}

func (p *BackfillProcessor) processUnit(ctx context.Context, unit *domain.KnowledgeUnit) error {
	vec, err := p.embedder.Embed(ctx, unit.Content)
	if err != nil {
		return fmt.Errorf("failed to embed: %w", err)
	}

	if err := p.repo.UpdateEmbedding(ctx, unit.ID, vec); err != nil {
		return fmt.Errorf("failed to persist embedding: %w", err)
	}

	if err := p.index.Upsert(unit.ID, vec); err != nil {
		return fmt.Errorf("failed to index embedding: %w", err)
	}
	return nil
}
