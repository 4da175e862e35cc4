package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/vastralabs/karkhana/internal/catalog/repository"
	"go.uber.org/zap"
)

// Recalc job kinds
const (
	RecalcSKU       = "sku"
	RecalcVariation = "variation"
	RecalcProduct   = "product"
)

// RecalcJob one unit of cost-cache refresh work. Kind picks the cascade
// scope, ID the root entity.
type RecalcJob struct {
	Kind string
	ID   string
}

// RecalcService refreshes the cached bom_cost columns after BOM mutations.
// Recomputation is idempotent, so at-least-once delivery through the queue is
// safe. Failures are logged and swallowed: the resolver's live fallback keeps
// reads correct until the next successful pass.
type RecalcService struct {
	resolver    *BOMResolver
	productRepo *repository.ProductRepository
	logger      *zap.Logger

	jobs     chan RecalcJob
	stopOnce sync.Once
	done     chan struct{}
}

// NewRecalcService creates a recalc service with a buffered in-process queue
func NewRecalcService(resolver *BOMResolver, productRepo *repository.ProductRepository, logger *zap.Logger) *RecalcService {
	return &RecalcService{
		resolver:    resolver,
		productRepo: productRepo,
		logger:      logger,
		jobs:        make(chan RecalcJob, 256),
		done:        make(chan struct{}),
	}
}

// Start runs the background worker until Stop is called
func (s *RecalcService) Start() {
	go func() {
		for {
			select {
			case job := <-s.jobs:
				s.Run(context.Background(), job)
			case <-s.done:
				// drain whatever is left before exiting
				for {
					select {
					case job := <-s.jobs:
						s.Run(context.Background(), job)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop shuts the worker down after draining queued jobs
func (s *RecalcService) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// Enqueue hands a job to the worker; when the queue is full the job runs
// inline so nothing is dropped
func (s *RecalcService) Enqueue(ctx context.Context, job RecalcJob) {
	select {
	case s.jobs <- job:
	default:
		s.logger.Warn("Recalc queue full, running inline",
			zap.String("kind", job.Kind),
			zap.String("id", job.ID),
		)
		s.Run(ctx, job)
	}
}

// Run executes one job synchronously. Errors are logged, never returned.
func (s *RecalcService) Run(ctx context.Context, job RecalcJob) {
	var err error
	switch job.Kind {
	case RecalcSKU:
		err = s.recalcSKUAndParent(ctx, job.ID)
	case RecalcVariation:
		err = s.recalcVariationCascade(ctx, job.ID)
	case RecalcProduct:
		err = s.recalcProductCascade(ctx, job.ID)
	default:
		err = fmt.Errorf("unknown recalc kind %q", job.Kind)
	}
	if err != nil {
		s.logger.Error("BOM cost recalculation failed",
			zap.String("kind", job.Kind),
			zap.String("id", job.ID),
			zap.Error(err),
		)
	}
}

// recalcSKUAndParent refreshes one SKU's cost and its owning variation's
func (s *RecalcService) recalcSKUAndParent(ctx context.Context, skuID string) error {
	sku, err := s.productRepo.FindSKUByID(ctx, skuID)
	if err != nil {
		return fmt.Errorf("find sku: %w", err)
	}
	if err := s.refreshSKU(ctx, skuID); err != nil {
		return err
	}
	return s.refreshVariation(ctx, sku.VariationID)
}

// recalcVariationCascade refreshes a variation and every SKU under it
func (s *RecalcService) recalcVariationCascade(ctx context.Context, variationID string) error {
	skus, err := s.productRepo.ListSKUs(ctx, variationID)
	if err != nil {
		return fmt.Errorf("list skus: %w", err)
	}
	for _, sku := range skus {
		if err := s.refreshSKU(ctx, sku.ID); err != nil {
			return err
		}
	}
	return s.refreshVariation(ctx, variationID)
}

// recalcProductCascade refreshes every variation and SKU of a product
func (s *RecalcService) recalcProductCascade(ctx context.Context, productID string) error {
	variations, err := s.productRepo.ListVariations(ctx, productID)
	if err != nil {
		return fmt.Errorf("list variations: %w", err)
	}
	for _, variation := range variations {
		if err := s.recalcVariationCascade(ctx, variation.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *RecalcService) refreshSKU(ctx context.Context, skuID string) error {
	cost, err := s.resolver.ComputeSKUCost(ctx, skuID)
	if err != nil {
		return fmt.Errorf("compute sku cost: %w", err)
	}
	if err := s.productRepo.SetSKUBOMCost(ctx, skuID, &cost); err != nil {
		return fmt.Errorf("persist sku cost: %w", err)
	}
	return nil
}

func (s *RecalcService) refreshVariation(ctx context.Context, variationID string) error {
	cost, err := s.resolver.ComputeVariationCost(ctx, variationID)
	if err != nil {
		return fmt.Errorf("compute variation cost: %w", err)
	}
	if err := s.productRepo.SetVariationBOMCost(ctx, variationID, &cost); err != nil {
		return fmt.Errorf("persist variation cost: %w", err)
	}
	return nil
}
