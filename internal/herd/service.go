package herd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bijaagro/farm-api/internal/models"
)

type AnimalLister interface {
	List(ctx context.Context, filter models.AnimalFilter) ([]models.Animal, error)
}

type WeightLister interface {
	List(ctx context.Context, animalID uuid.UUID) ([]models.WeightRecord, error)
}

type Service struct {
	animals AnimalLister
	weights WeightLister
}

// NewService создает сервис сводки по стаду.
func NewService(animals AnimalLister, weights WeightLister) *Service {
	return &Service{animals: animals, weights: weights}
}

// Summary загружает животных и взвешивания параллельно и считает сводку.
func (s *Service) Summary(ctx context.Context) (models.AnimalSummary, error) {
	var (
		animals []models.Animal
		weights []models.WeightRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		animals, err = s.animals.List(gctx, models.AnimalFilter{})
		if err != nil {
			return fmt.Errorf("list animals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		weights, err = s.weights.List(gctx, uuid.Nil)
		if err != nil {
			return fmt.Errorf("list weight records: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.AnimalSummary{}, err
	}

	return Summarize(animals, weights), nil
}
