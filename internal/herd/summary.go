// Package herd строит сводку по стаду из карточек животных и взвешиваний.
package herd

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bijaagro/farm-api/internal/models"
)

// Summarize считает сводку. Функция не обращается к хранилищу и не может завершиться ошибкой.
//
// Вес животного берется из последнего взвешивания по дате, затем из currentWeight.
// Животные без положительного веса в среднее не входят.
func Summarize(animals []models.Animal, weights []models.WeightRecord) models.AnimalSummary {
	summary := models.AnimalSummary{
		TotalAnimals:    len(animals),
		ByType:          make(map[string]int),
		ByGender:        make(map[string]int),
		ByStatus:        make(map[string]int),
		TotalInvestment: decimal.Zero,
		TotalRevenue:    decimal.Zero,
	}

	latest := latestWeights(weights)

	var (
		weightSum   float64
		weightCount int
	)

	for _, a := range animals {
		summary.ByType[a.Type]++
		summary.ByGender[a.Gender]++
		summary.ByStatus[string(a.Status)]++

		switch a.Status {
		case models.AnimalStatusActive:
			summary.Active++
		case models.AnimalStatusSold:
			summary.Sold++
		case models.AnimalStatusDead:
			summary.Dead++
		case models.AnimalStatusReadyToSell:
			summary.ReadyToSell++
		}

		if w, ok := animalWeight(a, latest); ok {
			weightSum += w
			weightCount++
		}

		if a.PurchasePrice != nil {
			summary.TotalInvestment = summary.TotalInvestment.Add(*a.PurchasePrice)
		}
		if a.Status == models.AnimalStatusSold && a.SalePrice != nil {
			summary.TotalRevenue = summary.TotalRevenue.Add(*a.SalePrice)
		}
	}

	if weightCount > 0 {
		summary.AverageWeight = math.Round(weightSum/float64(weightCount)*100) / 100
	}
	summary.ProfitLoss = summary.TotalRevenue.Sub(summary.TotalInvestment)

	return summary
}

// latestWeights выбирает для каждого животного запись с наибольшей датой.
// При равных датах остается первая по порядку.
func latestWeights(weights []models.WeightRecord) map[uuid.UUID]models.WeightRecord {
	latest := make(map[uuid.UUID]models.WeightRecord, len(weights))
	for _, w := range weights {
		if w.Weight <= 0 {
			continue
		}
		current, ok := latest[w.AnimalID]
		if !ok || w.Date > current.Date {
			latest[w.AnimalID] = w
		}
	}
	return latest
}

func animalWeight(a models.Animal, latest map[uuid.UUID]models.WeightRecord) (float64, bool) {
	if w, ok := latest[a.ID]; ok {
		return w.Weight, true
	}
	if a.CurrentWeight != nil && *a.CurrentWeight > 0 {
		return *a.CurrentWeight, true
	}
	return 0, false
}
