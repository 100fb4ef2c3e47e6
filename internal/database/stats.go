package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"propintel/server/internal/models"
)

// GetIntelligenceStats summarizes scoring coverage and deal labels, optionally
// for one city.
func (d *Database) GetIntelligenceStats(ctx context.Context, city string) (models.IntelligenceStats, error) {
	base := d.db.WithContext(ctx).Model(&models.Property{})
	if city != "" {
		base = base.Where("LOWER(city) = LOWER(?)", city)
	}
	base = base.Session(&gorm.Session{})

	var stats models.IntelligenceStats
	var row struct {
		TotalProperties     int64
		ScoredProperties    int64
		AverageOverallScore *float64
		AveragePricePerSqm  *float64
		AverageRentalYield  *float64
	}
	err := base.Select(`
		COUNT(*) AS total_properties,
		COUNT(overall_score) AS scored_properties,
		AVG(overall_score) AS average_overall_score,
		AVG(price_per_sqm) AS average_price_per_sqm,
		AVG(estimated_rental_yield) AS average_rental_yield
	`).Scan(&row).Error
	if err != nil {
		return stats, fmt.Errorf("failed to get intelligence stats: %w", err)
	}

	stats.TotalProperties = int(row.TotalProperties)
	stats.ScoredProperties = int(row.ScoredProperties)
	if row.AverageOverallScore != nil {
		stats.AverageOverallScore = *row.AverageOverallScore
	}
	if row.AveragePricePerSqm != nil {
		stats.AveragePricePerSqm = *row.AveragePricePerSqm
	}
	if row.AverageRentalYield != nil {
		stats.AverageRentalYield = *row.AverageRentalYield
	}

	var counts []struct {
		DealQuality models.DealQuality
		Count       int
	}
	err = base.
		Select("deal_quality, COUNT(*) AS count").
		Where("deal_quality IS NOT NULL").
		Group("deal_quality").
		Scan(&counts).Error
	if err != nil {
		return stats, fmt.Errorf("failed to count deal qualities: %w", err)
	}

	stats.DealQualityCounts = make(map[models.DealQuality]int, len(counts))
	for _, c := range counts {
		stats.DealQualityCounts[c.DealQuality] = c.Count
	}
	return stats, nil
}
