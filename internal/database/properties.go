package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"propintel/server/internal/models"
)

func (d *Database) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	var p models.Property
	err := d.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrPropertyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property %d: %w", id, err)
	}
	return &p, nil
}

// ListPeers returns the comparables for a property: every other listing with
// a price and a positive size, either in the same project or in the same
// area, city and category.
func (d *Database) ListPeers(ctx context.Context, c models.PeerCriteria) ([]models.PeerListing, error) {
	query := d.db.WithContext(ctx).
		Model(&models.Property{}).
		Select("id, price, size").
		Where("id <> ?", c.ExcludeID).
		Where("price IS NOT NULL AND size > 0")

	if c.ProjectID != nil {
		query = query.Where("project_id = ?", *c.ProjectID)
	} else {
		query = query.Where("area = ? AND city = ? AND category = ?", c.Area, c.City, c.Category)
	}

	var peers []models.PeerListing
	if err := query.Order("id").Scan(&peers).Error; err != nil {
		return nil, fmt.Errorf("failed to list peers for property %d: %w", c.ExcludeID, err)
	}
	return peers, nil
}

func (d *Database) ListPropertyIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := d.db.WithContext(ctx).Model(&models.Property{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list property ids: %w", err)
	}
	return ids, nil
}

// updateFields writes only the named columns. updated_at tracks listing edits
// and is not touched by derived-field refreshes.
func (d *Database) updateFields(ctx context.Context, id int64, fields map[string]any) error {
	result := d.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ?", id).
		UpdateColumns(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update property %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrPropertyNotFound
	}
	return nil
}

// UpdateMarketComparison writes the market-derived columns. Nil values are
// stored as NULL so stale comparisons do not survive a refresh.
func (d *Database) UpdateMarketComparison(ctx context.Context, id int64, c models.MarketComparison) error {
	return d.updateFields(ctx, id, map[string]any{
		"price_per_sqm":             c.PricePerSqm,
		"area_avg_price_per_sqm":    c.AreaAvgPricePerSqm,
		"project_avg_price_per_sqm": c.ProjectAvgPricePerSqm,
		"price_deviation":           c.PriceDeviation,
		"fair_value_estimate":       c.FairValueEstimate,
		"estimated_rental_yield":    c.EstimatedRentalYield,
		"price_vs_area_avg":         c.PriceVsAreaAvg,
		"price_vs_project_avg":      c.PriceVsProjectAvg,
	})
}

func encodeTags(tags []string) (datatypes.JSON, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func (d *Database) UpdateScores(ctx context.Context, id int64, s models.ScoreUpdate) error {
	features, err := encodeTags(s.KeyFeatures)
	if err != nil {
		return fmt.Errorf("failed to encode key features: %w", err)
	}
	buyers, err := encodeTags(s.TargetBuyer)
	if err != nil {
		return fmt.Errorf("failed to encode target buyer: %w", err)
	}

	return d.updateFields(ctx, id, map[string]any{
		"location_score":           s.LocationScore,
		"value_score":              s.ValueScore,
		"investment_score":         s.InvestmentScore,
		"overall_score":            s.OverallScore,
		"key_features":             features,
		"target_buyer":             buyers,
		"deal_quality":             s.DealQuality,
		"last_intelligence_update": s.UpdatedAt,
	})
}

func (d *Database) UpdateProximity(ctx context.Context, id int64, u models.ProximityUpdate) error {
	return d.updateFields(ctx, id, map[string]any{
		"nearest_beach_km":    u.NearestBeachKm,
		"nearest_mall_km":     u.NearestMallKm,
		"nearest_hospital_km": u.NearestHospitalKm,
		"nearest_school_km":   u.NearestSchoolKm,
	})
}

func (d *Database) ListPointsOfInterest(ctx context.Context) ([]models.PointOfInterest, error) {
	var pois []models.PointOfInterest
	if err := d.db.WithContext(ctx).Order("id").Find(&pois).Error; err != nil {
		return nil, fmt.Errorf("failed to list points of interest: %w", err)
	}
	return pois, nil
}

// ListScoredProperties returns scored properties with coordinates, optionally
// limited to one city.
func (d *Database) ListScoredProperties(ctx context.Context, city string) ([]models.Property, error) {
	query := d.db.WithContext(ctx).
		Where("overall_score IS NOT NULL").
		Where("latitude IS NOT NULL AND longitude IS NOT NULL")
	if city != "" {
		query = query.Where("LOWER(city) = LOWER(?)", city)
	}

	var properties []models.Property
	if err := query.Order("overall_score DESC, id").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list scored properties: %w", err)
	}
	return properties, nil
}

// InsertProperties inserts a batch of properties in one transaction.
func (d *Database) InsertProperties(ctx context.Context, properties []*models.Property) error {
	if len(properties) == 0 {
		return nil
	}
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(properties).Error; err != nil {
			return fmt.Errorf("failed to insert properties: %w", err)
		}
		return nil
	})
}

func (d *Database) InsertPointsOfInterest(ctx context.Context, pois []*models.PointOfInterest) error {
	if len(pois) == 0 {
		return nil
	}
	if err := d.db.WithContext(ctx).Create(pois).Error; err != nil {
		return fmt.Errorf("failed to insert points of interest: %w", err)
	}
	return nil
}
