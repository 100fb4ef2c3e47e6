package models

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
)

var ErrPropertyNotFound = errors.New("property not found")

type Category string

const (
	CategoryCondo      Category = "CONDO"
	CategoryHouse      Category = "HOUSE"
	CategoryInvestment Category = "INVESTMENT"
	CategoryLand       Category = "LAND"
	CategoryVilla      Category = "VILLA"
	CategoryTownhouse  Category = "TOWNHOUSE"
	CategoryCommercial Category = "COMMERCIAL"
)

type DealQuality string

const (
	DealQualitySuperDeal  DealQuality = "SUPER_DEAL"
	DealQualityGoodValue  DealQuality = "GOOD_VALUE"
	DealQualityFair       DealQuality = "FAIR"
	DealQualityOverpriced DealQuality = "OVERPRICED"
	// HighYield is a valid stored label that no scoring rule produces yet.
	DealQualityHighYield DealQuality = "HIGH_YIELD"
)

// Property is the listing row. Only the scoring engine's subset is modeled;
// the rest of the listing lives with the CRUD layer.
type Property struct {
	ID        int64    `json:"id" gorm:"primaryKey"`
	Title     string   `json:"title"`
	Category  Category `json:"category" gorm:"index:idx_properties_peer_group"`
	Price     *float64 `json:"price"`
	RentPrice *float64 `json:"rent_price"`
	Size      *float64 `json:"size"`
	Floor     *int     `json:"floor"`
	Area      string   `json:"area" gorm:"index:idx_properties_peer_group"`
	City      string   `json:"city" gorm:"index:idx_properties_peer_group"`
	ProjectID *int64   `json:"project_id" gorm:"index"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	NearestBeachKm    *float64 `json:"nearest_beach_km"`
	NearestMallKm     *float64 `json:"nearest_mall_km"`
	NearestHospitalKm *float64 `json:"nearest_hospital_km"`
	NearestSchoolKm   *float64 `json:"nearest_school_km"`

	PricePerSqm           *float64 `json:"price_per_sqm"`
	AreaAvgPricePerSqm    *float64 `json:"area_avg_price_per_sqm"`
	ProjectAvgPricePerSqm *float64 `json:"project_avg_price_per_sqm"`
	PriceDeviation        *float64 `json:"price_deviation"`
	FairValueEstimate     *float64 `json:"fair_value_estimate"`
	EstimatedRentalYield  *float64 `json:"estimated_rental_yield"`
	PriceVsAreaAvg        *float64 `json:"price_vs_area_avg"`
	PriceVsProjectAvg     *float64 `json:"price_vs_project_avg"`

	LocationScore          *int           `json:"location_score"`
	ValueScore             *int           `json:"value_score"`
	InvestmentScore        *int           `json:"investment_score"`
	OverallScore           *int           `json:"overall_score" gorm:"index"`
	KeyFeatures            datatypes.JSON `json:"key_features"`
	TargetBuyer            datatypes.JSON `json:"target_buyer"`
	DealQuality            *DealQuality   `json:"deal_quality"`
	LastIntelligenceUpdate *time.Time     `json:"last_intelligence_update"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project groups condo units sold under one development.
type Project struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Area      string    `json:"area"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"created_at"`
}

// PeerCriteria selects the comparables for one property. When ProjectID is
// set the project peer group is returned, otherwise the area/city/category one.
type PeerCriteria struct {
	ExcludeID int64
	Area      string
	City      string
	Category  Category
	ProjectID *int64
}

// PeerListing is the slice of a comparable that the comparator needs.
type PeerListing struct {
	ID    int64
	Price float64
	Size  float64
}

// MarketComparison holds the market-derived columns written by the comparator.
type MarketComparison struct {
	PricePerSqm           *float64 `json:"price_per_sqm"`
	AreaAvgPricePerSqm    *float64 `json:"area_avg_price_per_sqm"`
	ProjectAvgPricePerSqm *float64 `json:"project_avg_price_per_sqm"`
	PriceDeviation        *float64 `json:"price_deviation"`
	FairValueEstimate     *float64 `json:"fair_value_estimate"`
	EstimatedRentalYield  *float64 `json:"estimated_rental_yield"`
	PriceVsAreaAvg        *float64 `json:"price_vs_area_avg"`
	PriceVsProjectAvg     *float64 `json:"price_vs_project_avg"`
}

// MarketComparison returns the stored market-derived fields.
func (p *Property) MarketComparison() MarketComparison {
	return MarketComparison{
		PricePerSqm:           p.PricePerSqm,
		AreaAvgPricePerSqm:    p.AreaAvgPricePerSqm,
		ProjectAvgPricePerSqm: p.ProjectAvgPricePerSqm,
		PriceDeviation:        p.PriceDeviation,
		FairValueEstimate:     p.FairValueEstimate,
		EstimatedRentalYield:  p.EstimatedRentalYield,
		PriceVsAreaAvg:        p.PriceVsAreaAvg,
		PriceVsProjectAvg:     p.PriceVsProjectAvg,
	}
}

// ScoreUpdate holds the score columns written by a scoring pass.
type ScoreUpdate struct {
	LocationScore   int
	ValueScore      int
	InvestmentScore int
	OverallScore    int
	KeyFeatures     []string
	TargetBuyer     []string
	DealQuality     *DealQuality
	UpdatedAt       time.Time
}

// ProximityUpdate holds the nearest point-of-interest distances in km.
type ProximityUpdate struct {
	NearestBeachKm    *float64
	NearestMallKm     *float64
	NearestHospitalKm *float64
	NearestSchoolKm   *float64
}

// IntelligenceStats summarizes scoring coverage across stored properties.
type IntelligenceStats struct {
	TotalProperties     int                 `json:"total_properties"`
	ScoredProperties    int                 `json:"scored_properties"`
	AverageOverallScore float64             `json:"average_overall_score"`
	AveragePricePerSqm  float64             `json:"average_price_per_sqm"`
	AverageRentalYield  float64             `json:"average_rental_yield"`
	DealQualityCounts   map[DealQuality]int `json:"deal_quality_counts"`
}

// Tags decodes a JSON tag column, returning nil for empty or invalid data.
func Tags(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil
	}
	return tags
}
