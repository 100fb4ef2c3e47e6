// Package market derives per-square-meter baselines, a fair value estimate,
// price deviation and rental yield for a listing from its comparables.
package market

import "propintel/server/internal/models"

// Params are the comparator constants. The average floor is an assumption,
// not something derived from peer data.
type Params struct {
	AverageFloor float64
	FloorStep    float64
}

func DefaultParams() Params {
	return Params{AverageFloor: 10, FloorStep: 0.005}
}

// Subject is the listing being compared.
type Subject struct {
	Category  models.Category
	Price     float64
	Size      float64
	RentPrice *float64
	Floor     *int
}

// Eligible reports whether the subject has the price and size a comparison needs.
func (s Subject) Eligible() bool {
	return s.Price > 0 && s.Size > 0
}

// SubjectFromProperty returns false when price or size is missing or not positive.
func SubjectFromProperty(p *models.Property) (Subject, bool) {
	if p.Price == nil || p.Size == nil {
		return Subject{}, false
	}
	s := Subject{
		Category:  p.Category,
		Price:     *p.Price,
		Size:      *p.Size,
		RentPrice: p.RentPrice,
		Floor:     p.Floor,
	}
	return s, s.Eligible()
}

// AveragePricePerSqm is the arithmetic mean of price/size over the peers with
// a positive size. It returns nil for an empty peer set.
func AveragePricePerSqm(peers []models.PeerListing) *float64 {
	var total float64
	var count int
	for _, p := range peers {
		if p.Size <= 0 {
			continue
		}
		total += p.Price / p.Size
		count++
	}
	if count == 0 {
		return nil
	}
	avg := total / float64(count)
	return &avg
}

// FloorAdjustment is the fair-value multiplier for the subject's floor.
// Only condos with a known floor are adjusted.
func FloorAdjustment(s Subject, params Params) float64 {
	if s.Category != models.CategoryCondo || s.Floor == nil {
		return 1
	}
	return 1 + (float64(*s.Floor)-params.AverageFloor)*params.FloorStep
}

// RentalYield is the gross annual yield in percent, nil without rent or price.
func RentalYield(rentPrice *float64, price float64) *float64 {
	if rentPrice == nil || price <= 0 {
		return nil
	}
	y := *rentPrice * 12 / price * 100
	return &y
}

func percentDiff(value float64, base *float64) *float64 {
	if base == nil || *base == 0 {
		return nil
	}
	d := (value - *base) / *base * 100
	return &d
}

// Compare builds the market comparison for an eligible subject. The project
// average is preferred as the fair-value baseline; without either average the
// fair value and deviation stay nil.
func Compare(s Subject, areaPeers, projectPeers []models.PeerListing, params Params) models.MarketComparison {
	pricePerSqm := s.Price / s.Size
	areaAvg := AveragePricePerSqm(areaPeers)
	projectAvg := AveragePricePerSqm(projectPeers)

	result := models.MarketComparison{
		PricePerSqm:           &pricePerSqm,
		AreaAvgPricePerSqm:    areaAvg,
		ProjectAvgPricePerSqm: projectAvg,
		EstimatedRentalYield:  RentalYield(s.RentPrice, s.Price),
		PriceVsAreaAvg:        percentDiff(pricePerSqm, areaAvg),
		PriceVsProjectAvg:     percentDiff(pricePerSqm, projectAvg),
	}

	baseline := projectAvg
	if baseline == nil {
		baseline = areaAvg
	}
	if baseline == nil {
		return result
	}

	fairValue := *baseline * s.Size * FloorAdjustment(s, params)
	if fairValue <= 0 {
		return result
	}
	result.FairValueEstimate = &fairValue
	result.PriceDeviation = percentDiff(s.Price, &fairValue)
	return result
}
