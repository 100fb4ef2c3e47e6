// Package scoring turns a property's attributes and market comparison into
// location, value, investment and overall scores plus descriptive labels.
// Everything here is pure: the same Input always yields the same Result.
package scoring

import (
	"math"

	"propintel/server/internal/models"
)

// NeutralScore is used for any signal without data.
const NeutralScore = 50

// Input is the attribute snapshot consumed by CalculatePropertyScores.
// A nil field means the value is unknown, which is not the same as zero.
type Input struct {
	Category  models.Category
	Price     *float64
	RentPrice *float64
	Size      *float64
	Floor     *int

	NearestBeachKm    *float64
	NearestMallKm     *float64
	NearestHospitalKm *float64
	NearestSchoolKm   *float64

	PricePerSqm          *float64
	AreaAvgPricePerSqm   *float64
	PriceDeviation       *float64
	EstimatedRentalYield *float64
}

// Result is the output of one scoring pass.
type Result struct {
	LocationScore   int                 `json:"location_score"`
	ValueScore      int                 `json:"value_score"`
	InvestmentScore int                 `json:"investment_score"`
	OverallScore    int                 `json:"overall_score"`
	DealQuality     *models.DealQuality `json:"deal_quality"`
	KeyFeatures     []string            `json:"key_features"`
	TargetBuyer     []string            `json:"target_buyer"`
}

// InputFromProperty copies the scoring attributes out of a stored property.
func InputFromProperty(p *models.Property) Input {
	return Input{
		Category:             p.Category,
		Price:                p.Price,
		RentPrice:            p.RentPrice,
		Size:                 p.Size,
		Floor:                p.Floor,
		NearestBeachKm:       p.NearestBeachKm,
		NearestMallKm:        p.NearestMallKm,
		NearestHospitalKm:    p.NearestHospitalKm,
		NearestSchoolKm:      p.NearestSchoolKm,
		PricePerSqm:          p.PricePerSqm,
		AreaAvgPricePerSqm:   p.AreaAvgPricePerSqm,
		PriceDeviation:       p.PriceDeviation,
		EstimatedRentalYield: p.EstimatedRentalYield,
	}
}

type weightedCurve struct {
	distance *float64
	curve    Curve
	weight   float64
}

// LocationScore averages the weighted distance sub-scores that are present.
func LocationScore(in Input) int {
	parts := []weightedCurve{
		{in.NearestBeachKm, BeachCurve, 1.2},
		{in.NearestMallKm, MallCurve, 1.0},
		{in.NearestHospitalKm, HospitalCurve, 0.8},
		{in.NearestSchoolKm, SchoolCurve, 0.9},
	}

	var total float64
	var count int
	for _, p := range parts {
		if p.distance == nil {
			continue
		}
		total += p.curve.Score(*p.distance) * p.weight
		count++
	}
	if count == 0 {
		return NeutralScore
	}
	return roundScore(math.Min(100, total/float64(count)))
}

// ValueScore prefers the fair-value deviation and falls back to the raw
// price per sqm against the area average.
func ValueScore(in Input) int {
	if in.PriceDeviation != nil {
		return roundScore(ValueCurve.Score(*in.PriceDeviation))
	}
	if in.PricePerSqm != nil && in.AreaAvgPricePerSqm != nil && *in.AreaAvgPricePerSqm > 0 {
		deviation := (*in.PricePerSqm - *in.AreaAvgPricePerSqm) / *in.AreaAvgPricePerSqm * 100
		return roundScore(ValueFallback.Score(deviation))
	}
	return NeutralScore
}

// InvestmentScore prefers the stored rental yield and falls back to a yield
// computed from rent and price.
func InvestmentScore(in Input) int {
	if in.EstimatedRentalYield != nil {
		return roundScore(InvestmentCurve.Score(*in.EstimatedRentalYield))
	}
	if in.RentPrice != nil && in.Price != nil && *in.Price > 0 {
		yield := *in.RentPrice * 12 / *in.Price * 100
		return roundScore(InvestmentFallback.Score(yield))
	}
	return NeutralScore
}

// OverallScore blends the three component scores.
func OverallScore(location, value, investment int) int {
	return roundScore(float64(location)*0.30 + float64(value)*0.35 + float64(investment)*0.35)
}

// CalculatePropertyScores is total over its input: every missing signal
// degrades to NeutralScore.
func CalculatePropertyScores(in Input) Result {
	location := LocationScore(in)
	value := ValueScore(in)
	investment := InvestmentScore(in)

	quality := DealQualityFor(value, investment)
	return Result{
		LocationScore:   location,
		ValueScore:      value,
		InvestmentScore: investment,
		OverallScore:    OverallScore(location, value, investment),
		DealQuality:     &quality,
		KeyFeatures:     KeyFeatures(in, location, value, investment),
		TargetBuyer:     TargetBuyers(in, value, investment),
	}
}
