package scoring

import "propintel/server/internal/models"

const (
	maxKeyFeatures = 5
	maxTargetBuyer = 3
)

const (
	FeatureBeachfront    = "Beachfront"
	FeatureNearBeach     = "Near Beach"
	FeatureNearShopping  = "Near Shopping"
	FeatureBelowMarket   = "Below Market"
	FeatureGoodValue     = "Good Value"
	FeatureHighYield     = "High Yield"
	FeatureGoodROI       = "Good ROI"
	FeaturePrimeLocation = "Prime Location"

	BuyerInvestor      = "Investor"
	BuyerRetiree       = "Retiree"
	BuyerFamily        = "Family"
	BuyerValueSeeker   = "Value Seeker"
	BuyerFirstTimeHome = "First-Time Buyer"
)

// CombinedDealScore weighs value over investment for the deal label.
func CombinedDealScore(value, investment int) float64 {
	return float64(value)*0.6 + float64(investment)*0.4
}

// DealQualityFor derives the deal label from the value and investment scores.
// HIGH_YIELD is never produced here.
func DealQualityFor(value, investment int) models.DealQuality {
	return DealQualityForCombined(CombinedDealScore(value, investment))
}

func DealQualityForCombined(combined float64) models.DealQuality {
	switch {
	case combined >= 85:
		return models.DealQualitySuperDeal
	case combined >= 70:
		return models.DealQualityGoodValue
	case combined >= 40:
		return models.DealQualityFair
	default:
		return models.DealQualityOverpriced
	}
}

func within(distance *float64, km float64) bool {
	return distance != nil && *distance <= km
}

// KeyFeatures lists up to five highlight tags in priority order.
func KeyFeatures(in Input, location, value, investment int) []string {
	features := make([]string, 0, maxKeyFeatures)
	add := func(tag string) {
		if len(features) < maxKeyFeatures {
			features = append(features, tag)
		}
	}

	switch {
	case within(in.NearestBeachKm, 0.5):
		add(FeatureBeachfront)
	case within(in.NearestBeachKm, 1):
		add(FeatureNearBeach)
	}
	if within(in.NearestMallKm, 1) {
		add(FeatureNearShopping)
	}
	switch {
	case value >= 85:
		add(FeatureBelowMarket)
	case value >= 70:
		add(FeatureGoodValue)
	}
	switch {
	case investment >= 85:
		add(FeatureHighYield)
	case investment >= 70:
		add(FeatureGoodROI)
	}
	if location >= 80 {
		add(FeaturePrimeLocation)
	}
	return features
}

// TargetBuyers lists up to three buyer profiles in priority order.
func TargetBuyers(in Input, value, investment int) []string {
	buyers := make([]string, 0, maxTargetBuyer)
	add := func(tag string) {
		if len(buyers) < maxTargetBuyer {
			buyers = append(buyers, tag)
		}
	}

	if investment >= 70 {
		add(BuyerInvestor)
	}
	if within(in.NearestBeachKm, 2) && within(in.NearestHospitalKm, 5) {
		add(BuyerRetiree)
	}
	if within(in.NearestSchoolKm, 2) {
		add(BuyerFamily)
	}
	if value >= 75 {
		add(BuyerValueSeeker)
	}
	if in.Size != nil && *in.Size <= 50 && in.Category == models.CategoryCondo {
		add(BuyerFirstTimeHome)
	}
	return buyers
}
