package models

import "strings"

// DealAlertFilters narrows which new super deals are sent to Telegram
type DealAlertFilters struct {
	MinPrice        *float64   `json:"min_price"`
	MaxPrice        *float64   `json:"max_price"`
	MinSize         *float64   `json:"min_size"`
	MaxSize         *float64   `json:"max_size"`
	MinOverallScore *int       `json:"min_overall_score"`
	Cities          []string   `json:"cities"`
	Categories      []Category `json:"categories"`
}

// IsPropertyAllowed checks if a property and its new overall score match the
// filter criteria
func (f *DealAlertFilters) IsPropertyAllowed(property *Property, overallScore int) bool {
	if f == nil {
		return true // No filters means allow all
	}

	// Check price range
	if f.MinPrice != nil || f.MaxPrice != nil {
		if property.Price == nil {
			return false
		}
		if f.MinPrice != nil && *property.Price < *f.MinPrice {
			return false
		}
		if f.MaxPrice != nil && *property.Price > *f.MaxPrice {
			return false
		}
	}

	// Check size range
	if property.Size != nil {
		if f.MinSize != nil && *property.Size < *f.MinSize {
			return false
		}
		if f.MaxSize != nil && *property.Size > *f.MaxSize {
			return false
		}
	} else if f.MinSize != nil || f.MaxSize != nil {
		return false // Filter requires a size but property has none
	}

	if f.MinOverallScore != nil && overallScore < *f.MinOverallScore {
		return false
	}

	if len(f.Cities) > 0 {
		allowed := false
		for _, city := range f.Cities {
			if strings.EqualFold(city, property.City) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if len(f.Categories) > 0 {
		allowed := false
		for _, category := range f.Categories {
			if category == property.Category {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	return true
}
