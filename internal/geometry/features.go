// Package geometry turns scored properties into GeoJSON for the map layers.
package geometry

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"propintel/server/internal/models"
)

// point returns the property location as (lon, lat).
func point(p *models.Property) (orb.Point, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return orb.Point{}, false
	}
	return orb.Point{*p.Longitude, *p.Latitude}, true
}

// PropertyFeature builds a point feature carrying the property's scores.
func PropertyFeature(p *models.Property) (*geojson.Feature, bool) {
	pt, ok := point(p)
	if !ok {
		return nil, false
	}

	feature := geojson.NewFeature(pt)
	feature.ID = p.ID
	feature.Properties = geojson.Properties{
		"id":               p.ID,
		"title":            p.Title,
		"category":         p.Category,
		"area":             p.Area,
		"city":             p.City,
		"price":            p.Price,
		"price_deviation":  p.PriceDeviation,
		"location_score":   p.LocationScore,
		"value_score":      p.ValueScore,
		"investment_score": p.InvestmentScore,
		"overall_score":    p.OverallScore,
		"deal_quality":     p.DealQuality,
		"key_features":     models.Tags(p.KeyFeatures),
	}
	return feature, true
}

// ScoreMap returns one point feature per located property, with the bounding
// box of all points.
func ScoreMap(properties []models.Property) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	var points orb.MultiPoint
	for i := range properties {
		feature, ok := PropertyFeature(&properties[i])
		if !ok {
			continue
		}
		fc.Append(feature)
		points = append(points, feature.Geometry.(orb.Point))
	}
	if len(points) > 0 {
		fc.BBox = geojson.NewBBox(points.Bound())
	}
	return fc
}

type areaKey struct {
	city string
	area string
}

type areaGroup struct {
	points []orb.Point
	scores []int
}

// AreaHulls groups located properties by city and area and returns the convex
// hull of each group with its average overall score. Areas with fewer than
// three distinct locations have no hull and are left out.
func AreaHulls(properties []models.Property) *geojson.FeatureCollection {
	groups := make(map[areaKey]*areaGroup)
	for i := range properties {
		p := &properties[i]
		pt, ok := point(p)
		if !ok || p.Area == "" {
			continue
		}
		key := areaKey{city: p.City, area: p.Area}
		g, ok := groups[key]
		if !ok {
			g = &areaGroup{}
			groups[key] = g
		}
		g.points = append(g.points, pt)
		if p.OverallScore != nil {
			g.scores = append(g.scores, *p.OverallScore)
		}
	}

	keys := make([]areaKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].city != keys[j].city {
			return keys[i].city < keys[j].city
		}
		return keys[i].area < keys[j].area
	})

	fc := geojson.NewFeatureCollection()
	for _, key := range keys {
		g := groups[key]
		hull := ConvexHull(g.points)
		if hull == nil {
			continue
		}

		feature := geojson.NewFeature(orb.Polygon{hull})
		feature.Properties = geojson.Properties{
			"area":           key.area,
			"city":           key.city,
			"property_count": len(g.points),
		}
		if len(g.scores) > 0 {
			total := 0
			for _, s := range g.scores {
				total += s
			}
			feature.Properties["average_overall_score"] = float64(total) / float64(len(g.scores))
		}
		fc.Append(feature)
	}
	return fc
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// ConvexHull returns the closed counter-clockwise hull ring of the points
// (monotone chain), or nil when fewer than three non-collinear points exist.
func ConvexHull(points []orb.Point) orb.Ring {
	pts := make([]orb.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	// Drop duplicate locations
	unique := pts[:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			unique = append(unique, p)
		}
	}
	pts = unique
	if len(pts) < 3 {
		return nil
	}

	hull := make([]orb.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// the last point repeats the first, which closes the ring
	if len(hull) < 4 {
		return nil
	}
	return orb.Ring(hull)
}
