// Package proximity computes the nearest point-of-interest distances that the
// location score consumes.
package proximity

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"propintel/server/internal/models"
)

// Distances holds the nearest distance in kilometers per kind; nil means no
// point of that kind is known.
type Distances struct {
	BeachKm    *float64 `json:"nearest_beach_km"`
	MallKm     *float64 `json:"nearest_mall_km"`
	HospitalKm *float64 `json:"nearest_hospital_km"`
	SchoolKm   *float64 `json:"nearest_school_km"`
}

// Origin returns the property's location as an orb point (lon, lat).
func Origin(p *models.Property) (orb.Point, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return orb.Point{}, false
	}
	return orb.Point{*p.Longitude, *p.Latitude}, true
}

// Nearest finds, per kind, the haversine distance to the closest point.
func Nearest(origin orb.Point, pois []models.PointOfInterest) Distances {
	nearest := make(map[models.POIKind]float64)
	for _, poi := range pois {
		km := geo.DistanceHaversine(origin, orb.Point{poi.Longitude, poi.Latitude}) / 1000
		if best, ok := nearest[poi.Kind]; !ok || km < best {
			nearest[poi.Kind] = km
		}
	}

	pick := func(kind models.POIKind) *float64 {
		km, ok := nearest[kind]
		if !ok {
			return nil
		}
		return &km
	}

	return Distances{
		BeachKm:    pick(models.POIBeach),
		MallKm:     pick(models.POIMall),
		HospitalKm: pick(models.POIHospital),
		SchoolKm:   pick(models.POISchool),
	}
}

func (d Distances) Update() models.ProximityUpdate {
	return models.ProximityUpdate{
		NearestBeachKm:    d.BeachKm,
		NearestMallKm:     d.MallKm,
		NearestHospitalKm: d.HospitalKm,
		NearestSchoolKm:   d.SchoolKm,
	}
}
