package models

import "time"

type POIKind string

const (
	POIBeach    POIKind = "beach"
	POIMall     POIKind = "mall"
	POIHospital POIKind = "hospital"
	POISchool   POIKind = "school"
)

func (k POIKind) Valid() bool {
	switch k {
	case POIBeach, POIMall, POIHospital, POISchool:
		return true
	}
	return false
}

// PointOfInterest is a geocoded amenity used for proximity distances.
type PointOfInterest struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Kind      POIKind   `json:"kind" gorm:"index"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

func (PointOfInterest) TableName() string {
	return "points_of_interest"
}
