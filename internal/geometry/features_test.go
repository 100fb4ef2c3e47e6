package geometry

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propintel/server/internal/models"
)

func ptr[T any](v T) *T {
	return &v
}

func located(id int64, area string, lat, lon float64, score int) models.Property {
	return models.Property{
		ID:           id,
		Area:         area,
		City:         "Pattaya",
		Latitude:     ptr(lat),
		Longitude:    ptr(lon),
		OverallScore: ptr(score),
	}
}

func TestScoreMap(t *testing.T) {
	properties := []models.Property{
		located(1, "Jomtien", 12.88, 100.87, 72),
		{ID: 2, City: "Pattaya", OverallScore: ptr(90)},
		located(3, "Naklua", 12.96, 100.89, 55),
	}

	fc := ScoreMap(properties)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, orb.Point{100.87, 12.88}, fc.Features[0].Geometry)
	assert.Equal(t, int64(1), fc.Features[0].ID)
	assert.Equal(t, geojson.BBox{100.87, 12.88, 100.89, 12.96}, fc.BBox)

	raw, err := json.Marshal(fc)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "FeatureCollection", decoded["type"])
	props := decoded["features"].([]interface{})[1].(map[string]interface{})["properties"].(map[string]interface{})
	assert.Equal(t, float64(55), props["overall_score"])
	assert.Equal(t, "Naklua", props["area"])
}

func TestScoreMap_Empty(t *testing.T) {
	fc := ScoreMap(nil)
	assert.Empty(t, fc.Features)
	assert.Nil(t, fc.BBox)
}

func TestConvexHull(t *testing.T) {
	points := []orb.Point{
		{0, 0}, {2, 0}, {2, 2}, {0, 2},
		{1, 1}, // interior
		{2, 2}, // duplicate
		{1, 0}, // on an edge
	}

	hull := ConvexHull(points)
	require.NotNil(t, hull)
	assert.True(t, hull.Closed())
	assert.Len(t, hull, 5)
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 2}}, hull.Bound())
	assert.Equal(t, orb.CCW, hull.Orientation())

	// the input slice is left untouched
	assert.Equal(t, orb.Point{0, 0}, points[0])
	assert.Equal(t, orb.Point{1, 0}, points[6])
}

func TestConvexHull_Degenerate(t *testing.T) {
	assert.Nil(t, ConvexHull(nil))
	assert.Nil(t, ConvexHull([]orb.Point{{0, 0}, {1, 1}}))
	assert.Nil(t, ConvexHull([]orb.Point{{0, 0}, {1, 1}, {2, 2}}), "collinear")
	assert.Nil(t, ConvexHull([]orb.Point{{0, 0}, {0, 0}, {1, 1}}), "duplicates")
}

func TestAreaHulls(t *testing.T) {
	properties := []models.Property{
		located(1, "Jomtien", 12.88, 100.87, 60),
		located(2, "Jomtien", 12.89, 100.88, 80),
		located(3, "Jomtien", 12.87, 100.88, 70),
		located(4, "Naklua", 12.96, 100.89, 50),
		located(5, "Naklua", 12.97, 100.90, 40),
	}

	fc := AreaHulls(properties)
	require.Len(t, fc.Features, 1)

	feature := fc.Features[0]
	assert.Equal(t, "Jomtien", feature.Properties["area"])
	assert.Equal(t, 3, feature.Properties["property_count"])
	assert.InDelta(t, 70, feature.Properties["average_overall_score"].(float64), 1e-9)
	_, isPolygon := feature.Geometry.(orb.Polygon)
	assert.True(t, isPolygon)
}
