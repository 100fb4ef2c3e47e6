package intelligence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propintel/server/internal/database"
	"propintel/server/internal/models"
)

func setupTestDB(t *testing.T) *database.Database {
	db, err := database.NewTestDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestIntegration_ProjectCondoWithFloorPremium(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	projectID := int64(1)

	require.NoError(t, db.InsertProperties(ctx, []*models.Property{
		{ID: 1, Category: models.CategoryCondo, Area: "Jomtien", City: "Pattaya", ProjectID: &projectID,
			Price: ptr(5_000_000.0), Size: ptr(50.0), Floor: ptr(15)},
		{ID: 2, Category: models.CategoryCondo, Area: "Jomtien", City: "Pattaya", ProjectID: &projectID,
			Price: ptr(4_400_000.0), Size: ptr(50.0)},
		{ID: 3, Category: models.CategoryCondo, Area: "Jomtien", City: "Pattaya", ProjectID: &projectID,
			Price: ptr(4_500_000.0), Size: ptr(50.0)},
		{ID: 4, Category: models.CategoryCondo, Area: "Jomtien", City: "Pattaya", ProjectID: &projectID,
			Price: ptr(4_600_000.0), Size: ptr(50.0)},
	}))

	svc := newTestService(db)
	result, err := svc.UpdatePropertyIntelligence(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, result)

	p, err := db.GetProperty(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p.FairValueEstimate)
	assert.InDelta(t, 4_612_500, *p.FairValueEstimate, 0.01)
	assert.InDelta(t, 90_000, *p.ProjectAvgPricePerSqm, 0.01)
	assert.InDelta(t, 8.401, *p.PriceDeviation, 0.001)
	assert.InDelta(t, 100_000, *p.PricePerSqm, 0.01)
	assert.InDelta(t, 11.11, *p.PriceVsProjectAvg, 0.01)

	// +8.4% sits in the 50..25 band, closer to 25
	assert.Equal(t, 29, result.ValueScore)
	assert.Equal(t, 29, *p.ValueScore)
	assert.Equal(t, result.OverallScore, *p.OverallScore)
	require.NotNil(t, p.LastIntelligenceUpdate)
	assert.True(t, fixedNow.Equal(*p.LastIntelligenceUpdate))
}

func TestIntegration_RentalYield(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertProperties(ctx, []*models.Property{
		{ID: 1, Category: models.CategoryCondo, Area: "Naklua", City: "Pattaya",
			Price: ptr(3_000_000.0), RentPrice: ptr(30_000.0), Size: ptr(35.0)},
	}))

	result, err := newTestService(db).UpdatePropertyIntelligence(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, result)

	p, err := db.GetProperty(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p.EstimatedRentalYield)
	assert.InDelta(t, 12, *p.EstimatedRentalYield, 1e-9)
	assert.Equal(t, 100, result.InvestmentScore)
	assert.Contains(t, models.Tags(p.TargetBuyer), "Investor")
	assert.Contains(t, models.Tags(p.TargetBuyer), "First-Time Buyer")
}

func TestIntegration_NoComparables(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertProperties(ctx, []*models.Property{
		{ID: 1, Category: models.CategoryVilla, Area: "Huay Yai", City: "Pattaya",
			Price: ptr(12_000_000.0), Size: ptr(300.0)},
		{ID: 2, Category: models.CategoryCondo, Area: "Huay Yai", City: "Pattaya",
			Price: ptr(2_000_000.0), Size: ptr(40.0)},
	}))

	result, err := newTestService(db).UpdatePropertyIntelligence(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, result)

	p, err := db.GetProperty(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, p.PricePerSqm)
	assert.Nil(t, p.AreaAvgPricePerSqm)
	assert.Nil(t, p.ProjectAvgPricePerSqm)
	assert.Nil(t, p.PriceDeviation)
	assert.Nil(t, p.FairValueEstimate)
	assert.Equal(t, 50, result.ValueScore)
	assert.Equal(t, 50, result.OverallScore)
}

func TestIntegration_UpdateAll(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertProperties(ctx, []*models.Property{
		{ID: 1, Category: models.CategoryCondo, Area: "Jomtien", City: "Pattaya", Price: ptr(3_000_000.0), Size: ptr(40.0)},
		{ID: 2, Category: models.CategoryCondo, Area: "Jomtien", City: "Pattaya", Price: ptr(2_400_000.0), Size: ptr(40.0)},
		{ID: 3, Category: models.CategoryLand, Area: "Jomtien", City: "Pattaya"},
	}))

	result, err := newTestService(db).UpdateAllPropertyIntelligence(ctx)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Updated: 3, Errors: 0}, result)

	cheap, err := db.GetProperty(ctx, 2)
	require.NoError(t, err)
	assert.InDelta(t, -20, *cheap.PriceDeviation, 1e-9)
	assert.Equal(t, 100, *cheap.ValueScore)

	land, err := db.GetProperty(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, land.PricePerSqm)
	assert.Equal(t, 50, *land.OverallScore)

	stats, err := db.GetIntelligenceStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.ScoredProperties)
}

// cancellingRepository cancels the batch context once a number of properties
// have been loaded, like an HTTP client dropping the connection.
type cancellingRepository struct {
	*database.Database
	cancel  context.CancelFunc
	after   int
	fetched int
}

func (r *cancellingRepository) GetProperty(ctx context.Context, id int64) (*models.Property, error) {
	r.fetched++
	if r.fetched == r.after {
		r.cancel()
	}
	return r.Database.GetProperty(ctx, id)
}

func TestIntegration_UpdateAllSurvivesCancellation(t *testing.T) {
	db := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	properties := make([]*models.Property, 0, 10)
	for id := int64(1); id <= 10; id++ {
		properties = append(properties, &models.Property{
			ID: id, Category: models.CategoryCondo, Area: "Jomtien", City: "Pattaya",
			Price: ptr(2_000_000.0 + float64(id)*100_000), Size: ptr(40.0),
		})
	}
	require.NoError(t, db.InsertProperties(context.Background(), properties))

	repo := &cancellingRepository{Database: db, cancel: cancel, after: 3}
	result, err := newTestService(repo).UpdateAllPropertyIntelligence(ctx)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Updated: 10, Errors: 0}, result)
	require.Error(t, ctx.Err())

	for id := int64(1); id <= 10; id++ {
		p, err := db.GetProperty(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, p.LastIntelligenceUpdate, "property %d", id)
		assert.NotNil(t, p.FairValueEstimate, "property %d", id)
	}
}

func TestIntegration_UpdateLeavesListingTimestampAlone(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	edited := time.Date(2025, 11, 20, 8, 30, 0, 0, time.UTC)

	require.NoError(t, db.InsertProperties(ctx, []*models.Property{
		{ID: 1, Category: models.CategoryCondo, Area: "Jomtien", City: "Pattaya",
			Price: ptr(2_400_000.0), Size: ptr(40.0), Latitude: ptr(12.885), Longitude: ptr(100.875),
			CreatedAt: edited, UpdatedAt: edited},
		{ID: 2, Category: models.CategoryCondo, Area: "Jomtien", City: "Pattaya",
			Price: ptr(3_000_000.0), Size: ptr(40.0), CreatedAt: edited, UpdatedAt: edited},
	}))
	require.NoError(t, db.InsertPointsOfInterest(ctx, []*models.PointOfInterest{
		{Kind: models.POIBeach, Name: "Jomtien Beach", City: "Pattaya", Latitude: 12.885, Longitude: 100.873},
	}))

	svc := newTestService(db)
	result, err := svc.UpdatePropertyIntelligence(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NoError(t, svc.UpdateProximity(ctx, 1))

	p, err := db.GetProperty(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p.LastIntelligenceUpdate)
	require.NotNil(t, p.NearestBeachKm)
	assert.True(t, edited.Equal(p.UpdatedAt), "updated_at moved to %s", p.UpdatedAt)
}
