package processor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"propintel/server/config"
	"propintel/server/internal/intelligence"
	"propintel/server/internal/market"
	"propintel/server/internal/models"
	"propintel/server/internal/queue"
)

func generateTestProperties(count int) []*models.Property {
	areas := []string{"Jomtien", "Pratumnak", "Naklua", "Wongamat"}
	properties := make([]*models.Property, count)
	for i := range properties {
		properties[i] = &models.Property{
			ID:       int64(i + 1),
			Category: models.CategoryCondo,
			Area:     areas[i%len(areas)],
			City:     "Pattaya",
			Price:    ptr(2_000_000 + float64(i*10_000)),
			Size:     ptr(30 + float64(i%40)),
		}
	}
	return properties
}

func BenchmarkProcessBatch(b *testing.B) {
	for _, count := range []int{10, 100, 500} {
		b.Run(fmt.Sprintf("Properties_%d", count), func(b *testing.B) {
			db := setupTestDB(b)
			require.NoError(b, db.InsertProperties(context.Background(), generateTestProperties(count)))

			logger := quietLogger()
			svc := intelligence.NewService(db, market.DefaultParams(), logger)
			processor := NewBatchProcessor(svc, queue.NewRefreshQueue(1, logger), config.QueueConfig{}, logger)

			ids := make([]int64, count)
			for i := range ids {
				ids[i] = int64(i + 1)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := processor.processBatch(ids); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
