package cli

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"propintel/server/internal/models"
)

func newPOICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poi",
		Short: "Manage points of interest",
	}
	cmd.AddCommand(newPOIImportCmd())
	return cmd
}

func newPOIImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.geojson>",
		Short: "Import points of interest from a GeoJSON FeatureCollection",
		Long: "Import point features whose properties carry a kind (beach, mall, hospital, school), " +
			"a name and optionally a city. Other features are skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			pois, skipped, err := parsePointsOfInterest(data)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.db.InsertPointsOfInterest(cmd.Context(), pois); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]int{
				"imported": len(pois),
				"skipped":  skipped,
			})
		},
	}
}

// parsePointsOfInterest keeps the point features with a known kind.
func parsePointsOfInterest(data []byte) ([]*models.PointOfInterest, int, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}

	pois := make([]*models.PointOfInterest, 0, len(fc.Features))
	skipped := 0
	for _, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		kind := models.POIKind(f.Properties.MustString("kind", ""))
		if !ok || !kind.Valid() {
			skipped++
			continue
		}
		pois = append(pois, &models.PointOfInterest{
			Kind:      kind,
			Name:      f.Properties.MustString("name", ""),
			City:      f.Properties.MustString("city", ""),
			Latitude:  pt.Lat(),
			Longitude: pt.Lon(),
		})
	}
	return pois, skipped, nil
}
