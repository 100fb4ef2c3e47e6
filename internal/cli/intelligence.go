package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"propintel/server/internal/models"
)

func newMarketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "market <id>",
		Short: "Recompute the market comparison of a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.svc.UpdateMarketComparison(cmd.Context(), id); err != nil {
				return err
			}
			p, err := a.db.GetProperty(cmd.Context(), id)
			if errors.Is(err, models.ErrPropertyNotFound) {
				return fmt.Errorf("property %d not found", id)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p.MarketComparison())
		},
	}
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score <id>",
		Short: "Rescore a property from its stored market fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.svc.UpdatePropertyScores(cmd.Context(), id)
			if err != nil {
				return err
			}
			if result == nil {
				return fmt.Errorf("property %d not found", id)
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <id>",
		Short: "Run the market comparison and scoring for a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.svc.UpdatePropertyIntelligence(cmd.Context(), id)
			if err != nil {
				return err
			}
			if result == nil {
				return fmt.Errorf("property %d not found", id)
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newUpdateAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-all",
		Short: "Refresh the market comparison and scores of every property",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.svc.UpdateAllPropertyIntelligence(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newRecalculateScoresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalculate-scores",
		Short: "Rescore every property without refreshing market comparisons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.svc.RecalculateAllPropertyScores(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newProximityCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "proximity [id]",
		Short: "Recompute nearest point-of-interest distances",
		Long:  "Recompute the nearest beach, mall, hospital and school distances of one property, or of every property with --all.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("pass either a property ID or --all")
			}

			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if all {
				result, err := a.svc.UpdateAllProximity(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.svc.UpdateProximity(cmd.Context(), id); err != nil {
				return err
			}
			p, err := a.db.GetProperty(cmd.Context(), id)
			if errors.Is(err, models.ErrPropertyNotFound) {
				return fmt.Errorf("property %d not found", id)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]*float64{
				"nearest_beach_km":    p.NearestBeachKm,
				"nearest_mall_km":     p.NearestMallKm,
				"nearest_hospital_km": p.NearestHospitalKm,
				"nearest_school_km":   p.NearestSchoolKm,
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "update every property")

	return cmd
}

func newStatsCmd() *cobra.Command {
	var city string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show scoring coverage and deal label counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.db.GetIntelligenceStats(cmd.Context(), city)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "limit to one city")

	return cmd
}
