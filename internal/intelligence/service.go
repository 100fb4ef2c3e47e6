// Package intelligence runs the market comparator and the scorer against the
// property store, one property at a time or over the whole table.
package intelligence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"propintel/server/internal/market"
	"propintel/server/internal/models"
	"propintel/server/internal/proximity"
	"propintel/server/internal/scoring"
)

// Repository is the slice of the property store the engine reads and writes.
type Repository interface {
	GetProperty(ctx context.Context, id int64) (*models.Property, error)
	ListPeers(ctx context.Context, criteria models.PeerCriteria) ([]models.PeerListing, error)
	ListPropertyIDs(ctx context.Context) ([]int64, error)
	UpdateMarketComparison(ctx context.Context, id int64, c models.MarketComparison) error
	UpdateScores(ctx context.Context, id int64, s models.ScoreUpdate) error
	UpdateProximity(ctx context.Context, id int64, u models.ProximityUpdate) error
	ListPointsOfInterest(ctx context.Context) ([]models.PointOfInterest, error)
}

// DealNotifier is told when a scoring pass moves a property into SUPER_DEAL.
type DealNotifier interface {
	NotifyDeal(ctx context.Context, p *models.Property, result scoring.Result) error
}

// BatchResult counts the outcome of a pass over every stored property.
type BatchResult struct {
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

type Service struct {
	repo     Repository
	params   market.Params
	logger   *logrus.Logger
	notifier DealNotifier
	now      func() time.Time
}

func NewService(repo Repository, params market.Params, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Service{
		repo:   repo,
		params: params,
		logger: logger,
		now:    time.Now,
	}
}

// SetNotifier registers the deal alert sink. A nil notifier disables alerts.
func (s *Service) SetNotifier(n DealNotifier) {
	s.notifier = n
}

// getProperty maps a missing row to a nil property without error.
func (s *Service) getProperty(ctx context.Context, id int64) (*models.Property, error) {
	p, err := s.repo.GetProperty(ctx, id)
	if errors.Is(err, models.ErrPropertyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// vanished reports whether a write failed only because the row is gone.
func vanished(err error) bool {
	return errors.Is(err, models.ErrPropertyNotFound)
}

// UpdateMarketComparison recomputes and stores the market-derived fields of
// one property. A missing property, price or size is a no-op.
func (s *Service) UpdateMarketComparison(ctx context.Context, id int64) error {
	p, err := s.getProperty(ctx, id)
	if err != nil || p == nil {
		return err
	}

	subject, ok := market.SubjectFromProperty(p)
	if !ok {
		s.logger.WithField("property_id", id).Debug("Skipping market comparison without price or size")
		return nil
	}

	areaPeers, err := s.repo.ListPeers(ctx, models.PeerCriteria{
		ExcludeID: p.ID,
		Area:      p.Area,
		City:      p.City,
		Category:  p.Category,
	})
	if err != nil {
		return fmt.Errorf("failed to load area peers: %w", err)
	}

	var projectPeers []models.PeerListing
	if p.ProjectID != nil {
		projectPeers, err = s.repo.ListPeers(ctx, models.PeerCriteria{
			ExcludeID: p.ID,
			ProjectID: p.ProjectID,
		})
		if err != nil {
			return fmt.Errorf("failed to load project peers: %w", err)
		}
	}

	comparison := market.Compare(subject, areaPeers, projectPeers, s.params)
	if err := s.repo.UpdateMarketComparison(ctx, id, comparison); err != nil {
		if vanished(err) {
			return nil
		}
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"property_id":   id,
		"area_peers":    len(areaPeers),
		"project_peers": len(projectPeers),
	}).Debug("Updated market comparison")
	return nil
}

// UpdatePropertyScores scores the stored snapshot of one property and writes
// the result back. It returns nil when the property does not exist.
func (s *Service) UpdatePropertyScores(ctx context.Context, id int64) (*scoring.Result, error) {
	p, err := s.getProperty(ctx, id)
	if err != nil || p == nil {
		return nil, err
	}

	result := scoring.CalculatePropertyScores(scoring.InputFromProperty(p))
	update := models.ScoreUpdate{
		LocationScore:   result.LocationScore,
		ValueScore:      result.ValueScore,
		InvestmentScore: result.InvestmentScore,
		OverallScore:    result.OverallScore,
		KeyFeatures:     result.KeyFeatures,
		TargetBuyer:     result.TargetBuyer,
		DealQuality:     result.DealQuality,
		UpdatedAt:       s.now(),
	}
	if err := s.repo.UpdateScores(ctx, id, update); err != nil {
		if vanished(err) {
			return nil, nil
		}
		return nil, err
	}

	s.notifyOnSuperDeal(ctx, p, result)
	return &result, nil
}

func (s *Service) notifyOnSuperDeal(ctx context.Context, p *models.Property, result scoring.Result) {
	if s.notifier == nil || result.DealQuality == nil || *result.DealQuality != models.DealQualitySuperDeal {
		return
	}
	if p.DealQuality != nil && *p.DealQuality == models.DealQualitySuperDeal {
		return
	}
	if err := s.notifier.NotifyDeal(ctx, p, result); err != nil {
		s.logger.WithError(err).WithField("property_id", p.ID).Warn("Failed to send deal notification")
	}
}

// UpdatePropertyIntelligence runs the comparator and then the scorer so the
// scores see the fresh market fields.
func (s *Service) UpdatePropertyIntelligence(ctx context.Context, id int64) (*scoring.Result, error) {
	if err := s.UpdateMarketComparison(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to update market comparison: %w", err)
	}
	result, err := s.UpdatePropertyScores(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update scores: %w", err)
	}
	return result, nil
}

// UpdateAllPropertyIntelligence refreshes every stored property. Failures are
// logged and counted; they never stop the pass.
func (s *Service) UpdateAllPropertyIntelligence(ctx context.Context) (BatchResult, error) {
	return s.forEachProperty(ctx, "intelligence", func(ctx context.Context, id int64) error {
		_, err := s.UpdatePropertyIntelligence(ctx, id)
		return err
	})
}

// RecalculateAllPropertyScores rescores every property from its stored market
// fields without running the comparator.
func (s *Service) RecalculateAllPropertyScores(ctx context.Context) (BatchResult, error) {
	return s.forEachProperty(ctx, "scores", func(ctx context.Context, id int64) error {
		_, err := s.UpdatePropertyScores(ctx, id)
		return err
	})
}

// UpdateProximity recomputes the nearest point-of-interest distances of one
// property. Properties without coordinates are skipped.
func (s *Service) UpdateProximity(ctx context.Context, id int64) error {
	pois, err := s.repo.ListPointsOfInterest(ctx)
	if err != nil {
		return err
	}
	return s.updateProximity(ctx, id, pois)
}

func (s *Service) updateProximity(ctx context.Context, id int64, pois []models.PointOfInterest) error {
	p, err := s.getProperty(ctx, id)
	if err != nil || p == nil {
		return err
	}
	origin, ok := proximity.Origin(p)
	if !ok {
		return nil
	}

	update := proximity.Nearest(origin, pois).Update()
	if err := s.repo.UpdateProximity(ctx, id, update); err != nil && !vanished(err) {
		return err
	}
	return nil
}

// UpdateAllProximity refreshes the distances of every property against one
// snapshot of the points of interest.
func (s *Service) UpdateAllProximity(ctx context.Context) (BatchResult, error) {
	pois, err := s.repo.ListPointsOfInterest(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	return s.forEachProperty(ctx, "proximity", func(ctx context.Context, id int64) error {
		return s.updateProximity(ctx, id, pois)
	})
}

// forEachProperty applies fn to every property id sequentially. The run is
// detached from ctx cancellation so it always completes; values such as
// request-scoped fields still flow through.
func (s *Service) forEachProperty(ctx context.Context, job string, fn func(context.Context, int64) error) (BatchResult, error) {
	ctx = context.WithoutCancel(ctx)
	log := s.logger.WithFields(logrus.Fields{
		"run_id": uuid.NewString(),
		"job":    job,
	})

	ids, err := s.repo.ListPropertyIDs(ctx)
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to list properties: %w", err)
	}

	log.WithField("properties", len(ids)).Info("Starting batch update")
	start := time.Now()

	var result BatchResult
	for _, id := range ids {
		if err := fn(ctx, id); err != nil {
			result.Errors++
			log.WithError(err).WithField("property_id", id).Error("Failed to update property")
			continue
		}
		result.Updated++
	}

	log.WithFields(logrus.Fields{
		"updated":  result.Updated,
		"errors":   result.Errors,
		"duration": time.Since(start).String(),
	}).Info("Batch update completed")
	return result, nil
}
