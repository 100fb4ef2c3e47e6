package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"propintel/server/internal/database"
	"propintel/server/internal/geometry"
	"propintel/server/internal/intelligence"
	"propintel/server/internal/models"
	"propintel/server/internal/queue"
)

type Handler struct {
	db           *database.Database
	intelligence *intelligence.Service
	refreshQueue *queue.RefreshQueue
	logger       *logrus.Logger
}

// IntelligenceView is the stored market comparison and scoring of a property.
type IntelligenceView struct {
	ID       int64           `json:"id"`
	Category models.Category `json:"category"`
	Area     string          `json:"area"`
	City     string          `json:"city"`

	PricePerSqm           *float64 `json:"price_per_sqm"`
	AreaAvgPricePerSqm    *float64 `json:"area_avg_price_per_sqm"`
	ProjectAvgPricePerSqm *float64 `json:"project_avg_price_per_sqm"`
	PriceDeviation        *float64 `json:"price_deviation"`
	FairValueEstimate     *float64 `json:"fair_value_estimate"`
	EstimatedRentalYield  *float64 `json:"estimated_rental_yield"`
	PriceVsAreaAvg        *float64 `json:"price_vs_area_avg"`
	PriceVsProjectAvg     *float64 `json:"price_vs_project_avg"`

	NearestBeachKm    *float64 `json:"nearest_beach_km"`
	NearestMallKm     *float64 `json:"nearest_mall_km"`
	NearestHospitalKm *float64 `json:"nearest_hospital_km"`
	NearestSchoolKm   *float64 `json:"nearest_school_km"`

	LocationScore          *int                `json:"location_score"`
	ValueScore             *int                `json:"value_score"`
	InvestmentScore        *int                `json:"investment_score"`
	OverallScore           *int                `json:"overall_score"`
	DealQuality            *models.DealQuality `json:"deal_quality"`
	KeyFeatures            []string            `json:"key_features"`
	TargetBuyer            []string            `json:"target_buyer"`
	LastIntelligenceUpdate *time.Time          `json:"last_intelligence_update"`
}

func newIntelligenceView(p *models.Property) IntelligenceView {
	return IntelligenceView{
		ID:                     p.ID,
		Category:               p.Category,
		Area:                   p.Area,
		City:                   p.City,
		PricePerSqm:            p.PricePerSqm,
		AreaAvgPricePerSqm:     p.AreaAvgPricePerSqm,
		ProjectAvgPricePerSqm:  p.ProjectAvgPricePerSqm,
		PriceDeviation:         p.PriceDeviation,
		FairValueEstimate:      p.FairValueEstimate,
		EstimatedRentalYield:   p.EstimatedRentalYield,
		PriceVsAreaAvg:         p.PriceVsAreaAvg,
		PriceVsProjectAvg:      p.PriceVsProjectAvg,
		NearestBeachKm:         p.NearestBeachKm,
		NearestMallKm:          p.NearestMallKm,
		NearestHospitalKm:      p.NearestHospitalKm,
		NearestSchoolKm:        p.NearestSchoolKm,
		LocationScore:          p.LocationScore,
		ValueScore:             p.ValueScore,
		InvestmentScore:        p.InvestmentScore,
		OverallScore:           p.OverallScore,
		DealQuality:            p.DealQuality,
		KeyFeatures:            models.Tags(p.KeyFeatures),
		TargetBuyer:            models.Tags(p.TargetBuyer),
		LastIntelligenceUpdate: p.LastIntelligenceUpdate,
	}
}

type RefreshRequest struct {
	PropertyIDs []int64 `json:"property_ids" binding:"required,min=1"`
}

func NewHandler(db *database.Database, svc *intelligence.Service, refreshQueue *queue.RefreshQueue, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:           db,
		intelligence: svc,
		refreshQueue: refreshQueue,
		logger:       logger,
	}
}

// propertyID parses the :id path parameter, answering 400 when it is invalid.
func (h *Handler) propertyID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return 0, false
	}
	return id, true
}

// respondWithView writes the stored intelligence of a property, or 404.
func (h *Handler) respondWithView(c *gin.Context, id int64) {
	property, err := h.db.GetProperty(c.Request.Context(), id)
	if errors.Is(err, models.ErrPropertyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("property_id", id).Error("Failed to get property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property"})
		return
	}

	c.JSON(http.StatusOK, newIntelligenceView(property))
}

func (h *Handler) GetPropertyIntelligence(c *gin.Context) {
	id, ok := h.propertyID(c)
	if !ok {
		return
	}
	h.respondWithView(c, id)
}

func (h *Handler) UpdateMarketComparison(c *gin.Context) {
	id, ok := h.propertyID(c)
	if !ok {
		return
	}

	if err := h.intelligence.UpdateMarketComparison(c.Request.Context(), id); err != nil {
		h.logger.WithError(err).WithField("property_id", id).Error("Failed to update market comparison")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update market comparison"})
		return
	}
	h.respondWithView(c, id)
}

func (h *Handler) UpdatePropertyScores(c *gin.Context) {
	id, ok := h.propertyID(c)
	if !ok {
		return
	}

	result, err := h.intelligence.UpdatePropertyScores(c.Request.Context(), id)
	if err != nil {
		h.logger.WithError(err).WithField("property_id", id).Error("Failed to update property scores")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update property scores"})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) UpdatePropertyIntelligence(c *gin.Context) {
	id, ok := h.propertyID(c)
	if !ok {
		return
	}

	result, err := h.intelligence.UpdatePropertyIntelligence(c.Request.Context(), id)
	if err != nil {
		h.logger.WithError(err).WithField("property_id", id).Error("Failed to update property intelligence")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update property intelligence"})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) UpdateProximity(c *gin.Context) {
	id, ok := h.propertyID(c)
	if !ok {
		return
	}

	if err := h.intelligence.UpdateProximity(c.Request.Context(), id); err != nil {
		h.logger.WithError(err).WithField("property_id", id).Error("Failed to update proximity")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update proximity"})
		return
	}
	h.respondWithView(c, id)
}

// Recalculate runs a synchronous pass over every property. With
// scores_only=true the comparator is skipped.
func (h *Handler) Recalculate(c *gin.Context) {
	scoresOnly, _ := strconv.ParseBool(c.DefaultQuery("scores_only", "false"))

	var (
		result intelligence.BatchResult
		err    error
	)
	if scoresOnly {
		result, err = h.intelligence.RecalculateAllPropertyScores(c.Request.Context())
	} else {
		result, err = h.intelligence.UpdateAllPropertyIntelligence(c.Request.Context())
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to recalculate property intelligence")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recalculate property intelligence"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) QueueRefresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.refreshQueue.Push(req.PropertyIDs); err != nil {
		if errors.Is(err, queue.ErrQueueFull) || errors.Is(err, queue.ErrQueueClosed) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("Failed to queue refresh")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue refresh"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"queued": len(req.PropertyIDs)})
}

func (h *Handler) GetScoreMap(c *gin.Context) {
	properties, err := h.db.ListScoredProperties(c.Request.Context(), c.Query("city"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get scored properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get scored properties"})
		return
	}

	c.JSON(http.StatusOK, geometry.ScoreMap(properties))
}

func (h *Handler) GetAreaHulls(c *gin.Context) {
	properties, err := h.db.ListScoredProperties(c.Request.Context(), c.Query("city"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get scored properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get scored properties"})
		return
	}

	c.JSON(http.StatusOK, geometry.AreaHulls(properties))
}

func (h *Handler) GetIntelligenceStats(c *gin.Context) {
	stats, err := h.db.GetIntelligenceStats(c.Request.Context(), c.Query("city"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get intelligence stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get intelligence stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
