package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"propintel/server/config"
	"propintel/server/internal/models"
	"propintel/server/internal/scoring"
)

var ErrNotConfigured = errors.New("telegram bot token or chat ID is not configured")

type Service struct {
	logger  *logrus.Logger
	client  *http.Client
	config  config.TelegramConfig
	filters *models.DealAlertFilters
}

func NewService(cfg config.TelegramConfig, logger *logrus.Logger) *Service {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.telegram.org"
	}
	return &Service{
		logger: logger,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		config: cfg,
	}
}

// SetFilters limits which deals are announced. Nil allows all.
func (s *Service) SetFilters(filters *models.DealAlertFilters) {
	s.filters = filters
}

// SendMessage sends an HTML message to the configured Telegram chat
func (s *Service) SendMessage(ctx context.Context, message string) error {
	if !s.config.Enabled {
		return nil
	}
	if s.config.BotToken == "" || s.config.ChatID == "" {
		return ErrNotConfigured
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(s.config.APIURL, "/"), s.config.BotToken)
	payload := map[string]interface{}{
		"chat_id":    s.config.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build Telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message to Telegram API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusNotFound:
			return errors.New("invalid bot token - please check your token from @BotFather")
		case http.StatusBadRequest:
			return fmt.Errorf("invalid chat ID or message format: %s", string(body))
		case http.StatusForbidden:
			return errors.New("bot was blocked by the user or chat")
		default:
			return fmt.Errorf("Telegram API error (status %d): %s", resp.StatusCode, string(body))
		}
	}

	return nil
}

// NotifyDeal announces a property that a scoring pass just labelled SUPER_DEAL.
func (s *Service) NotifyDeal(ctx context.Context, property *models.Property, result scoring.Result) error {
	if !s.config.Enabled {
		return nil
	}
	if !s.filters.IsPropertyAllowed(property, result.OverallScore) {
		s.logger.WithField("property_id", property.ID).Debug("Deal filtered out of Telegram alerts")
		return nil
	}

	if err := s.SendMessage(ctx, formatDeal(property, result)); err != nil {
		return err
	}
	s.logger.WithField("property_id", property.ID).Info("Sent deal notification")
	return nil
}

func formatDeal(p *models.Property, result scoring.Result) string {
	title := p.Title
	if title == "" {
		title = fmt.Sprintf("Property #%d", p.ID)
	}

	var b strings.Builder
	b.WriteString("<b>🔥 New Super Deal!</b>\n\n")
	fmt.Fprintf(&b, "🏠 %s\n", html.EscapeString(title))
	fmt.Fprintf(&b, "📍 %s, %s (%s)\n", html.EscapeString(p.Area), html.EscapeString(p.City), p.Category)
	if p.Price != nil {
		fmt.Fprintf(&b, "💰 %s\n", formatAmount(*p.Price))
	}
	if p.Size != nil {
		fmt.Fprintf(&b, "📐 %.0f m²\n", *p.Size)
	}
	if p.PriceDeviation != nil {
		fmt.Fprintf(&b, "📊 %+.1f%% vs fair value\n", *p.PriceDeviation)
	}
	if p.EstimatedRentalYield != nil {
		fmt.Fprintf(&b, "💵 %.1f%% gross yield\n", *p.EstimatedRentalYield)
	}
	fmt.Fprintf(&b, "\n⭐ Overall %d | Location %d | Value %d | Investment %d",
		result.OverallScore, result.LocationScore, result.ValueScore, result.InvestmentScore)
	if len(result.KeyFeatures) > 0 {
		fmt.Fprintf(&b, "\n🏷️ %s", html.EscapeString(strings.Join(result.KeyFeatures, ", ")))
	}
	return b.String()
}

// formatAmount renders a whole amount with thousands separators.
func formatAmount(v float64) string {
	digits := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
