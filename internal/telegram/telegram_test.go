package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propintel/server/config"
	"propintel/server/internal/models"
	"propintel/server/internal/scoring"
)

type sentMessage struct {
	path    string
	payload map[string]interface{}
}

func newTestServer(t *testing.T, status int) (*httptest.Server, *[]sentMessage) {
	var sent []sentMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		sent = append(sent, sentMessage{path: r.URL.Path, payload: payload})
		w.WriteHeader(status)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &sent
}

func testService(url string, enabled bool) *Service {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewService(config.TelegramConfig{
		Enabled:  enabled,
		BotToken: "123:abc",
		ChatID:   "-1001",
		APIURL:   url,
	}, logger)
}

func ptr[T any](v T) *T {
	return &v
}

func superDeal() (*models.Property, scoring.Result) {
	quality := models.DealQualitySuperDeal
	p := &models.Property{
		ID:             12,
		Title:          "Sea view <studio>",
		Category:       models.CategoryCondo,
		Area:           "Jomtien",
		City:           "Pattaya",
		Price:          ptr(2_450_000.0),
		Size:           ptr(35.0),
		PriceDeviation: ptr(-18.2),
	}
	return p, scoring.Result{
		LocationScore:   81,
		ValueScore:      100,
		InvestmentScore: 88,
		OverallScore:    90,
		DealQuality:     &quality,
		KeyFeatures:     []string{"Beachfront", "Below Market"},
	}
}

func TestNotifyDeal(t *testing.T) {
	srv, sent := newTestServer(t, http.StatusOK)
	svc := testService(srv.URL, true)

	p, result := superDeal()
	require.NoError(t, svc.NotifyDeal(context.Background(), p, result))

	require.Len(t, *sent, 1)
	msg := (*sent)[0]
	assert.Equal(t, "/bot123:abc/sendMessage", msg.path)
	assert.Equal(t, "-1001", msg.payload["chat_id"])
	assert.Equal(t, "HTML", msg.payload["parse_mode"])

	text := msg.payload["text"].(string)
	assert.Contains(t, text, "Sea view &lt;studio&gt;")
	assert.Contains(t, text, "2,450,000")
	assert.Contains(t, text, "-18.2% vs fair value")
	assert.Contains(t, text, "Overall 90")
	assert.Contains(t, text, "Beachfront, Below Market")
}

func TestNotifyDeal_Disabled(t *testing.T) {
	srv, sent := newTestServer(t, http.StatusOK)
	svc := testService(srv.URL, false)

	p, result := superDeal()
	assert.NoError(t, svc.NotifyDeal(context.Background(), p, result))
	assert.Empty(t, *sent)
}

func TestNotifyDeal_Filtered(t *testing.T) {
	srv, sent := newTestServer(t, http.StatusOK)
	svc := testService(srv.URL, true)
	svc.SetFilters(&models.DealAlertFilters{Cities: []string{"Hua Hin"}})

	p, result := superDeal()
	assert.NoError(t, svc.NotifyDeal(context.Background(), p, result))
	assert.Empty(t, *sent)
}

func TestSendMessage_Errors(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest)
	svc := testService(srv.URL, true)

	err := svc.SendMessage(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")

	svc = NewService(config.TelegramConfig{Enabled: true, APIURL: srv.URL}, logrus.New())
	assert.ErrorIs(t, svc.SendMessage(context.Background(), "hello"), ErrNotConfigured)
}

func TestFormatAmount(t *testing.T) {
	tests := map[float64]string{
		0:          "0",
		950:        "950",
		1000:       "1,000",
		2_450_000:  "2,450,000",
		12_345_678: "12,345,678",
		-45_000:    "-45,000",
	}
	for in, expected := range tests {
		assert.Equal(t, expected, formatAmount(in))
	}
}
