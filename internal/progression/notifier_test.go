package progression

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepquest/prepquest-server/internal/domain"
	"github.com/prepquest/prepquest-server/internal/event"
)

func TestNotifierBadgeWebhook(t *testing.T) {
	received := make(chan map[string]interface{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	bus := event.NewMemoryBus()
	NewNotifier(srv.URL).Subscribe(bus)

	badge := domain.BadgeDefinition{ID: "streak7", Title: "One Week Strong", Description: "Seven days in a row"}
	err := bus.Publish(context.Background(), event.NewBadgeUnlockedEvent(badge, ""))
	require.NoError(t, err)

	body := <-received
	assert.Equal(t, "badge_unlocked", body["event"])
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "streak7", data["badge_id"])
}

func TestNotifierWebhookFailureDoesNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	bus := event.NewMemoryBus()
	NewNotifier(srv.URL).Subscribe(bus)

	err := bus.Publish(context.Background(), event.NewLevelUpEvent(0, 1, 100))
	assert.NoError(t, err)
}

func TestNotifierNoURLConfigured(t *testing.T) {
	bus := event.NewMemoryBus()
	NewNotifier("").Subscribe(bus)

	err := bus.Publish(context.Background(), event.NewBadgeUnlockedEvent(domain.BadgeDefinition{ID: "x"}, ""))
	assert.NoError(t, err)
}
