package progression

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prepquest/prepquest-server/internal/event"
	"github.com/prepquest/prepquest-server/internal/logger"
)

// Notifier pushes badge unlocks and level-ups to an external webhook.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewNotifier creates a new progression notifier
func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Subscribe registers the notifier on the event bus.
func (n *Notifier) Subscribe(bus event.Bus) {
	bus.Subscribe(event.BadgeUnlocked, n.handleBadgeUnlocked)
	bus.Subscribe(event.LevelUp, n.handleLevelUp)
}

func (n *Notifier) handleBadgeUnlocked(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	payload, ok := evt.Payload.(event.BadgeUnlockedPayloadV1)
	if !ok {
		log.Warn("Invalid payload type for badge unlocked event")
		return nil
	}

	if n.webhookURL == "" {
		return nil
	}

	body := map[string]interface{}{
		"event": "badge_unlocked",
		"data": map[string]interface{}{
			"badge_id":    payload.BadgeID,
			"title":       payload.Title,
			"description": payload.Description,
			"quest_id":    payload.QuestID,
		},
	}

	if err := n.send(ctx, body); err != nil {
		// Notification failure never fails the unlock itself.
		log.Error("Failed to send badge notification", "badge_id", payload.BadgeID, "error", err)
	} else {
		log.Info("Sent badge notification", "badge_id", payload.BadgeID)
	}
	return nil
}

func (n *Notifier) handleLevelUp(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	payload, ok := evt.Payload.(event.LevelUpPayloadV1)
	if !ok {
		log.Warn("Invalid payload type for level up event")
		return nil
	}

	if n.webhookURL == "" {
		return nil
	}

	body := map[string]interface{}{
		"event": "level_up",
		"data": map[string]interface{}{
			"old_level": payload.OldLevel,
			"new_level": payload.NewLevel,
			"total_xp":  payload.TotalXP,
		},
	}

	if err := n.send(ctx, body); err != nil {
		log.Error("Failed to send level up notification", "new_level", payload.NewLevel, "error", err)
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, body map[string]interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
	}
	return nil
}
