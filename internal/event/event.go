package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prepquest/prepquest-server/internal/domain"
)

// EventSchemaVersion is the current event payload schema version.
const EventSchemaVersion = "1.0"

// Type represents the type of an event
type Type string

// Event types published by the progression service.
const (
	BadgeUnlocked    Type = "badge.unlocked"
	LevelUp          Type = "level.up"
	StreakChanged    Type = "streak.changed"
	QuestCompleted   Type = "quest.completed"
	ProgressionReset Type = "progression.reset"
	SyncCompleted    Type = "sync.completed"
	SyncFailed       Type = "sync.failed"
)

// Event represents a generic event in the system
type Event struct {
	Version string      `json:"version"` // Event schema version (e.g., "1.0")
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}

// Typed event payloads for type safety

// BadgeUnlockedPayloadV1 announces a freshly unlocked badge.
type BadgeUnlockedPayloadV1 struct {
	BadgeID     string `json:"badge_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	QuestID     string `json:"quest_id,omitempty"` // completion that triggered the unlock
}

// LevelUpPayloadV1 announces a level boundary crossing.
type LevelUpPayloadV1 struct {
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
	TotalXP  int `json:"total_xp"`
}

// StreakChangedPayloadV1 reports the outcome of a streak evaluation.
type StreakChangedPayloadV1 struct {
	OldStreak int         `json:"old_streak"`
	NewStreak int         `json:"new_streak"`
	Date      domain.Date `json:"date"`
}

// QuestCompletedPayloadV1 reports a first-of-the-day quest completion.
type QuestCompletedPayloadV1 struct {
	QuestID   string `json:"quest_id"`
	XPAwarded int    `json:"xp_awarded"`
	TotalXP   int    `json:"total_xp"`
	Timestamp int64  `json:"timestamp"`
}

// SyncCompletedPayloadV1 reports a finished remote reconciliation.
type SyncCompletedPayloadV1 struct {
	Identity  string `json:"identity"`
	Direction string `json:"direction"` // "push" or "pull"
	Timestamp int64  `json:"timestamp"`
}

// Type-safe event constructors

// NewBadgeUnlockedEvent creates a badge unlock event.
func NewBadgeUnlockedEvent(badge domain.BadgeDefinition, questID string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    BadgeUnlocked,
		Payload: BadgeUnlockedPayloadV1{
			BadgeID:     badge.ID,
			Title:       badge.Title,
			Description: badge.Description,
			QuestID:     questID,
		},
	}
}

// NewLevelUpEvent creates a level up event.
func NewLevelUpEvent(oldLevel, newLevel, totalXP int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    LevelUp,
		Payload: LevelUpPayloadV1{
			OldLevel: oldLevel,
			NewLevel: newLevel,
			TotalXP:  totalXP,
		},
	}
}

// NewStreakChangedEvent creates a streak change event.
func NewStreakChangedEvent(oldStreak, newStreak int, date domain.Date) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    StreakChanged,
		Payload: StreakChangedPayloadV1{
			OldStreak: oldStreak,
			NewStreak: newStreak,
			Date:      date,
		},
	}
}

// NewQuestCompletedEvent creates a quest completion event.
func NewQuestCompletedEvent(questID string, xpAwarded, totalXP int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    QuestCompleted,
		Payload: QuestCompletedPayloadV1{
			QuestID:   questID,
			XPAwarded: xpAwarded,
			TotalXP:   totalXP,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewSyncCompletedEvent creates a sync completion event.
func NewSyncCompletedEvent(identity, direction string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    SyncCompleted,
		Payload: SyncCompletedPayloadV1{
			Identity:  identity,
			Direction: direction,
			Timestamp: time.Now().Unix(),
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	// Handlers run synchronously; a slow subscriber slows the publisher.
	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d handler(s) failed for event %s: %v", len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
