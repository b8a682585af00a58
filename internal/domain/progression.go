package domain

import "time"

// XPPerLevel is the fixed XP width of a level.
const XPPerLevel = 100

// ProgressionState is the canonical progression snapshot for one profile.
// The progression service owns the single live instance; everything handed
// out to callers is a deep copy.
type ProgressionState struct {
	// TotalXP is monotonically non-decreasing except on reset.
	TotalXP int `json:"total_xp"`

	// Streak counts consecutive calendar days with at least one completion.
	Streak int `json:"streak"`

	// LastActiveDate is the calendar day the streak was last evaluated on.
	LastActiveDate Date `json:"last_active_date"`

	// DailyCompletions is the set of quest IDs completed during the current
	// day window. Cleared on day rollover.
	DailyCompletions map[string]bool `json:"daily_completions"`

	// CompletedQuests is the lifetime set of distinct completed quest IDs.
	// Unlike DailyCompletions it survives day rollover; quest-count badges
	// are evaluated against this set.
	CompletedQuests map[string]bool `json:"completed_quests"`

	// UnlockedBadges strictly grows; a badge is never removed except by reset.
	UnlockedBadges map[string]bool `json:"unlocked_badges"`

	// JourneyProgress is the [0,1] fraction of journey milestones reached.
	JourneyProgress float64 `json:"journey_progress"`

	// Identity is the remote account the state syncs under. Empty in
	// guest/local-only mode.
	Identity string `json:"identity,omitempty"`

	// UpdatedAt is a logical clock for last-writer-wins reconciliation.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProgressionState returns the zero progression state anchored to today.
func NewProgressionState(today Date) ProgressionState {
	return ProgressionState{
		LastActiveDate:   today,
		DailyCompletions: make(map[string]bool),
		CompletedQuests:  make(map[string]bool),
		UnlockedBadges:   make(map[string]bool),
	}
}

// Clone returns a deep copy. Mutating the copy never touches the original.
func (s ProgressionState) Clone() ProgressionState {
	cp := s
	cp.DailyCompletions = make(map[string]bool, len(s.DailyCompletions))
	for k, v := range s.DailyCompletions {
		cp.DailyCompletions[k] = v
	}
	cp.CompletedQuests = make(map[string]bool, len(s.CompletedQuests))
	for k, v := range s.CompletedQuests {
		cp.CompletedQuests[k] = v
	}
	cp.UnlockedBadges = make(map[string]bool, len(s.UnlockedBadges))
	for k, v := range s.UnlockedBadges {
		cp.UnlockedBadges[k] = v
	}
	return cp
}

// HasProgress reports whether any progress has been recorded. Used to decide
// push-vs-pull when an identity is attached.
func (s ProgressionState) HasProgress() bool {
	return s.TotalXP > 0 || s.Streak > 0 || len(s.CompletedQuests) > 0 || len(s.UnlockedBadges) > 0
}

// ProgressionRecord is the scalar portion of the state as stored remotely,
// keyed by identity.
type ProgressionRecord struct {
	Identity        string    `json:"identity"`
	TotalXP         int       `json:"total_xp"`
	Level           int       `json:"level"`
	Streak          int       `json:"streak"`
	LastActiveDate  Date      `json:"last_active_date"`
	JourneyProgress float64   `json:"journey_progress"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// QuestCompletion is one remote completion row: a quest completed on a
// specific calendar day under an identity.
type QuestCompletion struct {
	QuestID     string `json:"quest_id"`
	CompletedOn Date   `json:"completed_on"`
}

// CompletionReceipt is returned by CompleteQuest.
type CompletionReceipt struct {
	QuestID          string            `json:"quest_id"`
	XPAwarded        int               `json:"xp_awarded"`
	LeveledUp        bool              `json:"leveled_up"`
	NewBadges        []BadgeDefinition `json:"new_badges"`
	AlreadyCompleted bool              `json:"already_completed"`
	State            ProgressionState  `json:"state"`
}

// StreakResult is returned by CheckAndUpdateStreak.
type StreakResult struct {
	Streak     int               `json:"streak"`
	RolledOver bool              `json:"rolled_over"`
	NewBadges  []BadgeDefinition `json:"new_badges,omitempty"`
	State      ProgressionState  `json:"state"`
}

// ProgressSummary is the derived display view of the state.
type ProgressSummary struct {
	TotalXP         int     `json:"total_xp"`
	Level           int     `json:"level"`
	XPProgress      float64 `json:"xp_progress"`
	Streak          int     `json:"streak"`
	LastActiveDate  Date    `json:"last_active_date"`
	CompletedToday  int     `json:"completed_today"`
	LifetimeQuests  int     `json:"lifetime_quests"`
	UnlockedBadges  int     `json:"unlocked_badges"`
	JourneyProgress float64 `json:"journey_progress"`
	Identity        string  `json:"identity,omitempty"`
}
