package progression

import (
	"github.com/prepquest/prepquest-server/internal/domain"
)

// The engine is the pure-function core of the progression system. It never
// performs I/O and never mutates its inputs; every function returns a fresh
// state snapshot. Per-day idempotency of quest rewards is NOT enforced here:
// the service decides whether to call ApplyQuestCompletion at all, and that
// decision is the single point of truth for duplicate suppression.

// ComputeLevel derives the level from total XP.
func ComputeLevel(totalXP int) int {
	if totalXP < 0 {
		return 0
	}
	return totalXP / domain.XPPerLevel
}

// ComputeXPProgress derives the intra-level progress fraction in [0,1).
func ComputeXPProgress(totalXP int) float64 {
	if totalXP < 0 {
		return 0
	}
	return float64(totalXP%domain.XPPerLevel) / float64(domain.XPPerLevel)
}

// ComputeJourneyProgress is the fraction of journey milestones present in the
// lifetime completion set. Returns 0 when no milestones are defined.
func ComputeJourneyProgress(milestones []string, completed map[string]bool) float64 {
	if len(milestones) == 0 {
		return 0
	}
	reached := 0
	for _, id := range milestones {
		if completed[id] {
			reached++
		}
	}
	return float64(reached) / float64(len(milestones))
}

// EvaluateBadgeUnlocks tests every not-yet-unlocked badge against the
// post-update state and returns the newly passing definitions in catalog
// order. justCompletedQuestID participates in the lifetime quest count even
// when it is already in history. Side-effect free: callers union the result
// into UnlockedBadges themselves.
func EvaluateBadgeUnlocks(badges []domain.BadgeDefinition, state domain.ProgressionState, justCompletedQuestID string) []domain.BadgeDefinition {
	questCount := len(state.CompletedQuests)
	if justCompletedQuestID != "" && !state.CompletedQuests[justCompletedQuestID] {
		questCount++
	}

	var newly []domain.BadgeDefinition
	for _, b := range badges {
		if state.UnlockedBadges[b.ID] {
			continue
		}

		unlocked := false
		switch b.UnlockType {
		case domain.BadgeUnlockXP:
			unlocked = state.TotalXP >= b.Requirement
		case domain.BadgeUnlockStreak:
			unlocked = state.Streak >= b.Requirement
		case domain.BadgeUnlockQuests:
			unlocked = questCount >= b.Requirement
		}

		if unlocked {
			newly = append(newly, b)
		}
	}
	return newly
}

// QuestCompletionOutcome bundles the results of ApplyQuestCompletion.
type QuestCompletionOutcome struct {
	State     domain.ProgressionState
	LeveledUp bool
	NewBadges []domain.BadgeDefinition
}

// ApplyQuestCompletion awards xpValue for questID and returns the next state.
// Crossing one or more level boundaries in a single award reports LeveledUp
// exactly once. The quest is recorded in both the daily window and the
// lifetime history, and journey progress is recomputed from milestones.
func ApplyQuestCompletion(badges []domain.BadgeDefinition, milestones []string, state domain.ProgressionState, questID string, xpValue int) QuestCompletionOutcome {
	next := state.Clone()

	levelBefore := ComputeLevel(next.TotalXP)
	next.TotalXP += xpValue
	levelAfter := ComputeLevel(next.TotalXP)

	next.DailyCompletions[questID] = true
	next.CompletedQuests[questID] = true
	next.JourneyProgress = ComputeJourneyProgress(milestones, next.CompletedQuests)

	newBadges := EvaluateBadgeUnlocks(badges, next, questID)
	for _, b := range newBadges {
		next.UnlockedBadges[b.ID] = true
	}

	return QuestCompletionOutcome{
		State:     next,
		LeveledUp: levelAfter > levelBefore,
		NewBadges: newBadges,
	}
}

// ApplyStreakCheck evaluates the streak state machine for today and returns
// the next state. Three transitions:
//
//   - same day: no-op;
//   - yesterday was the last active day AND it recorded at least one
//     completion: streak extends by one;
//   - anything else (gap, or yesterday without activity): streak restarts at
//     1 when the outgoing window recorded completions, otherwise 0.
//
// The daily completion window is NOT cleared here; the caller clears it after
// the streak decision, and only on an actual day rollover.
func ApplyStreakCheck(state domain.ProgressionState, today domain.Date) domain.ProgressionState {
	if state.LastActiveDate == today {
		return state.Clone()
	}

	next := state.Clone()

	hadActivity := len(state.DailyCompletions) > 0
	if state.LastActiveDate == today.AddDays(-1) && hadActivity {
		next.Streak++
	} else if hadActivity {
		// Gap broke the chain; the recorded activity seeds a fresh streak.
		next.Streak = 1
	} else {
		next.Streak = 0
	}

	next.LastActiveDate = today
	return next
}
