package progression

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prepquest/prepquest-server/internal/catalog"
	"github.com/prepquest/prepquest-server/internal/domain"
	"github.com/prepquest/prepquest-server/internal/event"
	"github.com/prepquest/prepquest-server/internal/logger"
	"github.com/prepquest/prepquest-server/internal/metrics"
)

// Service owns the canonical progression state. Local durable storage is the
// source of truth for the running session; the remote store is a replica
// updated through last-writer-wins upserts and never gates local progress.
type Service interface {
	// Quest interaction
	CompleteQuest(ctx context.Context, questID string) (*domain.CompletionReceipt, error)
	AnswerScenario(ctx context.Context, questID string, optionIndex int) (*domain.ScenarioAnswer, error)

	// Day/streak lifecycle. Must be called once per session start; additional
	// same-day calls are no-ops.
	CheckAndUpdateStreak(ctx context.Context) (*domain.StreakResult, error)

	// State access
	Snapshot() domain.ProgressionState
	Summary() domain.ProgressSummary
	PendingBadge() *domain.BadgeDefinition
	ClearPendingBadge()

	// Identity and reconciliation
	Identity() string
	AttachIdentity(ctx context.Context, identity string) error
	DetachIdentity(ctx context.Context) error
	SyncToRemote(ctx context.Context) error
	LoadFromRemote(ctx context.Context, force bool) error

	// Destructive reset; local always succeeds, remote wipe is best effort.
	ResetAllData(ctx context.Context) error

	// Lifecycle
	Shutdown(ctx context.Context) error
}

type service struct {
	mu    sync.Mutex
	state domain.ProgressionState

	catalog   *catalog.Catalog
	local     LocalStore
	remote    RemoteStore
	publisher event.Bus

	// pendingBadge is the single notification slot the presentation layer
	// polls. Only the first badge of a batch lands here; the rest are still
	// recorded in UnlockedBadges.
	pendingBadge *domain.BadgeDefinition

	// now is injected so day-rollover logic is deterministic under test.
	now func() time.Time
}

// NewService rehydrates state from local storage and returns the store.
// A nil now falls back to time.Now.
func NewService(cat *catalog.Catalog, local LocalStore, remote RemoteStore, publisher event.Bus, now func() time.Time) (Service, error) {
	if now == nil {
		now = time.Now
	}

	s := &service{
		catalog:   cat,
		local:     local,
		remote:    remote,
		publisher: publisher,
		now:       now,
	}

	st, err := local.Load(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to load progression state: %w", err)
	}
	if st == nil {
		fresh := domain.NewProgressionState(s.today())
		st = &fresh
	}
	normalize(st)
	s.state = *st

	metrics.StreakLength.Set(float64(s.state.Streak))
	return s, nil
}

// normalize repairs nil maps after JSON rehydration.
func normalize(st *domain.ProgressionState) {
	if st.DailyCompletions == nil {
		st.DailyCompletions = make(map[string]bool)
	}
	if st.CompletedQuests == nil {
		st.CompletedQuests = make(map[string]bool)
	}
	if st.UnlockedBadges == nil {
		st.UnlockedBadges = make(map[string]bool)
	}
}

func (s *service) today() domain.Date {
	return domain.DateOf(s.now())
}

// CompleteQuest awards the quest's XP once per calendar day. A repeat
// completion on the same day succeeds but changes nothing: this method is the
// single point of truth for duplicate suppression.
func (s *service) CompleteQuest(ctx context.Context, questID string) (*domain.CompletionReceipt, error) {
	log := logger.FromContext(ctx)

	quest, err := s.catalog.Quest(questID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()

	if s.state.DailyCompletions[questID] {
		receipt := &domain.CompletionReceipt{
			QuestID:          questID,
			AlreadyCompleted: true,
			State:            s.state.Clone(),
		}
		s.mu.Unlock()

		metrics.DuplicateAttempts.WithLabelValues(questID).Inc()
		log.Debug("Quest already completed today", "quest_id", questID)
		return receipt, nil
	}

	levelBefore := ComputeLevel(s.state.TotalXP)
	out := ApplyQuestCompletion(s.catalog.Badges(), s.catalog.Milestones(), s.state, questID, quest.XP)
	out.State.UpdatedAt = s.now().UTC()
	s.state = out.State

	if len(out.NewBadges) > 0 {
		first := out.NewBadges[0]
		s.pendingBadge = &first
	}

	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)

	metrics.QuestsCompleted.WithLabelValues(questID).Inc()
	metrics.XPAwarded.Add(float64(quest.XP))
	if out.LeveledUp {
		metrics.LevelUps.Inc()
	}
	for _, b := range out.NewBadges {
		metrics.BadgesUnlocked.WithLabelValues(b.ID).Inc()
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, event.NewQuestCompletedEvent(questID, quest.XP, snapshot.TotalXP))
		if out.LeveledUp {
			_ = s.publisher.Publish(ctx, event.NewLevelUpEvent(levelBefore, ComputeLevel(snapshot.TotalXP), snapshot.TotalXP))
		}
		for _, b := range out.NewBadges {
			_ = s.publisher.Publish(ctx, event.NewBadgeUnlockedEvent(b, questID))
		}
	}

	log.Info("Quest completed",
		"quest_id", questID,
		"xp_awarded", quest.XP,
		"total_xp", snapshot.TotalXP,
		"leveled_up", out.LeveledUp,
		"new_badges", len(out.NewBadges))

	return &domain.CompletionReceipt{
		QuestID:   questID,
		XPAwarded: quest.XP,
		LeveledUp: out.LeveledUp,
		NewBadges: out.NewBadges,
		State:     snapshot,
	}, nil
}

// AnswerScenario checks a multiple-choice option against the catalog. It is
// stateless; clients call CompleteQuest after a correct answer.
func (s *service) AnswerScenario(ctx context.Context, questID string, optionIndex int) (*domain.ScenarioAnswer, error) {
	quest, err := s.catalog.Quest(questID)
	if err != nil {
		return nil, err
	}
	if quest.QuestType != domain.QuestTypeScenario {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotScenario, questID)
	}
	if optionIndex < 0 || optionIndex >= len(quest.Options) {
		return nil, fmt.Errorf("%w: index %d out of range", domain.ErrInvalidOption, optionIndex)
	}

	opt := quest.Options[optionIndex]
	return &domain.ScenarioAnswer{
		QuestID:     questID,
		OptionIndex: optionIndex,
		Correct:     opt.Correct,
		Explanation: opt.Explanation,
		XP:          quest.XP,
	}, nil
}

// CheckAndUpdateStreak evaluates the streak for today and, only after that
// decision, clears the daily window when the date actually rolled over.
func (s *service) CheckAndUpdateStreak(ctx context.Context) (*domain.StreakResult, error) {
	log := logger.FromContext(ctx)

	s.mu.Lock()

	today := s.today()
	rolled := s.state.LastActiveDate != today
	oldStreak := s.state.Streak

	next := ApplyStreakCheck(s.state, today)
	if rolled {
		// The streak test above already consumed the outgoing day's window.
		next.DailyCompletions = make(map[string]bool)
	}

	var newBadges []domain.BadgeDefinition
	if next.Streak > oldStreak {
		newBadges = EvaluateBadgeUnlocks(s.catalog.Badges(), next, "")
		for _, b := range newBadges {
			next.UnlockedBadges[b.ID] = true
		}
		if len(newBadges) > 0 {
			first := newBadges[0]
			s.pendingBadge = &first
		}
	}

	changed := rolled || next.Streak != oldStreak
	if changed {
		next.UpdatedAt = s.now().UTC()
	}
	s.state = next
	snapshot := s.state.Clone()
	s.mu.Unlock()

	if changed {
		s.persist(ctx, snapshot)
	}

	metrics.StreakLength.Set(float64(snapshot.Streak))
	for _, b := range newBadges {
		metrics.BadgesUnlocked.WithLabelValues(b.ID).Inc()
	}

	if changed && s.publisher != nil {
		if snapshot.Streak != oldStreak {
			_ = s.publisher.Publish(ctx, event.NewStreakChangedEvent(oldStreak, snapshot.Streak, today))
		}
		for _, b := range newBadges {
			_ = s.publisher.Publish(ctx, event.NewBadgeUnlockedEvent(b, ""))
		}
	}

	if changed {
		log.Info("Streak evaluated",
			"date", today,
			"old_streak", oldStreak,
			"new_streak", snapshot.Streak,
			"rolled_over", rolled)
	}

	return &domain.StreakResult{
		Streak:     snapshot.Streak,
		RolledOver: rolled,
		NewBadges:  newBadges,
		State:      snapshot,
	}, nil
}

// ResetAllData zeroes the local state. The identity is preserved; a remote
// wipe is attempted best effort and its failure never blocks the local reset.
func (s *service) ResetAllData(ctx context.Context) error {
	log := logger.FromContext(ctx)

	s.mu.Lock()
	identity := s.state.Identity
	fresh := domain.NewProgressionState(s.today())
	fresh.Identity = identity
	fresh.UpdatedAt = s.now().UTC()
	s.state = fresh
	s.pendingBadge = nil
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)

	metrics.Resets.Inc()
	metrics.StreakLength.Set(0)

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, event.Event{
			Version: event.EventSchemaVersion,
			Type:    event.ProgressionReset,
			Payload: map[string]interface{}{"identity": identity},
		})
	}

	if identity != "" {
		if err := s.remote.DeleteAll(ctx, identity); err != nil {
			log.Warn("Remote wipe failed during reset, local reset completed anyway",
				"identity", identity, "error", err)
		}
	}

	log.Info("Progression reset", "identity", identity)
	return nil
}

// SyncToRemote pushes the scalar record, today's completion rows, and the
// badge rows as three independent upserts. A failed push does not roll back
// the others.
func (s *service) SyncToRemote(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Identity == "" {
		s.mu.Unlock()
		return domain.ErrNoIdentity
	}
	snapshot := s.state.Clone()
	s.mu.Unlock()

	start := time.Now()

	record := domain.ProgressionRecord{
		Identity:        snapshot.Identity,
		TotalXP:         snapshot.TotalXP,
		Level:           ComputeLevel(snapshot.TotalXP),
		Streak:          snapshot.Streak,
		LastActiveDate:  snapshot.LastActiveDate,
		JourneyProgress: snapshot.JourneyProgress,
		UpdatedAt:       snapshot.UpdatedAt,
	}

	completions := make([]domain.QuestCompletion, 0, len(snapshot.DailyCompletions))
	for questID, done := range snapshot.DailyCompletions {
		if done {
			completions = append(completions, domain.QuestCompletion{
				QuestID:     questID,
				CompletedOn: snapshot.LastActiveDate,
			})
		}
	}

	// Catalog order keeps badge pushes deterministic.
	var badgeIDs []string
	for _, b := range s.catalog.Badges() {
		if snapshot.UnlockedBadges[b.ID] {
			badgeIDs = append(badgeIDs, b.ID)
		}
	}

	var errs []error
	if err := s.remote.UpsertRecord(ctx, record); err != nil {
		errs = append(errs, fmt.Errorf("record push: %w", err))
	}
	if err := s.remote.UpsertCompletions(ctx, snapshot.Identity, completions); err != nil {
		errs = append(errs, fmt.Errorf("completions push: %w", err))
	}
	if err := s.remote.UpsertBadges(ctx, snapshot.Identity, badgeIDs); err != nil {
		errs = append(errs, fmt.Errorf("badges push: %w", err))
	}

	metrics.SyncDuration.WithLabelValues("push").Observe(time.Since(start).Seconds())

	if len(errs) > 0 {
		metrics.SyncsTotal.WithLabelValues("push", "error").Inc()
		err := errors.Join(errs...)
		logger.FromContext(ctx).Warn("Remote sync incomplete, local state unaffected",
			"identity", snapshot.Identity, "error", err)
		return err
	}

	metrics.SyncsTotal.WithLabelValues("push", "ok").Inc()
	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, event.NewSyncCompletedEvent(snapshot.Identity, "push"))
	}
	return nil
}

// LoadFromRemote replaces the local state wholesale with the remote replica.
// Unless force is set, a remote record older than the local state is refused
// so unsynced local progress is not silently discarded.
func (s *service) LoadFromRemote(ctx context.Context, force bool) error {
	s.mu.Lock()
	identity := s.state.Identity
	localUpdatedAt := s.state.UpdatedAt
	s.mu.Unlock()

	if identity == "" {
		return domain.ErrNoIdentity
	}

	start := time.Now()

	record, err := s.remote.GetRecord(ctx, identity)
	if err != nil {
		metrics.SyncsTotal.WithLabelValues("pull", "error").Inc()
		return fmt.Errorf("record fetch: %w", err)
	}
	if record == nil {
		metrics.SyncsTotal.WithLabelValues("pull", "error").Inc()
		return fmt.Errorf("%w: %s", domain.ErrRemoteNotFound, identity)
	}

	if !force && record.UpdatedAt.Before(localUpdatedAt) {
		metrics.SyncsTotal.WithLabelValues("pull", "error").Inc()
		return fmt.Errorf("%w: local %s, remote %s", domain.ErrLocalNewer,
			localUpdatedAt.Format(time.RFC3339), record.UpdatedAt.Format(time.RFC3339))
	}

	completions, err := s.remote.ListCompletions(ctx, identity)
	if err != nil {
		metrics.SyncsTotal.WithLabelValues("pull", "error").Inc()
		return fmt.Errorf("completions fetch: %w", err)
	}
	badgeIDs, err := s.remote.ListBadges(ctx, identity)
	if err != nil {
		metrics.SyncsTotal.WithLabelValues("pull", "error").Inc()
		return fmt.Errorf("badges fetch: %w", err)
	}

	s.mu.Lock()
	s.state.TotalXP = record.TotalXP
	s.state.Streak = record.Streak
	s.state.LastActiveDate = record.LastActiveDate
	s.state.JourneyProgress = record.JourneyProgress
	s.state.UpdatedAt = record.UpdatedAt

	s.state.CompletedQuests = make(map[string]bool, len(completions))
	s.state.DailyCompletions = make(map[string]bool)
	for _, c := range completions {
		s.state.CompletedQuests[c.QuestID] = true
		if c.CompletedOn == record.LastActiveDate {
			s.state.DailyCompletions[c.QuestID] = true
		}
	}

	s.state.UnlockedBadges = make(map[string]bool, len(badgeIDs))
	for _, id := range badgeIDs {
		s.state.UnlockedBadges[id] = true
	}

	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)

	metrics.SyncDuration.WithLabelValues("pull").Observe(time.Since(start).Seconds())
	metrics.SyncsTotal.WithLabelValues("pull", "ok").Inc()
	metrics.StreakLength.Set(float64(snapshot.Streak))

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, event.NewSyncCompletedEvent(identity, "pull"))
	}

	logger.FromContext(ctx).Info("Loaded progression from remote",
		"identity", identity, "total_xp", snapshot.TotalXP)
	return nil
}

// AttachIdentity links the local profile to a remote account. Existing local
// progress is pushed (and never clobbered by a pull); an empty local profile
// pulls whatever the account already has.
func (s *service) AttachIdentity(ctx context.Context, identity string) error {
	if err := uuid.Validate(identity); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidIdentity, identity)
	}

	s.mu.Lock()
	if s.state.Identity != "" && s.state.Identity != identity {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrIdentityAttached, s.state.Identity)
	}
	s.state.Identity = identity
	hasProgress := s.state.HasProgress()
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)

	if hasProgress {
		// Push-then-no-pull: a fresh remote record must not clobber real
		// local progress.
		return s.SyncToRemote(ctx)
	}

	err := s.LoadFromRemote(ctx, true)
	if errors.Is(err, domain.ErrRemoteNotFound) {
		// Brand-new account; nothing to pull.
		return nil
	}
	return err
}

// DetachIdentity signs the profile out. Local progress does not survive a
// logout; the state returns to zero in guest mode.
func (s *service) DetachIdentity(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Identity == "" {
		s.mu.Unlock()
		return domain.ErrNoIdentity
	}
	s.state = domain.NewProgressionState(s.today())
	s.state.UpdatedAt = s.now().UTC()
	s.pendingBadge = nil
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	metrics.StreakLength.Set(0)
	return nil
}

// Identity returns the attached identity, or empty in guest mode.
func (s *service) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Identity
}

// Snapshot returns a deep copy of the current state.
func (s *service) Snapshot() domain.ProgressionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Summary returns the derived display view.
func (s *service) Summary() domain.ProgressSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.ProgressSummary{
		TotalXP:         s.state.TotalXP,
		Level:           ComputeLevel(s.state.TotalXP),
		XPProgress:      ComputeXPProgress(s.state.TotalXP),
		Streak:          s.state.Streak,
		LastActiveDate:  s.state.LastActiveDate,
		CompletedToday:  len(s.state.DailyCompletions),
		LifetimeQuests:  len(s.state.CompletedQuests),
		UnlockedBadges:  len(s.state.UnlockedBadges),
		JourneyProgress: s.state.JourneyProgress,
		Identity:        s.state.Identity,
	}
}

// PendingBadge returns the badge waiting for celebration, or nil.
func (s *service) PendingBadge() *domain.BadgeDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingBadge == nil {
		return nil
	}
	b := *s.pendingBadge
	return &b
}

// ClearPendingBadge empties the notification slot after display.
func (s *service) ClearPendingBadge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingBadge = nil
}

// Shutdown flushes the state a final time and closes local storage.
func (s *service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	snapshot := s.state.Clone()
	s.mu.Unlock()

	if err := s.local.Save(ctx, snapshot); err != nil {
		logger.FromContext(ctx).Error("Final state flush failed", "error", err)
	}
	return s.local.Close()
}

// persist writes the snapshot to local durable storage. Failures are logged
// and counted but never fail the mutation: the in-memory state remains
// authoritative for the session and the next successful save catches up.
func (s *service) persist(ctx context.Context, snapshot domain.ProgressionState) {
	if err := s.local.Save(ctx, snapshot); err != nil {
		metrics.LocalSaveErrors.Inc()
		logger.FromContext(ctx).Error("Failed to persist progression state", "error", err)
	}
}
