package progression

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepquest/prepquest-server/internal/catalog"
	"github.com/prepquest/prepquest-server/internal/domain"
	"github.com/prepquest/prepquest-server/internal/event"
)

// fakeLocalStore keeps the last saved state in memory.
type fakeLocalStore struct {
	mu      sync.Mutex
	state   *domain.ProgressionState
	saves   int
	saveErr error
	loadErr error
	closed  bool
}

func (f *fakeLocalStore) Load(_ context.Context) (*domain.ProgressionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.state == nil {
		return nil, nil
	}
	cp := f.state.Clone()
	return &cp, nil
}

func (f *fakeLocalStore) Save(_ context.Context, state domain.ProgressionState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := state.Clone()
	f.state = &cp
	f.saves++
	return nil
}

func (f *fakeLocalStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// fakeRemoteStore records upserts and serves canned rows.
type fakeRemoteStore struct {
	mu          sync.Mutex
	record      *domain.ProgressionRecord
	completions []domain.QuestCompletion
	badges      []string

	upsertErr   error
	getErr      error
	deleteErr   error
	deleteCalls int
}

func (f *fakeRemoteStore) UpsertRecord(_ context.Context, record domain.ProgressionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.record = &record
	return nil
}

func (f *fakeRemoteStore) GetRecord(_ context.Context, _ string) (*domain.ProgressionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.record == nil {
		return nil, nil
	}
	cp := *f.record
	return &cp, nil
}

func (f *fakeRemoteStore) UpsertCompletions(_ context.Context, _ string, completions []domain.QuestCompletion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.completions = append([]domain.QuestCompletion(nil), completions...)
	return nil
}

func (f *fakeRemoteStore) ListCompletions(_ context.Context, _ string) ([]domain.QuestCompletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return append([]domain.QuestCompletion(nil), f.completions...), nil
}

func (f *fakeRemoteStore) UpsertBadges(_ context.Context, _ string, badgeIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.badges = append([]string(nil), badgeIDs...)
	return nil
}

func (f *fakeRemoteStore) ListBadges(_ context.Context, _ string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return append([]string(nil), f.badges...), nil
}

func (f *fakeRemoteStore) DeleteAll(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

// fakeClock lets tests move the calendar day.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

const testIdentity = "4dbf0047-1c1a-4f28-bf9c-2a1f0cbb1f3a"

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	badges := []domain.BadgeDefinition{
		{ID: "first_steps", Title: "First Steps", UnlockType: domain.BadgeUnlockXP, Requirement: 50},
		{ID: "xp100", Title: "Centurion", UnlockType: domain.BadgeUnlockXP, Requirement: 100},
		{ID: "streak3", Title: "Three In A Row", UnlockType: domain.BadgeUnlockStreak, Requirement: 3},
		{ID: "quests2", Title: "Getting Going", UnlockType: domain.BadgeUnlockQuests, Requirement: 2},
	}
	quests := []domain.QuestDefinition{
		{
			ID:        "earthquake_drill",
			Title:     "Earthquake Drill",
			QuestType: domain.QuestTypeScenario,
			XP:        80,
			Options: []domain.ScenarioOption{
				{Text: "Run outside", Correct: false, Explanation: "Falling debris is the main hazard."},
				{Text: "Drop, cover, hold on", Correct: true, Explanation: "Protects you from falling objects."},
			},
			Milestone: true,
		},
		{
			ID:        "go_bag",
			Title:     "Pack a Go Bag",
			QuestType: domain.QuestTypeChecklist,
			XP:        30,
			Steps:     []string{"Water", "Flashlight", "Documents"},
			Milestone: true,
		},
		{
			ID:        "kitchen_fire",
			Title:     "Kitchen Fire Response",
			QuestType: domain.QuestTypeChecklist,
			XP:        40,
			Steps:     []string{"Lid on the pan", "Turn off heat"},
		},
	}

	cat, err := catalog.New(badges, quests)
	require.NoError(t, err)
	return cat
}

type testEnv struct {
	svc    Service
	local  *fakeLocalStore
	remote *fakeRemoteStore
	clock  *fakeClock
	bus    *event.MemoryBus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		local:  &fakeLocalStore{},
		remote: &fakeRemoteStore{},
		clock:  &fakeClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
		bus:    event.NewMemoryBus(),
	}

	svc, err := NewService(testCatalog(t), env.local, env.remote, env.bus, env.clock.Now)
	require.NoError(t, err)
	env.svc = svc
	return env
}

func TestCompleteQuest(t *testing.T) {
	ctx := context.Background()

	t.Run("awards xp and records completion", func(t *testing.T) {
		env := newTestEnv(t)

		receipt, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)

		assert.Equal(t, 30, receipt.XPAwarded)
		assert.False(t, receipt.LeveledUp)
		assert.False(t, receipt.AlreadyCompleted)
		assert.True(t, receipt.State.DailyCompletions["go_bag"])
		assert.True(t, receipt.State.CompletedQuests["go_bag"])
		assert.Equal(t, 30, receipt.State.TotalXP)

		// State was persisted locally.
		require.NotNil(t, env.local.state)
		assert.Equal(t, 30, env.local.state.TotalXP)
	})

	t.Run("unknown quest", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.CompleteQuest(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrQuestNotFound)
	})

	t.Run("same day repeat is a no-op", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)

		receipt, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)

		assert.True(t, receipt.AlreadyCompleted)
		assert.Equal(t, 0, receipt.XPAwarded)
		assert.Equal(t, 30, env.svc.Snapshot().TotalXP)
	})

	t.Run("level up and badge unlocks in one completion", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.CompleteQuest(ctx, "earthquake_drill") // 80 XP
		require.NoError(t, err)

		receipt, err := env.svc.CompleteQuest(ctx, "go_bag") // 110 XP total
		require.NoError(t, err)

		assert.True(t, receipt.LeveledUp)
		ids := badgeIDs(receipt.NewBadges)
		assert.Contains(t, ids, "xp100")
		assert.Contains(t, ids, "quests2")
		assert.True(t, receipt.State.UnlockedBadges["xp100"])
	})

	t.Run("pending badge holds the first unlock until cleared", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.CompleteQuest(ctx, "earthquake_drill") // unlocks first_steps at 80 XP
		require.NoError(t, err)

		pending := env.svc.PendingBadge()
		require.NotNil(t, pending)
		assert.Equal(t, "first_steps", pending.ID)

		env.svc.ClearPendingBadge()
		assert.Nil(t, env.svc.PendingBadge())
	})

	t.Run("local save failure does not fail the completion", func(t *testing.T) {
		env := newTestEnv(t)
		env.local.saveErr = errors.New("disk full")

		receipt, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)
		assert.Equal(t, 30, receipt.State.TotalXP)
		assert.Equal(t, 30, env.svc.Snapshot().TotalXP)
	})

	t.Run("journey progress tracks milestone quests only", func(t *testing.T) {
		env := newTestEnv(t)

		receipt, err := env.svc.CompleteQuest(ctx, "kitchen_fire")
		require.NoError(t, err)
		assert.Equal(t, 0.0, receipt.State.JourneyProgress)

		receipt, err = env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)
		assert.InDelta(t, 0.5, receipt.State.JourneyProgress, 1e-9)
	})
}

func TestAnswerScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	t.Run("correct option", func(t *testing.T) {
		answer, err := env.svc.AnswerScenario(ctx, "earthquake_drill", 1)
		require.NoError(t, err)
		assert.True(t, answer.Correct)
		assert.Equal(t, 80, answer.XP)
		assert.NotEmpty(t, answer.Explanation)
	})

	t.Run("wrong option", func(t *testing.T) {
		answer, err := env.svc.AnswerScenario(ctx, "earthquake_drill", 0)
		require.NoError(t, err)
		assert.False(t, answer.Correct)
	})

	t.Run("answering awards nothing", func(t *testing.T) {
		assert.Equal(t, 0, env.svc.Snapshot().TotalXP)
	})

	t.Run("out of range option", func(t *testing.T) {
		_, err := env.svc.AnswerScenario(ctx, "earthquake_drill", 5)
		assert.ErrorIs(t, err, domain.ErrInvalidOption)
	})

	t.Run("not a scenario quest", func(t *testing.T) {
		_, err := env.svc.AnswerScenario(ctx, "go_bag", 0)
		assert.ErrorIs(t, err, domain.ErrNotScenario)
	})
}

func TestCheckAndUpdateStreak(t *testing.T) {
	ctx := context.Background()

	t.Run("same day is a no-op", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)

		result, err := env.svc.CheckAndUpdateStreak(ctx)
		require.NoError(t, err)
		assert.False(t, result.RolledOver)
		assert.Equal(t, 0, result.Streak)
		assert.True(t, result.State.DailyCompletions["go_bag"])
	})

	t.Run("consecutive day with activity extends streak and clears window", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)

		env.clock.Advance(24 * time.Hour)
		result, err := env.svc.CheckAndUpdateStreak(ctx)
		require.NoError(t, err)

		assert.True(t, result.RolledOver)
		assert.Equal(t, 1, result.Streak)
		assert.Empty(t, result.State.DailyCompletions)
		assert.True(t, result.State.CompletedQuests["go_bag"], "lifetime set survives rollover")
	})

	t.Run("gap resets streak", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)
		env.clock.Advance(24 * time.Hour)
		_, err = env.svc.CheckAndUpdateStreak(ctx)
		require.NoError(t, err)

		// No activity for two days.
		env.clock.Advance(48 * time.Hour)
		result, err := env.svc.CheckAndUpdateStreak(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Streak)
	})

	t.Run("streak badge unlocks on the crossing day", func(t *testing.T) {
		env := newTestEnv(t)

		quests := []string{"go_bag", "kitchen_fire", "earthquake_drill"}
		for i := 0; i < 3; i++ {
			_, err := env.svc.CompleteQuest(ctx, quests[i])
			require.NoError(t, err)
			env.clock.Advance(24 * time.Hour)
			result, err := env.svc.CheckAndUpdateStreak(ctx)
			require.NoError(t, err)
			assert.Equal(t, i+1, result.Streak)

			if i == 2 {
				assert.Contains(t, badgeIDs(result.NewBadges), "streak3")
			}
		}
	})
}

func TestResetAllData(t *testing.T) {
	ctx := context.Background()

	t.Run("zeroes state and keeps identity", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.svc.AttachIdentity(ctx, testIdentity))
		_, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)

		require.NoError(t, env.svc.ResetAllData(ctx))

		st := env.svc.Snapshot()
		assert.Equal(t, 0, st.TotalXP)
		assert.Empty(t, st.CompletedQuests)
		assert.Empty(t, st.UnlockedBadges)
		assert.Equal(t, testIdentity, st.Identity)
		assert.Equal(t, 1, env.remote.deleteCalls)
	})

	t.Run("succeeds even when remote wipe fails", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.svc.AttachIdentity(ctx, testIdentity))
		_, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)

		env.remote.deleteErr = errors.New("remote down")
		require.NoError(t, env.svc.ResetAllData(ctx))
		assert.Equal(t, 0, env.svc.Snapshot().TotalXP)
	})

	t.Run("guest reset skips remote", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)

		require.NoError(t, env.svc.ResetAllData(ctx))
		assert.Equal(t, 0, env.remote.deleteCalls)
	})
}

func TestSyncToRemote(t *testing.T) {
	ctx := context.Background()

	t.Run("requires identity", func(t *testing.T) {
		env := newTestEnv(t)
		assert.ErrorIs(t, env.svc.SyncToRemote(ctx), domain.ErrNoIdentity)
	})

	t.Run("pushes record completions and badges", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.svc.AttachIdentity(ctx, testIdentity))
		_, err := env.svc.CompleteQuest(ctx, "earthquake_drill")
		require.NoError(t, err)

		require.NoError(t, env.svc.SyncToRemote(ctx))

		require.NotNil(t, env.remote.record)
		assert.Equal(t, 80, env.remote.record.TotalXP)
		assert.Equal(t, 0, env.remote.record.Level)
		require.Len(t, env.remote.completions, 1)
		assert.Equal(t, "earthquake_drill", env.remote.completions[0].QuestID)
		assert.Equal(t, []string{"first_steps"}, env.remote.badges)
	})

	t.Run("failure leaves local state intact", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.svc.AttachIdentity(ctx, testIdentity))
		_, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)

		env.remote.upsertErr = errors.New("remote down")
		err = env.svc.SyncToRemote(ctx)
		require.Error(t, err)

		st := env.svc.Snapshot()
		assert.Equal(t, 30, st.TotalXP)
		assert.True(t, st.DailyCompletions["go_bag"])
	})
}

func TestLoadFromRemote(t *testing.T) {
	ctx := context.Background()
	day := domain.Date("2026-03-10")

	seedRemote := func(env *testEnv, updatedAt time.Time) {
		env.remote.record = &domain.ProgressionRecord{
			Identity:        testIdentity,
			TotalXP:         210,
			Level:           2,
			Streak:          4,
			LastActiveDate:  day,
			JourneyProgress: 0.5,
			UpdatedAt:       updatedAt,
		}
		env.remote.completions = []domain.QuestCompletion{
			{QuestID: "go_bag", CompletedOn: "2026-03-08"},
			{QuestID: "earthquake_drill", CompletedOn: day},
		}
		env.remote.badges = []string{"first_steps", "xp100"}
	}

	t.Run("replaces local state wholesale", func(t *testing.T) {
		env := newTestEnv(t)
		seedRemote(env, env.clock.Now())

		require.NoError(t, env.svc.AttachIdentity(ctx, testIdentity))

		st := env.svc.Snapshot()
		assert.Equal(t, 210, st.TotalXP)
		assert.Equal(t, 4, st.Streak)
		assert.Equal(t, day, st.LastActiveDate)
		assert.True(t, st.CompletedQuests["go_bag"])
		assert.True(t, st.CompletedQuests["earthquake_drill"])
		// Only rows from the record's active day belong to the daily window.
		assert.True(t, st.DailyCompletions["earthquake_drill"])
		assert.False(t, st.DailyCompletions["go_bag"])
		assert.True(t, st.UnlockedBadges["xp100"])
	})

	t.Run("refuses stale remote without force", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.svc.AttachIdentity(ctx, testIdentity))
		_, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)

		seedRemote(env, env.clock.Now().Add(-time.Hour))
		err = env.svc.LoadFromRemote(ctx, false)
		assert.ErrorIs(t, err, domain.ErrLocalNewer)
		assert.Equal(t, 30, env.svc.Snapshot().TotalXP)
	})

	t.Run("force overrides staleness guard", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.svc.AttachIdentity(ctx, testIdentity))
		_, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)

		seedRemote(env, env.clock.Now().Add(-time.Hour))
		require.NoError(t, env.svc.LoadFromRemote(ctx, true))
		assert.Equal(t, 210, env.svc.Snapshot().TotalXP)
	})

	t.Run("missing remote record", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.svc.AttachIdentity(ctx, testIdentity))

		err := env.svc.LoadFromRemote(ctx, false)
		assert.ErrorIs(t, err, domain.ErrRemoteNotFound)
	})

	t.Run("fetch error leaves local untouched", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.svc.AttachIdentity(ctx, testIdentity))
		_, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)

		env.remote.getErr = errors.New("remote down")
		require.Error(t, env.svc.LoadFromRemote(ctx, true))
		assert.Equal(t, 30, env.svc.Snapshot().TotalXP)
	})
}

func TestIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects malformed identity", func(t *testing.T) {
		env := newTestEnv(t)
		assert.ErrorIs(t, env.svc.AttachIdentity(ctx, "not-a-uuid"), domain.ErrInvalidIdentity)
	})

	t.Run("rejects switching identities", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.svc.AttachIdentity(ctx, testIdentity))
		other := "99999999-1c1a-4f28-bf9c-2a1f0cbb1f3a"
		assert.ErrorIs(t, env.svc.AttachIdentity(ctx, other), domain.ErrIdentityAttached)
	})

	t.Run("existing progress pushes instead of pulling", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)

		// A stale remote record must not clobber the local 30 XP.
		env.remote.record = &domain.ProgressionRecord{
			Identity:  testIdentity,
			TotalXP:   999,
			UpdatedAt: env.clock.Now().Add(time.Hour),
		}

		require.NoError(t, env.svc.AttachIdentity(ctx, testIdentity))
		assert.Equal(t, 30, env.svc.Snapshot().TotalXP)
		assert.Equal(t, 30, env.remote.record.TotalXP, "push replaced the remote record")
	})

	t.Run("fresh account attach succeeds with nothing to pull", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.svc.AttachIdentity(ctx, testIdentity))
		assert.Equal(t, testIdentity, env.svc.Identity())
	})

	t.Run("detach returns to zero guest state", func(t *testing.T) {
		env := newTestEnv(t)

		require.NoError(t, env.svc.AttachIdentity(ctx, testIdentity))
		_, err := env.svc.CompleteQuest(ctx, "go_bag")
		require.NoError(t, err)

		require.NoError(t, env.svc.DetachIdentity(ctx))

		st := env.svc.Snapshot()
		assert.Empty(t, st.Identity)
		assert.Equal(t, 0, st.TotalXP)
	})

	t.Run("detach without identity", func(t *testing.T) {
		env := newTestEnv(t)
		assert.ErrorIs(t, env.svc.DetachIdentity(ctx), domain.ErrNoIdentity)
	})
}

func TestServiceRehydration(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.CompleteQuest(ctx, "earthquake_drill")
	require.NoError(t, err)
	require.NoError(t, env.svc.Shutdown(ctx))
	assert.True(t, env.local.closed)

	// A second service over the same local store picks up where we left off.
	svc2, err := NewService(testCatalog(t), env.local, env.remote, env.bus, env.clock.Now)
	require.NoError(t, err)

	st := svc2.Snapshot()
	assert.Equal(t, 80, st.TotalXP)
	assert.True(t, st.DailyCompletions["earthquake_drill"])
	assert.True(t, st.UnlockedBadges["first_steps"])
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.CompleteQuest(ctx, "earthquake_drill")
	require.NoError(t, err)
	_, err = env.svc.CompleteQuest(ctx, "go_bag")
	require.NoError(t, err)

	sum := env.svc.Summary()
	assert.Equal(t, 110, sum.TotalXP)
	assert.Equal(t, 1, sum.Level)
	assert.InDelta(t, 0.1, sum.XPProgress, 1e-9)
	assert.Equal(t, 2, sum.CompletedToday)
	assert.Equal(t, 2, sum.LifetimeQuests)
	assert.InDelta(t, 1.0, sum.JourneyProgress, 1e-9)
}

func badgeIDs(badges []domain.BadgeDefinition) []string {
	ids := make([]string, 0, len(badges))
	for _, b := range badges {
		ids = append(ids, b.ID)
	}
	return ids
}
