// Package catalog loads and serves the static badge and quest catalogs.
// Catalogs are versioned with the app, read-only at runtime, and injected
// into consumers so the progression service stays free of static-data
// coupling.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/prepquest/prepquest-server/internal/domain"
)

// Catalog holds the immutable badge and quest definitions, in file order.
type Catalog struct {
	badges []domain.BadgeDefinition
	quests []domain.QuestDefinition

	badgeIndex map[string]int
	questIndex map[string]int

	milestones []string // ordered journey milestone quest IDs
}

// Load reads both catalog files and validates them.
func Load(badgePath, questPath string) (*Catalog, error) {
	badgeData, err := os.ReadFile(badgePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read badge catalog: %w", err)
	}

	var badgeCfg domain.BadgeCatalogConfig
	if err := json.Unmarshal(badgeData, &badgeCfg); err != nil {
		return nil, fmt.Errorf("failed to parse badge catalog: %w", err)
	}

	questData, err := os.ReadFile(questPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read quest catalog: %w", err)
	}

	var questCfg domain.QuestCatalogConfig
	if err := json.Unmarshal(questData, &questCfg); err != nil {
		return nil, fmt.Errorf("failed to parse quest catalog: %w", err)
	}

	return New(badgeCfg.Badges, questCfg.Quests)
}

// New builds a catalog from in-memory definitions. Used directly by tests.
func New(badges []domain.BadgeDefinition, quests []domain.QuestDefinition) (*Catalog, error) {
	c := &Catalog{
		badges:     badges,
		quests:     quests,
		badgeIndex: make(map[string]int, len(badges)),
		questIndex: make(map[string]int, len(quests)),
	}

	for i, b := range badges {
		if b.ID == "" {
			return nil, fmt.Errorf("badge at position %d has empty id", i)
		}
		if _, dup := c.badgeIndex[b.ID]; dup {
			return nil, fmt.Errorf("duplicate badge id %q", b.ID)
		}
		switch b.UnlockType {
		case domain.BadgeUnlockXP, domain.BadgeUnlockStreak, domain.BadgeUnlockQuests:
		default:
			return nil, fmt.Errorf("badge %q has unknown unlock type %q", b.ID, b.UnlockType)
		}
		if b.Requirement <= 0 {
			return nil, fmt.Errorf("badge %q has non-positive requirement %d", b.ID, b.Requirement)
		}
		c.badgeIndex[b.ID] = i
	}

	for i, q := range quests {
		if q.ID == "" {
			return nil, fmt.Errorf("quest at position %d has empty id", i)
		}
		if _, dup := c.questIndex[q.ID]; dup {
			return nil, fmt.Errorf("duplicate quest id %q", q.ID)
		}
		if q.XP < 0 {
			return nil, fmt.Errorf("quest %q has negative xp %d", q.ID, q.XP)
		}
		switch q.QuestType {
		case domain.QuestTypeScenario:
			if len(q.Options) == 0 {
				return nil, fmt.Errorf("scenario quest %q has no options", q.ID)
			}
		case domain.QuestTypeChecklist:
			if len(q.Steps) == 0 {
				return nil, fmt.Errorf("checklist quest %q has no steps", q.ID)
			}
		default:
			return nil, fmt.Errorf("quest %q has unknown type %q", q.ID, q.QuestType)
		}
		c.questIndex[q.ID] = i
		if q.Milestone {
			c.milestones = append(c.milestones, q.ID)
		}
	}

	return c, nil
}

// Badges returns all badge definitions in catalog order.
func (c *Catalog) Badges() []domain.BadgeDefinition {
	return c.badges
}

// Quests returns all quest definitions in catalog order.
func (c *Catalog) Quests() []domain.QuestDefinition {
	return c.quests
}

// Badge looks up a badge definition by ID.
func (c *Catalog) Badge(id string) (*domain.BadgeDefinition, error) {
	i, ok := c.badgeIndex[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBadgeNotFound, id)
	}
	return &c.badges[i], nil
}

// Quest looks up a quest definition by ID.
func (c *Catalog) Quest(id string) (*domain.QuestDefinition, error) {
	i, ok := c.questIndex[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuestNotFound, id)
	}
	return &c.quests[i], nil
}

// Milestones returns the ordered journey milestone quest IDs.
func (c *Catalog) Milestones() []string {
	return c.milestones
}
