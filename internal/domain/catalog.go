package domain

// BadgeUnlockType selects which counter a badge threshold is tested against.
type BadgeUnlockType string

const (
	BadgeUnlockXP     BadgeUnlockType = "xp"     // TotalXP >= Requirement
	BadgeUnlockStreak BadgeUnlockType = "streak" // Streak >= Requirement
	BadgeUnlockQuests BadgeUnlockType = "quests" // lifetime distinct quests >= Requirement
)

// BadgeDefinition is a static, immutable badge template. Catalog order is
// insertion order and determines the order newly unlocked badges are reported.
type BadgeDefinition struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	UnlockType  BadgeUnlockType `json:"unlock_type"`
	Requirement int             `json:"requirement"`
}

// Quest type constants
const (
	QuestTypeScenario  = "scenario"  // multiple-choice emergency scenario
	QuestTypeChecklist = "checklist" // ordered preparation steps
)

// ScenarioOption is one multiple-choice answer in a scenario quest.
type ScenarioOption struct {
	Text        string `json:"text"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation"`
}

// QuestDefinition is a static, stateless quest template. Only the progression
// state tracks interaction with it.
type QuestDefinition struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	QuestType   string           `json:"quest_type"`
	XP          int              `json:"xp"`
	Options     []ScenarioOption `json:"options,omitempty"` // scenario quests
	Steps       []string         `json:"steps,omitempty"`   // checklist quests
	Milestone   bool             `json:"milestone"`         // counts toward journey progress
}

// BadgeCatalogConfig is the on-disk shape of configs/badges.json.
type BadgeCatalogConfig struct {
	Version string            `json:"version"`
	Badges  []BadgeDefinition `json:"badges"`
}

// QuestCatalogConfig is the on-disk shape of configs/quests.json.
type QuestCatalogConfig struct {
	Version string            `json:"version"`
	Quests  []QuestDefinition `json:"quests"`
}

// ScenarioAnswer is the result of checking a scenario option. Stateless: it
// does not record the attempt.
type ScenarioAnswer struct {
	QuestID     string `json:"quest_id"`
	OptionIndex int    `json:"option_index"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation"`
	XP          int    `json:"xp"` // awarded if the client follows up with a completion
}
