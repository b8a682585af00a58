package config

// Catalog config file paths, relative to the working directory
const (
	ConfigPathBadgeCatalog = "configs/badges.json"
	ConfigPathQuestCatalog = "configs/quests.json"
)

// DefaultSyncIntervalSeconds is the background remote-sync cadence while an
// identity is attached.
const DefaultSyncIntervalSeconds = 30

// Database pool defaults
const (
	DefaultDBMaxConns          = 10
	DefaultDBMaxIdleMinutes    = 5
	DefaultDBMaxLifeMinutes    = 30
	DefaultHTTPRequestLimit    = 1 << 20 // 1MB request body cap
	DefaultShutdownTimeoutSecs = 10
)
