package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Progression metric names
const (
	MetricNameQuestsCompleted   = "quests_completed_total"
	MetricNameDuplicateAttempts = "quest_duplicate_attempts_total"
	MetricNameXPAwarded         = "xp_awarded_total"
	MetricNameLevelUps          = "level_ups_total"
	MetricNameBadgesUnlocked    = "badges_unlocked_total"
	MetricNameStreakLength      = "streak_length_days"
	MetricNameResets            = "progression_resets_total"
)

// Storage and sync metric names
const (
	MetricNameLocalSaveErrors = "local_save_errors_total"
	MetricNameSyncsTotal      = "remote_syncs_total"
	MetricNameSyncDuration    = "remote_sync_duration_seconds"
)

// ============================================================================
// Metric Help Text
// ============================================================================

const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

const (
	HelpTextQuestsCompleted   = "Total number of quests completed"
	HelpTextDuplicateAttempts = "Total number of same-day duplicate completion attempts"
	HelpTextXPAwarded         = "Total XP awarded"
	HelpTextLevelUps          = "Total number of level boundary crossings"
	HelpTextBadgesUnlocked    = "Total number of badges unlocked"
	HelpTextStreakLength      = "Current streak length in days"
	HelpTextResets            = "Total number of full progression resets"
)

const (
	HelpTextLocalSaveErrors = "Total number of local durable-storage save failures"
	HelpTextSyncsTotal      = "Total number of remote sync operations"
	HelpTextSyncDuration    = "Remote sync latency in seconds"
)

// ============================================================================
// Label Names
// ============================================================================

const (
	LabelMethod    = "method"
	LabelPath      = "path"
	LabelStatus    = "status"
	LabelQuest     = "quest"
	LabelBadge     = "badge"
	LabelDirection = "direction" // push | pull
	LabelResult    = "result"    // ok | error
)

// HTTPLatencyBuckets are the histogram buckets for request latency.
var HTTPLatencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

// SyncLatencyBuckets cover network round trips to the remote store.
var SyncLatencyBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10}
