package worker

// Log Messages - Day Rollover Worker
const (
	LogMsgRolloverStandby   = "Day rollover worker in standby"
	LogMsgRolloverApproach  = "Day rollover scheduled"
	LogMsgRolloverStarting  = "Day rollover starting"
	LogMsgRolloverCompleted = "Day rollover completed"
	LogMsgRolloverFailed    = "Day rollover failed"
)

// Log Messages - Sync Worker
const (
	LogMsgSyncWorkerStarted = "Sync worker started"
	LogMsgSyncWorkerStopped = "Sync worker stopped"
	LogMsgSyncSkippedGuest  = "Sync skipped, no identity attached"
	LogMsgSyncFailed        = "Periodic sync failed"
)
