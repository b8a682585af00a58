package handler

// Generic HTTP error messages for client responses.
// These messages intentionally do not expose internal error details.
// Both handlers and tests should reference these constants.
const (
	ErrMsgMethodNotAllowed = "Method not allowed"
	ErrMsgInvalidRequest   = "Invalid request body"

	// Quest operation error messages
	ErrMsgCompleteQuestFailed  = "Failed to complete quest"
	ErrMsgAnswerScenarioFailed = "Failed to check answer"

	// Progress error messages
	ErrMsgGetProgressFailed = "Failed to retrieve progress"
	ErrMsgStreakCheckFailed = "Failed to evaluate streak"
	ErrMsgResetFailed       = "Failed to reset progress"

	// Sync error messages
	ErrMsgSyncFailed = "Failed to sync with remote"
	ErrMsgPullFailed = "Failed to load remote progress"

	// Identity error messages
	ErrMsgAttachIdentityFailed = "Failed to link account"
	ErrMsgDetachIdentityFailed = "Failed to unlink account"
)

// Success messages for API responses
const (
	MsgProgressResetSuccess   = "Progress reset successfully"
	MsgSyncCompletedSuccess   = "Sync completed successfully"
	MsgIdentityLinkedSuccess  = "Account linked successfully"
	MsgIdentityRemovedSuccess = "Account unlinked"
	MsgPendingBadgeCleared    = "Pending badge cleared"
)
