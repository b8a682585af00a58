package domain

import "errors"

// Error message string constants - single source of truth for error messages.
// Use these in assert.Contains() checks when testing error messages.
const (
	ErrMsgQuestNotFound    = "quest not found"
	ErrMsgBadgeNotFound    = "badge not found"
	ErrMsgInvalidOption    = "invalid scenario option"
	ErrMsgNotScenario      = "quest is not a scenario"
	ErrMsgNoIdentity       = "no identity attached"
	ErrMsgIdentityAttached = "identity already attached"
	ErrMsgInvalidIdentity  = "invalid identity"
	ErrMsgRemoteNotFound   = "remote record not found"
	ErrMsgLocalNewer       = "local state is newer than remote"
	ErrMsgInvalidInput     = "invalid input"
)

// Common domain errors.
// Wrap with fmt.Errorf("%w: %s", domain.ErrXxx, details) for additional context.
var (
	ErrQuestNotFound    = errors.New(ErrMsgQuestNotFound)
	ErrBadgeNotFound    = errors.New(ErrMsgBadgeNotFound)
	ErrInvalidOption    = errors.New(ErrMsgInvalidOption)
	ErrNotScenario      = errors.New(ErrMsgNotScenario)
	ErrNoIdentity       = errors.New(ErrMsgNoIdentity)
	ErrIdentityAttached = errors.New(ErrMsgIdentityAttached)
	ErrInvalidIdentity  = errors.New(ErrMsgInvalidIdentity)
	ErrRemoteNotFound   = errors.New(ErrMsgRemoteNotFound)
	ErrLocalNewer       = errors.New(ErrMsgLocalNewer)
	ErrInvalidInput     = errors.New(ErrMsgInvalidInput)
)
