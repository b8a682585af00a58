package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prepquest/prepquest-server/internal/logger"
	"github.com/prepquest/prepquest-server/internal/progression"
)

// ProgressionHandler serves the progression API.
type ProgressionHandler struct {
	service progression.Service
}

// NewProgressionHandler creates a new ProgressionHandler
func NewProgressionHandler(service progression.Service) *ProgressionHandler {
	return &ProgressionHandler{service: service}
}

// CompleteQuest handles quest completion
// @Summary Complete a quest
// @Description Awards the quest's XP once per calendar day, evaluates level and badge unlocks
// @Tags quests
// @Produce json
// @Param questID path string true "Quest ID"
// @Success 200 {object} domain.CompletionReceipt
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/quests/{questID}/complete [post]
func (h *ProgressionHandler) CompleteQuest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	questID := chi.URLParam(r, "questID")

	receipt, err := h.service.CompleteQuest(ctx, questID)
	if err != nil {
		log.Error("Failed to complete quest", "quest_id", questID, "error", err)
		status, msg := mapServiceErrorToUserMessage(err)
		respondError(w, status, msg)
		return
	}

	respondJSON(w, http.StatusOK, receipt)
}

// AnswerScenarioRequest is the body for scenario answers.
type AnswerScenarioRequest struct {
	OptionIndex *int `json:"option_index" validate:"required,min=0"`
}

// AnswerScenario checks a scenario answer against the catalog
// @Summary Answer a scenario question
// @Tags quests
// @Accept json
// @Produce json
// @Param questID path string true "Quest ID"
// @Success 200 {object} domain.ScenarioAnswer
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/quests/{questID}/answer [post]
func (h *ProgressionHandler) AnswerScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	questID := chi.URLParam(r, "questID")

	var req AnswerScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return
	}
	if err := GetValidator().ValidateStruct(req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": FormatValidationError(err)})
		return
	}

	answer, err := h.service.AnswerScenario(ctx, questID, *req.OptionIndex)
	if err != nil {
		log.Error("Failed to check scenario answer", "quest_id", questID, "error", err)
		status, msg := mapServiceErrorToUserMessage(err)
		respondError(w, status, msg)
		return
	}

	respondJSON(w, http.StatusOK, answer)
}

// GetProgress returns the derived progress summary
// @Summary Get progress summary
// @Tags progress
// @Produce json
// @Success 200 {object} domain.ProgressSummary
// @Router /api/v1/progress [get]
func (h *ProgressionHandler) GetProgress(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Summary())
}

// GetState returns the full progression state snapshot
// @Summary Get full progression state
// @Tags progress
// @Produce json
// @Success 200 {object} domain.ProgressionState
// @Router /api/v1/progress/state [get]
func (h *ProgressionHandler) GetState(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Snapshot())
}

// CheckStreak evaluates the streak for today
// @Summary Evaluate the daily streak
// @Description Idempotent within a calendar day; clients call this on session start
// @Tags progress
// @Produce json
// @Success 200 {object} domain.StreakResult
// @Router /api/v1/streak/check [post]
func (h *ProgressionHandler) CheckStreak(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	result, err := h.service.CheckAndUpdateStreak(ctx)
	if err != nil {
		log.Error("Failed to evaluate streak", "error", err)
		respondError(w, http.StatusInternalServerError, ErrMsgStreakCheckFailed)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Reset wipes all progression data
// @Summary Reset all progression data
// @Tags progress
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /api/v1/progress/reset [post]
func (h *ProgressionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if err := h.service.ResetAllData(ctx); err != nil {
		log.Error("Failed to reset progression", "error", err)
		respondError(w, http.StatusInternalServerError, ErrMsgResetFailed)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgProgressResetSuccess})
}

// GetPendingBadge returns the badge awaiting celebration, if any
// @Summary Poll the pending badge slot
// @Tags badges
// @Produce json
// @Success 200 {object} domain.BadgeDefinition
// @Success 204 "No pending badge"
// @Router /api/v1/badges/pending [get]
func (h *ProgressionHandler) GetPendingBadge(w http.ResponseWriter, _ *http.Request) {
	badge := h.service.PendingBadge()
	if badge == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, badge)
}

// ClearPendingBadge empties the pending badge slot
// @Summary Clear the pending badge slot
// @Tags badges
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /api/v1/badges/pending [delete]
func (h *ProgressionHandler) ClearPendingBadge(w http.ResponseWriter, _ *http.Request) {
	h.service.ClearPendingBadge()
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgPendingBadgeCleared})
}

// AttachIdentityRequest is the body for linking an account.
type AttachIdentityRequest struct {
	Identity string `json:"identity" validate:"required,uuid4"`
}

// AttachIdentity links the profile to a remote account
// @Summary Link a remote account
// @Tags identity
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/identity [post]
func (h *ProgressionHandler) AttachIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req AttachIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return
	}
	if err := GetValidator().ValidateStruct(req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": FormatValidationError(err)})
		return
	}

	if err := h.service.AttachIdentity(ctx, req.Identity); err != nil {
		log.Error("Failed to attach identity", "error", err)
		status, msg := mapServiceErrorToUserMessage(err)
		respondError(w, status, msg)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgIdentityLinkedSuccess})
}

// DetachIdentity unlinks the remote account and clears local progress
// @Summary Unlink the remote account
// @Tags identity
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/identity [delete]
func (h *ProgressionHandler) DetachIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if err := h.service.DetachIdentity(ctx); err != nil {
		log.Error("Failed to detach identity", "error", err)
		status, msg := mapServiceErrorToUserMessage(err)
		respondError(w, status, msg)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgIdentityRemovedSuccess})
}

// Sync pushes the local state to the remote store
// @Summary Push local progress to the remote store
// @Tags sync
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/sync [post]
func (h *ProgressionHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if err := h.service.SyncToRemote(ctx); err != nil {
		log.Error("Manual sync failed", "error", err)
		status, msg := mapServiceErrorToUserMessage(err)
		respondError(w, status, msg)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgSyncCompletedSuccess})
}

// PullRequest is the body for pulling remote progress.
type PullRequest struct {
	Force bool `json:"force"`
}

// Pull replaces the local state with the remote replica
// @Summary Pull remote progress, replacing local state
// @Tags sync
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/sync/pull [post]
func (h *ProgressionHandler) Pull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req PullRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return
		}
	}

	if err := h.service.LoadFromRemote(ctx, req.Force); err != nil {
		log.Error("Pull failed", "force", req.Force, "error", err)
		status, msg := mapServiceErrorToUserMessage(err)
		respondError(w, status, msg)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgSyncCompletedSuccess})
}
