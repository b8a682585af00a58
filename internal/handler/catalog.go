package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prepquest/prepquest-server/internal/catalog"
	"github.com/prepquest/prepquest-server/internal/domain"
)

// CatalogHandler serves the static badge and quest catalogs.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// QuestView is a quest definition with answer keys stripped. Clients check
// answers through the answer endpoint, never by inspecting the catalog.
type QuestView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	QuestType   string   `json:"quest_type"`
	XP          int      `json:"xp"`
	Options     []string `json:"options,omitempty"`
	Steps       []string `json:"steps,omitempty"`
	Milestone   bool     `json:"milestone"`
}

func toQuestView(q domain.QuestDefinition) QuestView {
	view := QuestView{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		QuestType:   q.QuestType,
		XP:          q.XP,
		Steps:       q.Steps,
		Milestone:   q.Milestone,
	}
	for _, opt := range q.Options {
		view.Options = append(view.Options, opt.Text)
	}
	return view
}

// ListBadges returns all badge definitions
// @Summary List the badge catalog
// @Tags catalog
// @Produce json
// @Success 200 {array} domain.BadgeDefinition
// @Router /api/v1/catalog/badges [get]
func (h *CatalogHandler) ListBadges(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.Badges())
}

// ListQuests returns all quest definitions with answer keys stripped
// @Summary List the quest catalog
// @Tags catalog
// @Produce json
// @Success 200 {array} QuestView
// @Router /api/v1/catalog/quests [get]
func (h *CatalogHandler) ListQuests(w http.ResponseWriter, _ *http.Request) {
	quests := h.catalog.Quests()
	views := make([]QuestView, 0, len(quests))
	for _, q := range quests {
		views = append(views, toQuestView(q))
	}
	respondJSON(w, http.StatusOK, views)
}

// GetQuest returns a single quest definition
// @Summary Get one quest
// @Tags catalog
// @Produce json
// @Param questID path string true "Quest ID"
// @Success 200 {object} QuestView
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/catalog/quests/{questID} [get]
func (h *CatalogHandler) GetQuest(w http.ResponseWriter, r *http.Request) {
	questID := chi.URLParam(r, "questID")

	quest, err := h.catalog.Quest(questID)
	if err != nil {
		status, msg := mapServiceErrorToUserMessage(err)
		respondError(w, status, msg)
		return
	}

	respondJSON(w, http.StatusOK, toQuestView(*quest))
}
