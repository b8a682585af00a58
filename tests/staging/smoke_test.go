//go:build staging

package staging

import (
	"encoding/json"
	"net/http"
	"testing"
)

type QuestListItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	QuestType string `json:"quest_type"`
	XP        int    `json:"xp"`
}

func TestCatalogSmoke(t *testing.T) {
	resp, body := makeRequest(t, "GET", "/api/v1/catalog/quests", nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var quests []QuestListItem
	if err := json.Unmarshal(body, &quests); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(quests) == 0 {
		t.Error("Expected at least one quest in the catalog")
	}

	for _, q := range quests {
		if q.ID == "" {
			t.Error("Expected every quest to have an id")
		}
		if q.XP <= 0 {
			t.Errorf("Expected positive XP for quest %q, got %d", q.ID, q.XP)
		}
	}
}

func TestCatalogHidesAnswerKeys(t *testing.T) {
	resp, body := makeRequest(t, "GET", "/api/v1/catalog/quests", nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	// The catalog must never leak which scenario option is correct.
	var raw []map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	for _, quest := range raw {
		if _, ok := quest["correct"]; ok {
			t.Errorf("Quest %v leaks the answer key", quest["id"])
		}
	}
}

func TestBadgeCatalog(t *testing.T) {
	resp, body := makeRequest(t, "GET", "/api/v1/catalog/badges", nil)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var badges []map[string]interface{}
	if err := json.Unmarshal(body, &badges); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if len(badges) == 0 {
		t.Error("Expected at least one badge in the catalog")
	}
}
