//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

var baseURL string

func TestMain(m *testing.M) {
	baseURL = os.Getenv("STORYLOOM_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	// Wait for server readiness (up to 30s)
	ready := false
	for i := 0; i < 30; i++ {
		resp, err := http.Get(baseURL + "/api/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				ready = true
				break
			}
		}
		time.Sleep(1 * time.Second)
	}
	if !ready {
		fmt.Fprintf(os.Stderr, "server at %s not ready after 30s\n", baseURL)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func post(t *testing.T, path string, body interface{}, out interface{}) int {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(baseURL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
	return resp.StatusCode
}

func get(t *testing.T, path string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestTokenEstimate(t *testing.T) {
	var body map[string]int
	status := post(t, "/api/tokens/estimate", map[string]string{"text": "hello world"}, &body)
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	if body["tokens"] != 3 {
		t.Errorf("expected 3 tokens, got %d", body["tokens"])
	}
}

func TestBibleToContextFlow(t *testing.T) {
	// Seed a character, a chapter linked to it, then fetch the context.
	var char struct {
		ID string `json:"id"`
	}
	status := post(t, "/api/characters", map[string]interface{}{
		"name": "Smoke Wren",
		"role": "spy",
	}, &char)
	if status != http.StatusCreated {
		t.Fatalf("create character: status %d", status)
	}

	var chapter struct {
		ID string `json:"id"`
	}
	status = post(t, "/api/chapters", map[string]interface{}{
		"volume_id":     "smoke-vol",
		"number":        1,
		"title":         "Smoke Test Gate",
		"content":       "The gate held through the night.",
		"character_ids": []string{char.ID},
		"outline":       map[string]interface{}{"goal": "Hold the gate."},
	}, &chapter)
	if status != http.StatusCreated {
		t.Fatalf("create chapter: status %d", status)
	}

	var result struct {
		Text        string `json:"text"`
		TotalTokens int    `json:"total_tokens"`
	}
	status = get(t, "/api/chapters/"+chapter.ID+"/context", &result)
	if status != http.StatusOK {
		t.Fatalf("chapter context: status %d", status)
	}
	if !strings.Contains(result.Text, "<<<STORY_CONTEXT>>>") {
		t.Error("context missing delimiter")
	}
	if !strings.Contains(result.Text, "Smoke Wren") {
		t.Errorf("context missing linked character, got: %.300s", result.Text)
	}
	if result.TotalTokens <= 0 {
		t.Errorf("expected positive token count, got %d", result.TotalTokens)
	}
}

func TestMissingChapterContextDegrades(t *testing.T) {
	var result struct {
		Text string `json:"text"`
	}
	status := get(t, "/api/chapters/smoke-missing/context", &result)
	if status != http.StatusOK {
		t.Fatalf("expected 200 for missing chapter, got %d", status)
	}
	if !strings.Contains(result.Text, "<<<STORY_CONTEXT>>>") {
		t.Error("empty context missing delimiter")
	}
}

func TestProjectContext(t *testing.T) {
	var result struct {
		Text string `json:"text"`
	}
	status := get(t, "/api/context", &result)
	if status != http.StatusOK {
		t.Fatalf("project context: status %d", status)
	}
	if len(result.Text) == 0 {
		t.Error("expected non-empty project context block")
	}
}
