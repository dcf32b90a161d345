package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"neurograph/pkg/optimizer"
	"neurograph/pkg/stats"
)

func newTestServer() *Server {
	provider := stats.NewMemoryProvider()
	provider.SetRowCount("player", 10000)
	provider.SetAverageDegree("serve", 3)
	return NewServer(optimizer.NewOptimizer(optimizer.DefaultConfig(), provider))
}

func TestHandleExplainReturnsBothPlans(t *testing.T) {
	s := newTestServer()

	body := `{"query":"MATCH (n:player) WHERE n.age > 30 RETURN n.name ORDER BY n.age LIMIT 10"}`
	req := httptest.NewRequest(http.MethodPost, "/api/explain", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleExplain(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Unoptimized  string `json:"unoptimized"`
		Optimized    string `json:"optimized"`
		NodesBefore  int    `json:"nodes_before"`
		NodesAfter   int    `json:"nodes_after"`
		RulesApplied int    `json:"rules_applied"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode explain response: %v", err)
	}
	if !strings.Contains(resp.Unoptimized, "Limit(10)") {
		t.Errorf("unoptimized plan should carry the Limit node:\n%s", resp.Unoptimized)
	}
	if !strings.Contains(resp.Optimized, "TopN") {
		t.Errorf("sort+limit should fuse into TopN:\n%s", resp.Optimized)
	}
	if resp.NodesAfter >= resp.NodesBefore {
		t.Errorf("optimization should shrink the plan: %d -> %d", resp.NodesBefore, resp.NodesAfter)
	}
	if resp.RulesApplied == 0 {
		t.Error("expected at least one rule to fire")
	}
}

func TestHandleExplainRejectsBadRequests(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/explain", nil)
	rec := httptest.NewRecorder()
	s.handleExplain(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: expected 405, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/explain", strings.NewReader(`{"query":"SELECT nope"}`))
	rec = httptest.NewRecorder()
	s.handleExplain(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad query: expected 400, got %d", rec.Code)
	}
}

func TestHandleStatsCountsRequests(t *testing.T) {
	s := newTestServer()

	body := `{"query":"MATCH (n:player) RETURN n.name"}`
	req := httptest.NewRequest(http.MethodPost, "/api/explain", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleExplain(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("explain expected 200, got %d", rec.Code)
	}

	statsReq := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	statsRec := httptest.NewRecorder()
	s.handleStats(statsRec, statsReq)
	if statsRec.Code != http.StatusOK {
		t.Fatalf("stats expected 200, got %d", statsRec.Code)
	}

	var resp struct {
		OptimizeCount uint64 `json:"optimize_count"`
	}
	if err := json.Unmarshal(statsRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode stats response: %v", err)
	}
	if resp.OptimizeCount != 1 {
		t.Errorf("optimize count: got %d, want 1", resp.OptimizeCount)
	}
}
