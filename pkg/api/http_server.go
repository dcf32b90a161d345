package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"neurograph/pkg/gql"
	"neurograph/pkg/optimizer"
	"neurograph/pkg/plan"
)

// Server exposes the optimizer over HTTP: submit a query, get back the plan
// before and after optimization plus the run's statistics.
type Server struct {
	opt *optimizer.Optimizer
}

func NewServer(opt *optimizer.Optimizer) *Server {
	return &Server{opt: opt}
}

func (s *Server) Start(port string) {
	http.HandleFunc("/api/explain", s.handleExplain)
	http.HandleFunc("/api/stats", s.handleStats)

	log.Printf("[API] Server listening on %s...", port)
	log.Fatal(http.ListenAndServe(port, nil))
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	stmt, err := gql.Parse(req.Query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	unoptimized := gql.Plan(stmt)

	start := time.Now()
	optimized, st, err := s.opt.OptimizeWithStats(unoptimized)
	duration := time.Since(start)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"query":              req.Query,
		"unoptimized":        plan.Format(unoptimized),
		"optimized":          plan.Format(optimized),
		"nodes_before":       st.PlanNodesBefore,
		"nodes_after":        st.PlanNodesAfter,
		"rules_applied":      st.RulesApplied,
		"exploration_rounds": st.ExplorationRounds,
		"final_cost":         st.FinalCost,
		"latency_ns":         duration.Nanoseconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	m := s.opt.Metrics
	resp := map[string]interface{}{
		"optimize_count":    m.Optimizes(),
		"rule_fire_count":   m.RulesFired(),
		"error_count":       m.Errors(),
		"avg_optimize_ns":   m.AverageOptimizeTime().Nanoseconds(),
		"rules_per_request": m.RulesPerOptimize(),
	}
	json.NewEncoder(w).Encode(resp)
}
