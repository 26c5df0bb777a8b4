package web

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/storematch/internal/engine"
)

// SummaryResponse represents run-level statistics.
type SummaryResponse struct {
	RunID       string         `json:"run_id"`
	Total       int            `json:"total"`
	Resolved    int            `json:"resolved"`
	Unresolved  int            `json:"unresolved"`
	Pairings    int            `json:"pairings"`
	Conflicts   int            `json:"conflicts"`
	ByMethod    map[string]int `json:"by_method"`
	ResolveRate float64        `json:"resolve_rate"`
}

// AssignmentResponse represents one submission with its outcome.
type AssignmentResponse struct {
	ID          string    `json:"id"`
	FormType    string    `json:"form_type"`
	SubmittedAt time.Time `json:"submitted_at"`
	SubmittedBy string    `json:"submitted_by,omitempty"`
	StoreID     int       `json:"store_id,omitempty"`
	StoreName   string    `json:"store_name,omitempty"`
	Method      string    `json:"method"`
	Confidence  float64   `json:"confidence"`
}

// AuditResponse represents one audit trail entry.
type AuditResponse struct {
	SubmissionID string    `json:"submission_id"`
	Event        string    `json:"event"`
	Detail       string    `json:"detail"`
	DecidedAt    time.Time `json:"decided_at"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	resp := SummaryResponse{
		RunID:     s.result.RunID,
		Total:     len(s.result.Submissions),
		Pairings:  len(s.result.Pairings),
		Conflicts: len(s.result.Conflicts),
		ByMethod:  make(map[string]int),
	}
	for _, sub := range s.result.Submissions {
		resp.ByMethod[string(sub.Method)]++
		if sub.Resolved() {
			resp.Resolved++
		}
	}
	resp.Unresolved = resp.Total - resp.Resolved
	if resp.Total > 0 {
		resp.ResolveRate = float64(resp.Resolved) / float64(resp.Total) * 100
	}
	writeJSON(w, resp)
}

func (s *Server) handleAssignments(w http.ResponseWriter, r *http.Request) {
	out := make([]AssignmentResponse, 0, len(s.result.Submissions))
	for _, sub := range s.result.Submissions {
		out = append(out, s.assignmentResponse(sub))
	}
	writeJSON(w, out)
}

func (s *Server) handleAssignment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for _, sub := range s.result.Submissions {
		if sub.ID == id {
			writeJSON(w, s.assignmentResponse(sub))
			return
		}
	}
	http.Error(w, "submission not found", http.StatusNotFound)
}

func (s *Server) handleStoreAssignments(w http.ResponseWriter, r *http.Request) {
	storeID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid store id", http.StatusBadRequest)
		return
	}
	if _, ok := s.directory.Get(storeID); !ok {
		http.Error(w, "store not found", http.StatusNotFound)
		return
	}
	out := make([]AssignmentResponse, 0)
	for _, sub := range s.result.Submissions {
		if sub.StoreID == storeID {
			out = append(out, s.assignmentResponse(sub))
		}
	}
	writeJSON(w, out)
}

func (s *Server) handlePairings(w http.ResponseWriter, r *http.Request) {
	if s.result.Pairings == nil {
		writeJSON(w, []engine.PairingLink{})
		return
	}
	writeJSON(w, s.result.Pairings)
}

func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	if s.result.Conflicts == nil {
		writeJSON(w, []engine.QuotaConflict{})
		return
	}
	writeJSON(w, s.result.Conflicts)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	entries := s.result.Audit.Entries()
	out := make([]AuditResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditResponse{
			SubmissionID: e.SubmissionID,
			Event:        string(e.Event),
			Detail:       e.Detail,
			DecidedAt:    e.DecidedAt,
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "run_id": s.result.RunID})
}

func (s *Server) assignmentResponse(sub *engine.Submission) AssignmentResponse {
	resp := AssignmentResponse{
		ID:          sub.ID,
		FormType:    string(sub.FormType),
		SubmittedAt: sub.SubmittedAt,
		SubmittedBy: sub.SubmittedBy,
		StoreID:     sub.StoreID,
		Method:      string(sub.Method),
		Confidence:  sub.Confidence,
	}
	if rec, ok := s.directory.Get(sub.StoreID); ok {
		resp.StoreName = rec.Name
	}
	return resp
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// requestLogging logs method, path and duration for every request.
func requestLogging() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Printf("%s %s (%v)", r.Method, r.URL.Path, time.Since(start))
		})
	}
}
