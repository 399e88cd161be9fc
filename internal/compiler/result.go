package compiler

import (
	"github.com/flowsmith/flowsmith/internal/selector"
	"github.com/flowsmith/flowsmith/internal/workflow"
)

// CandidateSummary is the caller-facing view of one clarification
// candidate: enough to phrase a follow-up request without re-parsing.
type CandidateSummary struct {
	ActionID       string   `json:"action_id"`
	Platform       string   `json:"platform"`
	Operation      string   `json:"operation"`
	Score          float64  `json:"score"`
	MatchedSignals []string `json:"matched_signals,omitempty"`
}

// Clarification is the terminal run outcome asking the requester to
// disambiguate. Not an error: a recognized branch requiring user input.
type Clarification struct {
	Reason     string             `json:"reason"`
	Candidates []CandidateSummary `json:"candidates,omitempty"`
}

// Result is the outcome of one compile run. Exactly one of Workflow and
// Clarification is set; a nil Result accompanies a returned error.
type Result struct {
	RunID         string               `json:"run_id"`
	Workflow      *workflow.Definition `json:"workflow,omitempty"`
	Report        *workflow.Report     `json:"report,omitempty"`
	Clarification *Clarification       `json:"clarification,omitempty"`
	Confidence    float64              `json:"confidence"`
	CacheHit      bool                 `json:"-"`
}

func summarize(candidates []selector.Candidate) []CandidateSummary {
	out := make([]CandidateSummary, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, CandidateSummary{
			ActionID:       c.Action.ID,
			Platform:       c.Action.Platform,
			Operation:      c.Action.Operation,
			Score:          c.Score,
			MatchedSignals: c.MatchedSignals,
		})
	}
	return out
}
