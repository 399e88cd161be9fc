// Package selector ranks catalog actions against a parsed request. The
// scoring function is pure and its weights are configuration, so the
// tie-break and margin policy can be tested in isolation.
package selector

import (
	"sort"
	"strings"

	"github.com/flowsmith/flowsmith/internal/catalog"
	"github.com/flowsmith/flowsmith/internal/config"
	"github.com/flowsmith/flowsmith/internal/parse"
)

// Candidate is one scored action. Ephemeral: the ranked set collapses to
// a single selection or a clarification list.
type Candidate struct {
	Action         *catalog.IntegrationAction
	Score          float64
	MatchedSignals []string

	uncoveredRequired int
}

// Result is the outcome of selection: either Selected is set, or
// NeedsClarification is true and Candidates carries the top alternatives.
type Result struct {
	Selected           *catalog.IntegrationAction
	Confidence         float64
	NeedsClarification bool
	Reason             string
	Candidates         []Candidate
}

type Selector struct {
	cfg config.SelectorConfig
}

func New(cfg config.SelectorConfig) *Selector {
	return &Selector{cfg: cfg}
}

// Select scores every action and applies the confidence/margin policy.
// A platform hint acts as an exact-match filter (the highest-weight
// signal): actions on other platforms are not considered. The winner must
// score at least the confidence floor and lead the runner-up by at least
// the clarify margin; anything less is ambiguous, never a silent pick.
func (s *Selector) Select(req *parse.ParsedRequest, snap *catalog.Snapshot) Result {
	candidates := s.rank(req, snap)

	if len(candidates) == 0 {
		return Result{
			NeedsClarification: true,
			Reason:             "no catalog action matches the request",
		}
	}

	top := candidates[0]
	if top.Score < s.cfg.ConfidenceFloor {
		return Result{
			NeedsClarification: true,
			Reason:             "no action scores above the confidence floor",
			Candidates:         s.topAlternatives(candidates, 0),
		}
	}
	if len(candidates) > 1 && top.Score-candidates[1].Score < s.cfg.ClarifyMargin {
		return Result{
			NeedsClarification: true,
			Reason:             "multiple actions score within the clarification margin",
			Candidates:         s.topAlternatives(candidates, 0),
		}
	}

	return Result{
		Selected:   top.Action,
		Confidence: top.Score,
		Candidates: candidates[:1],
	}
}

// rank scores all actions and orders them by score, then fewer uncovered
// required parameters, then catalog declaration order. The order is total
// and deterministic for a fixed catalog.
func (s *Selector) rank(req *parse.ParsedRequest, snap *catalog.Snapshot) []Candidate {
	actions := snap.Actions()
	var candidates []Candidate
	order := make(map[*catalog.IntegrationAction]int, len(actions))

	for i := range actions {
		a := &actions[i]
		order[a] = i
		if req.PlatformHint != "" && !strings.EqualFold(a.Platform, req.PlatformHint) {
			continue
		}
		candidates = append(candidates, s.score(a, req, snap))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].uncoveredRequired != candidates[j].uncoveredRequired {
			return candidates[i].uncoveredRequired < candidates[j].uncoveredRequired
		}
		return order[candidates[i].Action] < order[candidates[j].Action]
	})
	return candidates
}

func (s *Selector) score(a *catalog.IntegrationAction, req *parse.ParsedRequest, snap *catalog.Snapshot) Candidate {
	c := Candidate{Action: a}

	if req.PlatformHint != "" {
		c.MatchedSignals = append(c.MatchedSignals, "platform:"+a.Platform)
	}

	if req.OperationHint != "" && operationMatches(a.Operation, req.OperationHint) {
		c.Score += s.cfg.IntentWeight
		c.MatchedSignals = append(c.MatchedSignals, "operation:"+a.Operation)
	}

	if req.EntityTypeHint != "" && entityMatches(a, req.EntityTypeHint) {
		c.Score += s.cfg.EntityWeight
		c.MatchedSignals = append(c.MatchedSignals, "entity:"+req.EntityTypeHint)
	}

	required := a.RequiredParams()
	covered := 0
	for _, name := range required {
		if paramCovered(name, req, snap) {
			covered++
		}
	}
	c.uncoveredRequired = len(required) - covered
	if len(required) > 0 {
		frac := float64(covered) / float64(len(required))
		c.Score += s.cfg.CoverageWeight * frac
		if covered > 0 {
			c.MatchedSignals = append(c.MatchedSignals, "coverage")
		}
	} else {
		c.Score += s.cfg.CoverageWeight
	}

	return c
}

func (s *Selector) topAlternatives(candidates []Candidate, from int) []Candidate {
	limit := s.cfg.MaxAlternatives
	if limit <= 0 {
		limit = 2
	}
	end := from + limit
	if end > len(candidates) {
		end = len(candidates)
	}
	return candidates[from:end]
}

func operationMatches(operation, hint string) bool {
	op := strings.ToLower(operation)
	h := strings.ToLower(hint)
	return op == h || strings.Contains(op, h) || strings.Contains(h, op)
}

func entityMatches(a *catalog.IntegrationAction, hint string) bool {
	h := strings.ToLower(hint)
	if strings.ToLower(a.EntityType) == h {
		return true
	}
	return strings.Contains(strings.ToLower(a.ID), h)
}

// paramCovered reports whether a required parameter already has a source:
// a literal from the request, or a context variable whose name matches.
func paramCovered(name string, req *parse.ParsedRequest, snap *catalog.Snapshot) bool {
	if _, ok := req.LiteralParams[name]; ok {
		return true
	}
	lower := strings.ToLower(name)
	for _, v := range snap.Variables() {
		vn := strings.ToLower(v.Name)
		if vn == lower || strings.Contains(vn, lower) || strings.Contains(lower, vn) {
			return true
		}
	}
	return false
}
