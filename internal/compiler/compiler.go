// Package compiler turns a natural-language integration request into a
// validated workflow definition. The pipeline is an explicit finite state
// machine over a run-owned mutable state; every conditional branch and
// loop bound lives here, not in the stages.
package compiler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowsmith/flowsmith/internal/catalog"
	"github.com/flowsmith/flowsmith/internal/config"
	"github.com/flowsmith/flowsmith/internal/observe"
	"github.com/flowsmith/flowsmith/internal/params"
	"github.com/flowsmith/flowsmith/internal/parse"
	"github.com/flowsmith/flowsmith/internal/provider"
	"github.com/flowsmith/flowsmith/internal/selector"
	"github.com/flowsmith/flowsmith/internal/workflow"
)

type Compiler struct {
	parser     *parse.Parser
	sel        *selector.Selector
	gen        *params.Generator
	maxRepairs int
	sink       observe.Sink
	cache      *Cache
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithSink routes transition events to sink instead of discarding them.
func WithSink(sink observe.Sink) Option {
	return func(c *Compiler) { c.sink = sink }
}

// WithCache enables the compiled-workflow cache.
func WithCache(cache *Cache) Option {
	return func(c *Compiler) { c.cache = cache }
}

// New wires the stages around one model client. The compiler holds no
// catalog: each Compile call takes the snapshot it runs against, so
// concurrent runs can read different reloads safely.
func New(llm provider.Client, cfg *config.Config, opts ...Option) *Compiler {
	c := &Compiler{
		parser:     parse.NewParser(llm),
		sel:        selector.New(cfg.Selector),
		gen:        params.NewGenerator(llm, cfg.Generator.AllowModelInference),
		maxRepairs: cfg.Repair.MaxAttempts,
		sink:       observe.Nop{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Compile runs one request through the machine. It returns exactly one
// of: a Result carrying a WorkflowDefinition, a Result carrying a
// Clarification, or a typed error (ParseFailure, UnknownActionError,
// RepairExhausted, AssemblyInvariantViolation).
func (c *Compiler) Compile(ctx context.Context, rawText string, snap *catalog.Snapshot) (*Result, error) {
	rs := &runState{
		id:     "run_" + uuid.New().String(),
		status: StateParse,
	}

	if c.cache != nil {
		if def, report, ok := c.cache.Get(ctx, rawText, snap); ok {
			c.emit(rs, "cache hit")
			return &Result{RunID: rs.id, Workflow: def, Report: report, Confidence: 1.0, CacheHit: true}, nil
		}
	}

	for !rs.status.Terminal() {
		// Cancellation is observed at every transition boundary so a
		// cancelled run never leaves a half-applied repair cycle.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		state := rs.status
		result, err := c.step(ctx, rs, rawText, snap)
		observe.StageDuration.WithLabelValues(string(state)).
			Observe(float64(time.Since(start).Milliseconds()))

		if err != nil {
			rs.status = StateFailed
			c.emit(rs, err.Error())
			observe.CompileTotal.WithLabelValues("failed").Inc()
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}

	// All terminal states return from step; reaching here is a bug.
	return nil, &AssemblyInvariantViolation{Err: fmt.Errorf("machine stopped in %s without a result", rs.status)}
}

// step executes the current state and advances rs.status. A non-nil
// result or error is terminal.
func (c *Compiler) step(ctx context.Context, rs *runState, rawText string, snap *catalog.Snapshot) (*Result, error) {
	switch rs.status {

	case StateParse:
		req, err := c.parser.Parse(ctx, rawText, snap)
		if err != nil {
			return nil, &ParseFailure{Err: err}
		}
		rs.request = req
		rs.status = StateSelect
		c.emit(rs, "platform="+orNone(req.PlatformHint)+" operation="+orNone(req.OperationHint))
		return nil, nil

	case StateSelect:
		rs.selection = c.sel.Select(rs.request, snap)
		if rs.selection.NeedsClarification {
			rs.status = StateClarify
			c.emit(rs, rs.selection.Reason)
			observe.SelectionAmbiguous.Inc()
			observe.CompileTotal.WithLabelValues("clarify").Inc()
			return &Result{
				RunID: rs.id,
				Clarification: &Clarification{
					Reason:     rs.selection.Reason,
					Candidates: summarize(rs.selection.Candidates),
				},
			}, nil
		}
		rs.status = StateRetrieveSchema
		c.emit(rs, "selected "+rs.selection.Selected.ID)
		return nil, nil

	case StateRetrieveSchema:
		action, ok := snap.Action(rs.selection.Selected.ID)
		if !ok {
			return nil, &UnknownActionError{ActionID: rs.selection.Selected.ID}
		}
		rs.action = action
		rs.status = StateGenerate
		c.emit(rs, fmt.Sprintf("%d parameters", len(action.Params)))
		return nil, nil

	case StateGenerate:
		rs.paramSet = params.NewParameterSet()
		c.gen.Generate(ctx, rs.action, rs.request, snap, rs.paramSet, nil)
		rs.status = StateValidate
		c.emit(rs, fmt.Sprintf("%d resolved, %d unresolved", len(rs.paramSet.Values), len(rs.paramSet.Unresolved)))
		return nil, nil

	case StateValidate:
		if rs.repairTarget != nil {
			params.ValidateSubset(rs.action, rs.paramSet, snap, rs.repairTarget)
			rs.repairTarget = nil
		} else {
			params.Validate(rs.action, rs.paramSet, snap)
		}
		if len(rs.paramSet.Errors) == 0 && len(rs.paramSet.Unresolved) == 0 {
			rs.status = StateAssemble
			c.emit(rs, "valid")
			return nil, nil
		}
		if rs.repairCount >= c.maxRepairs {
			failing := make(map[string]string, len(rs.paramSet.Errors))
			for name, reason := range rs.paramSet.Errors {
				failing[name] = reason
			}
			for name := range rs.paramSet.Unresolved {
				if _, ok := failing[name]; !ok {
					failing[name] = "unresolved"
				}
			}
			return nil, &RepairExhausted{Attempts: rs.repairCount, Failing: failing}
		}
		rs.status = StateRepair
		c.emit(rs, fmt.Sprintf("%d failing", len(rs.paramSet.FailingNames())))
		return nil, nil

	case StateRepair:
		// Narrow the generator to exactly the failing subset; passing
		// parameters must come through the cycle untouched.
		rs.repairCount++
		observe.RepairCycles.Inc()
		target := make(map[string]bool)
		for _, name := range rs.paramSet.FailingNames() {
			target[name] = true
		}
		c.gen.Generate(ctx, rs.action, rs.request, snap, rs.paramSet, target)
		rs.repairTarget = target
		rs.status = StateValidate
		c.emit(rs, fmt.Sprintf("repair %d/%d", rs.repairCount, c.maxRepairs))
		return nil, nil

	case StateAssemble:
		confidence := params.Confidence(rs.action, rs.paramSet)
		def, report, err := workflow.Assemble(rs.action, rs.paramSet, snap, confidence)
		if err != nil {
			return nil, &AssemblyInvariantViolation{Err: err}
		}
		rs.status = StateFinalize
		c.emit(rs, fmt.Sprintf("%d transform steps", len(def.TransformSteps)))
		observe.CompileTotal.WithLabelValues("finalize").Inc()

		if c.cache != nil {
			c.cache.Put(ctx, rawText, snap, def, report)
		}
		return &Result{
			RunID:      rs.id,
			Workflow:   def,
			Report:     report,
			Confidence: confidence,
		}, nil

	default:
		return nil, &AssemblyInvariantViolation{Err: fmt.Errorf("step called in state %s", rs.status)}
	}
}

func (c *Compiler) emit(rs *runState, detail string) {
	c.sink.Emit(observe.Event{
		RunID:  rs.id,
		State:  string(rs.status),
		Detail: detail,
	})
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
