package compiler

import (
	"github.com/flowsmith/flowsmith/internal/catalog"
	"github.com/flowsmith/flowsmith/internal/params"
	"github.com/flowsmith/flowsmith/internal/parse"
	"github.com/flowsmith/flowsmith/internal/selector"
)

// State is one node of the compilation machine. The only state ever
// re-entered is StateValidate, via the bounded repair loop.
type State string

const (
	StateParse          State = "PARSE"
	StateSelect         State = "SELECT"
	StateClarify        State = "CLARIFY"
	StateRetrieveSchema State = "RETRIEVE_SCHEMA"
	StateGenerate       State = "GENERATE"
	StateValidate       State = "VALIDATE"
	StateRepair         State = "REPAIR"
	StateAssemble       State = "ASSEMBLE"
	StateFinalize       State = "FINALIZE"
	StateFailed         State = "FAILED"
)

// Terminal reports whether the machine stops in this state.
func (s State) Terminal() bool {
	return s == StateClarify || s == StateFinalize || s == StateFailed
}

// runState is the single mutable context threaded through the machine.
// It is exclusively owned by one run; no stage retains a reference after
// returning.
type runState struct {
	id          string
	status      State
	request     *parse.ParsedRequest
	selection   selector.Result
	action      *catalog.IntegrationAction
	paramSet    *params.ParameterSet
	repairCount int
	// repairTarget, when set, narrows the next validation pass to the
	// parameters the last repair cycle regenerated.
	repairTarget map[string]bool
}
