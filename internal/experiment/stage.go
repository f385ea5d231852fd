package experiment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AreTor/labaug/internal/suggest"
)

// ErrUnknownStage is returned for step names outside the pipeline.
var ErrUnknownStage = errors.New("unknown stage")

// StageID identifies one pipeline stage. The zero value is the first stage.
type StageID int

// Pipeline stages in execution order.
const (
	StageSplitter StageID = iota
	StageExtractor
	StageAugmenter
	StageTrainer
)

var stageNames = [...]string{
	StageSplitter:  "splitter",
	StageExtractor: "extractor",
	StageAugmenter: "augmenter",
	StageTrainer:   "trainer",
}

func (s StageID) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// AllStages returns every stage in execution order.
func AllStages() []StageID {
	return []StageID{StageSplitter, StageExtractor, StageAugmenter, StageTrainer}
}

// StageNames returns the stage names in execution order.
func StageNames() []string {
	return stageNames[:]
}

// ParseStage maps a step name to its stage.
func ParseStage(name string) (StageID, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for id, s := range stageNames {
		if s == n {
			return StageID(id), nil
		}
	}
	return 0, fmt.Errorf("%w: %q%s", ErrUnknownStage, name, suggest.Hint(n, StageNames()))
}

// ParseSteps parses a step list. An empty list selects every stage. Steps
// run in the order given; repeating a step is an error.
func ParseSteps(names []string) ([]StageID, error) {
	if len(names) == 0 {
		return AllStages(), nil
	}
	ids := make([]StageID, 0, len(names))
	seen := make(map[StageID]bool, len(names))
	for _, n := range names {
		id, err := ParseStage(n)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: step %q listed twice", ErrInvalidConfig, n)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// State is the position of an experiment in its step sequence.
type State int

const (
	StateNotStarted State = iota
	StateSplitting
	StateExtracting
	StateAugmenting
	StateTraining
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateNotStarted: "not-started",
	StateSplitting:  "splitting",
	StateExtracting: "extracting",
	StateAugmenting: "augmenting",
	StateTraining:   "training",
	StateDone:       "done",
	StateFailed:     "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// runningState is the state an experiment is in while a stage executes.
func runningState(id StageID) State {
	return State(int(id) + int(StateSplitting))
}

// StageError reports the stage a run failed in.
type StageError struct {
	Stage StageID
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
