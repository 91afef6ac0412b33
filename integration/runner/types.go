package runner

import "time"

// Step actions understood by the runner.
const (
	ActionCreatePlayer = "create_player"
	ActionSaveScore    = "save_score"
	ActionGetScores    = "get_scores"
)

// TestSuite defines a complete integration test scenario.
// Can either be a regular test with Steps, or a suite that references other Cases.
type TestSuite struct {
	Name  string     `json:"name"`
	Steps []TestStep `json:"steps,omitempty"`
	Cases []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one call against the score API. Each suite runs as a fresh
// player; PlayerID overrides it to address someone else.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Action       string       `json:"action"`
	PlayerID     string       `json:"player_id,omitempty"`
	Nickname     string       `json:"nickname,omitempty"`
	Score        int          `json:"score,omitempty"`
	Items        []string     `json:"items,omitempty"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	Error            *bool    `json:"error,omitempty"`             // Whether the call fails
	ErrorContains    string   `json:"error_contains,omitempty"`    // Substring of the error
	MessageContains  string   `json:"message_contains,omitempty"`  // create_player reply
	ScoreCount       *int     `json:"score_count,omitempty"`       // get_scores length
	LatestScore      *int     `json:"latest_score,omitempty"`      // Score of the last snapshot
	LatestItems      []string `json:"latest_items,omitempty"`      // Items of the last snapshot, in order
	CompletedAtRegex string   `json:"completed_at_regex,omitempty"` // Applied to every snapshot
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	PlayerID string // Player created for this run
}
