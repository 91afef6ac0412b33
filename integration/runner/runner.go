package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/jwebster45206/relic-hunt/pkg/profile"
	"github.com/jwebster45206/relic-hunt/pkg/scoreapi"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running score API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 10 * time.Second},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite as a freshly generated player
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results:  make([]TestResult, 0, len(suite.Steps)),
		PlayerID: profile.NewID(),
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	client := scoreapi.NewClient(r.BaseURL, r.Client)

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.executeStep(ctx, client, result.PlayerID, step)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// executeStep performs the call and checks expectations
func (r *Runner) executeStep(ctx context.Context, client *scoreapi.Client, playerID string, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}
	if step.PlayerID != "" {
		playerID = step.PlayerID
	}

	var (
		message string
		scores  []scoreapi.ScoreEntry
		callErr error
	)
	switch step.Action {
	case ActionCreatePlayer:
		message, callErr = client.CreatePlayer(ctx, playerID, step.Nickname)
	case ActionSaveScore:
		callErr = client.SaveScore(ctx, scoreapi.ScoreSubmission{PlayerID: playerID, Score: step.Score, Items: step.Items})
	case ActionGetScores:
		scores, callErr = client.PlayerScores(ctx, playerID)
	default:
		result.Error = fmt.Errorf("unknown action %q", step.Action)
		result.Duration = time.Since(start)
		return result
	}

	if err := checkExpectations(step.Expectations, callErr, message, scores); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

func checkExpectations(exp Expectations, callErr error, message string, scores []scoreapi.ScoreEntry) error {
	wantErr := exp.Error != nil && *exp.Error
	if wantErr || exp.ErrorContains != "" {
		if callErr == nil {
			return fmt.Errorf("expected an error, got none")
		}
		if exp.ErrorContains != "" && !strings.Contains(callErr.Error(), exp.ErrorContains) {
			return fmt.Errorf("expected error to contain '%s', got: %v", exp.ErrorContains, callErr)
		}
		return nil
	}
	if callErr != nil {
		return fmt.Errorf("unexpected error: %w", callErr)
	}

	if exp.MessageContains != "" && !strings.Contains(message, exp.MessageContains) {
		return fmt.Errorf("expected message to contain '%s', got '%s'", exp.MessageContains, message)
	}

	if exp.ScoreCount != nil && len(scores) != *exp.ScoreCount {
		return fmt.Errorf("expected %d scores, got %d", *exp.ScoreCount, len(scores))
	}

	if exp.LatestScore != nil || len(exp.LatestItems) > 0 {
		if len(scores) == 0 {
			return fmt.Errorf("expected a latest score, got no scores")
		}
		latest := scores[len(scores)-1]
		if exp.LatestScore != nil && latest.Score != *exp.LatestScore {
			return fmt.Errorf("expected latest score %d, got %d", *exp.LatestScore, latest.Score)
		}
		if len(exp.LatestItems) > 0 && !slices.Equal(latest.ItemList(), exp.LatestItems) {
			return fmt.Errorf("expected latest items %v, got %v", exp.LatestItems, latest.ItemList())
		}
	}

	if exp.CompletedAtRegex != "" {
		re, err := regexp.Compile(exp.CompletedAtRegex)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		for _, s := range scores {
			if !re.MatchString(s.CompletedAt) {
				return fmt.Errorf("completed_at %q didn't match regex pattern: %s", s.CompletedAt, exp.CompletedAtRegex)
			}
		}
	}

	return nil
}
