package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/shelf/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Golden string // directory of <name>.golden files
	Update bool   // regenerate golden files
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario.yaml|dir>...",
		Short: "Run conformance scenarios",
		Long: `Run YAML conformance scenarios against a fresh in-memory shop.

Each scenario runs with a deterministic clock and operation ids. With
--golden, the rendered trace is compared against <dir>/<name>.golden;
--update rewrites those files instead.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, malformed scenarios)

Examples:
  shelf test ./scenarios
  shelf test ./scenarios/refund.yaml --golden ./golden
  shelf test ./scenarios --golden ./golden --update --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Golden, "golden", "", "directory of golden trace files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	if opts.Update && opts.Golden == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	files, err := findScenarioFiles(paths)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, file := range files {
		sr, err := runScenarioFile(opts, file)
		if err != nil {
			return err
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		if err := opts.formatter(cmd).Success(result); err != nil {
			return err
		}
	} else {
		printTestResult(cmd, result)
	}

	if result.Failed > 0 {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total), Reported: true}
	}
	return nil
}

func runScenarioFile(opts *TestOptions, file string) (ScenarioResult, error) {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{}, WrapExitError(ExitCommandError, file, err)
	}
	res, err := harness.Run(scenario)
	if err != nil {
		return ScenarioResult{}, WrapExitError(ExitCommandError, file, err)
	}

	sr := ScenarioResult{Name: scenario.Name, File: file, Pass: res.Pass, Errors: res.Errors}
	if opts.Golden == "" {
		return sr, nil
	}

	trace := harness.RenderTrace(scenario.Name, res)
	golden := filepath.Join(opts.Golden, scenario.Name+".golden")
	if opts.Update {
		if err := os.MkdirAll(opts.Golden, 0o755); err != nil {
			return sr, WrapExitError(ExitCommandError, "failed to create golden dir", err)
		}
		if err := os.WriteFile(golden, trace, 0o644); err != nil {
			return sr, WrapExitError(ExitCommandError, "failed to write golden file", err)
		}
		return sr, nil
	}

	want, err := os.ReadFile(golden)
	switch {
	case os.IsNotExist(err):
		sr.Pass = false
		sr.Errors = append(sr.Errors, "golden file missing: "+golden)
	case err != nil:
		return sr, WrapExitError(ExitCommandError, "failed to read golden file", err)
	case !bytes.Equal(want, trace):
		sr.Pass = false
		sr.Errors = append(sr.Errors, "trace differs from "+golden)
	}
	return sr, nil
}

// findScenarioFiles expands directories to their *.yaml files, sorted.
func findScenarioFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(p, pattern))
			if err != nil {
				return nil, err
			}
			files = append(files, matches...)
		}
	}
	sort.Strings(files)
	return files, nil
}

func printTestResult(cmd *cobra.Command, result TestResult) {
	w := cmd.OutOrStdout()
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}
	for _, sr := range result.Scenarios {
		status := "PASS"
		if !sr.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s %s (%s)\n", status, sr.Name, sr.File)
		for _, e := range sr.Errors {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
