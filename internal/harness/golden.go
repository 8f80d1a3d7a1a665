package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/shelf/internal/canon"
)

// RenderTrace formats a run as line-oriented text. Arguments and results
// use canonical JSON so the output is byte-stable.
func RenderTrace(name string, r *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	for _, ev := range r.Trace {
		buf.WriteString(traceLine(ev))
		buf.WriteByte('\n')
	}
	buf.WriteString("events:\n")
	for _, ev := range r.Events {
		fmt.Fprintf(&buf, "  %d %s %s\n", ev.Seq, ev.Type, ev.OpID)
	}
	return buf.Bytes()
}

func traceLine(ev TraceEvent) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s[%d] %s", ev.Phase, ev.Index, ev.Op)
	if ev.As != "" {
		fmt.Fprintf(&buf, " as=%s", ev.As)
	}
	if len(ev.Args) > 0 {
		fmt.Fprintf(&buf, " args=%s", canonicalOrError(ev.Args))
	}
	fmt.Fprintf(&buf, " -> %s", ev.Outcome)
	if len(ev.Result) > 0 {
		fmt.Fprintf(&buf, " %s", canonicalOrError(ev.Result))
	}
	return buf.String()
}

func canonicalOrError(v map[string]any) string {
	b, err := canon.Marshal(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(b)
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, RenderTrace(name, result))
}
