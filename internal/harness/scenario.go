package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/shelf/internal/migration"
)

// DefaultAdmin is installed by the V1 migration when a scenario names none.
const DefaultAdmin = "admin"

// Scenario is one conformance scenario.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Admin is the principal installed at V1.
	Admin string `yaml:"admin,omitempty"`

	// MigrateTo is the schema version reached before setup runs. Nil means
	// the latest version; 0 leaves the shop uninitialized.
	MigrateTo *int `yaml:"migrate_to,omitempty"`

	// RejectPayouts lists recipients whose payouts fail.
	RejectPayouts []string `yaml:"reject_payouts,omitempty"`

	// Setup steps must all succeed.
	Setup []Step `yaml:"setup,omitempty"`

	Flow       []Step      `yaml:"flow"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step invokes one shop operation.
type Step struct {
	Op     string         `yaml:"op"`
	As     string         `yaml:"as,omitempty"`
	Args   map[string]any `yaml:"args,omitempty"`
	Expect *Expect        `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a flow step.
type Expect struct {
	// Error is the expected error kind, e.g. "OutOfStock".
	Error string `yaml:"error,omitempty"`

	// Result is a subset match on the step result.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion checks final state.
type Assertion struct {
	Type string `yaml:"type"`

	ID     uint64         `yaml:"id,omitempty"`
	IDs    []uint64       `yaml:"ids,omitempty"`
	Event  string         `yaml:"event,omitempty"`
	Count  *int           `yaml:"count,omitempty"`
	Value  *uint64        `yaml:"value,omitempty"`
	Absent bool           `yaml:"absent,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion types.
const (
	AssertProduct     = "product"
	AssertLedgerTotal = "ledger_total"
	AssertRevenueFor  = "revenue_for"
	AssertStock       = "stock"
	AssertListIDs     = "list_ids"
	AssertEventCount  = "event_count"
	AssertBalance     = "balance"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if s.MigrateTo != nil && (*s.MigrateTo < 0 || *s.MigrateTo > int(migration.Latest)) {
		return fmt.Errorf("migrate_to must be between 0 and %d, got %d", int(migration.Latest), *s.MigrateTo)
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.Expect != nil && step.Expect.Error != "" && step.Expect.Result != nil {
			return fmt.Errorf("flow[%d]: expect.error and expect.result are exclusive", i)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	if step.Op == "" {
		return fmt.Errorf("op is required")
	}
	if _, ok := operations[step.Op]; !ok {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertProduct:
		if a.ID == 0 {
			return fmt.Errorf("product requires id")
		}
		if !a.Absent && len(a.Expect) == 0 {
			return fmt.Errorf("product requires expect or absent")
		}
	case AssertLedgerTotal:
		if a.Count == nil && a.Value == nil {
			return fmt.Errorf("ledger_total requires count or value")
		}
	case AssertRevenueFor, AssertStock:
		if a.ID == 0 || a.Value == nil {
			return fmt.Errorf("%s requires id and value", a.Type)
		}
	case AssertListIDs:
		// an empty ids list asserts an empty catalog
	case AssertEventCount:
		if a.Event == "" || a.Count == nil {
			return fmt.Errorf("event_count requires event and count")
		}
	case AssertBalance:
		if a.Value == nil {
			return fmt.Errorf("balance requires value")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
