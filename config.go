package tablemix

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/tablemix/internal/model"
	"github.com/arloliu/tablemix/solver"
)

// SamenessOverride replaces the default sameness score for one pair of values.
//
// In YAML an override is a five element sequence:
//
//	samenessOverrides:
//	  - [Office, NY, Office, NY, 3]
//	  - [Role, Partner, Office, LA, -1.5]
//
// The override is symmetric: (Office NY, Role P) and (Role P, Office NY) are the
// same pair. When the same pair is listed twice the later entry wins.
type SamenessOverride struct {
	TypeA  string
	ValueA string
	TypeB  string
	ValueB string
	Score  float64
}

// UnmarshalYAML decodes the five element sequence form.
func (o *SamenessOverride) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode || len(node.Content) != 5 {
		return fmt.Errorf("%w: line %d: want [typeA, valueA, typeB, valueB, score]", ErrInvalidOverride, node.Line)
	}
	for _, n := range node.Content {
		if n.Kind != yaml.ScalarNode {
			return fmt.Errorf("%w: line %d: elements must be scalars", ErrInvalidOverride, n.Line)
		}
	}

	score, err := strconv.ParseFloat(node.Content[4].Value, 64)
	if err != nil {
		return fmt.Errorf("%w: line %d: score %q is not a number", ErrInvalidOverride, node.Content[4].Line, node.Content[4].Value)
	}

	*o = SamenessOverride{
		TypeA:  node.Content[0].Value,
		ValueA: node.Content[1].Value,
		TypeB:  node.Content[2].Value,
		ValueB: node.Content[3].Value,
		Score:  score,
	}

	return nil
}

// MarshalYAML encodes the override as a five element sequence.
func (o SamenessOverride) MarshalYAML() (any, error) {
	return []any{o.TypeA, o.ValueA, o.TypeB, o.ValueB, o.Score}, nil
}

// Config is the configuration for the Optimizer.
//
// Duration fields accept Go duration strings like "30s" or "5m".
type Config struct {
	// MaxContainerSize is the capacity of every container. The number of containers is
	// ceil(items / MaxContainerSize).
	MaxContainerSize int `yaml:"maxContainerSize"`

	// Attributes lists the attribute types to diversify, in declaration order.
	// Declaration order breaks ties when choosing the primary attribute.
	Attributes []string `yaml:"attributes"`

	// IDField is the id column of tabular inputs.
	IDField string `yaml:"idField"`

	// NameField is the display name column of tabular inputs.
	NameField string `yaml:"nameField"`

	// DefaultQuadraticWeight is the weight of Σ count² for types not in QuadraticWeights.
	DefaultQuadraticWeight float64 `yaml:"defaultQuadraticWeight"`

	// QuadraticWeights overrides the quadratic weight per attribute type.
	QuadraticWeights map[string]float64 `yaml:"quadraticWeights"`

	// DefaultSamenessScore is added once per attribute type for every pair of members
	// sharing a value of that type. Zero (with no overrides) makes the objective purely
	// quadratic.
	DefaultSamenessScore float64 `yaml:"defaultSamenessScore"`

	// SamenessOverrides lists per-pair replacement scores.
	SamenessOverrides []SamenessOverride `yaml:"samenessOverrides"`

	// UpperBoundSlack is added to the per-container average count of a value before
	// rounding up to its upper bound.
	UpperBoundSlack float64 `yaml:"upperBoundSlack"`

	// MaxIterations caps refinement iterations.
	MaxIterations int `yaml:"maxIterations"`

	// MaxRunTime is the wall-clock budget for the whole run. Refinement stops with
	// TimedOut at the first iteration boundary after it is used up. Zero disables
	// the budget.
	MaxRunTime time.Duration `yaml:"maxRunTime"`

	// StagnationThreshold is the number of consecutive non-improving iterations
	// after which the run ends early, once more than MaxRunTime has elapsed.
	StagnationThreshold int `yaml:"stagnationThreshold"`

	// Solver selects the batch solver backend: "mincostflow" or "simplex".
	Solver string `yaml:"solver"`

	// Seed makes eviction reproducible. Empty means a random seed per run.
	Seed string `yaml:"seed"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Attributes has no default and must be set.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		MaxContainerSize:       8,
		IDField:                "ID",
		NameField:              "Name",
		DefaultQuadraticWeight: 1,
		DefaultSamenessScore:   0,
		UpperBoundSlack:        0.1,
		MaxIterations:          500,
		MaxRunTime:             5 * time.Minute,
		StagnationThreshold:    25,
		Solver:                 solver.NameMinCostFlow,
	}
}

// SetDefaults fills in missing configuration values with defaults.
//
// Fields whose zero value is meaningful (weights, sameness scores, slack) are left
// alone. A zero MaxRunTime means no time budget and is kept; ParseConfig and
// DefaultConfig start from the five minute default. StagnationThreshold treats
// zero as unset.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.MaxContainerSize == 0 {
		cfg.MaxContainerSize = defaults.MaxContainerSize
	}
	if cfg.IDField == "" {
		cfg.IDField = defaults.IDField
	}
	if cfg.NameField == "" {
		cfg.NameField = defaults.NameField
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = defaults.MaxIterations
	}
	if cfg.StagnationThreshold == 0 {
		cfg.StagnationThreshold = defaults.StagnationThreshold
	}
	if cfg.Solver == "" {
		cfg.Solver = defaults.Solver
	}
}

// Validate checks configuration constraints.
//
// Hard Validation Rules:
//   - MaxContainerSize >= 1
//   - At least one attribute type, no empty or duplicate names
//   - Quadratic weights finite and >= 0, keyed by declared types
//   - Override types declared, scores finite
//   - Sameness score finite, UpperBoundSlack finite and >= 0
//   - MaxIterations >= 1, MaxRunTime >= 0, StagnationThreshold >= 0
//   - Solver is a known backend
//
// Returns:
//   - error: Wrapped ErrInvalidConfig (and ErrUnknownAttribute where applicable), nil if valid
func (cfg *Config) Validate() error {
	// Rule 1: capacity
	if cfg.MaxContainerSize < 1 {
		return fmt.Errorf("%w: maxContainerSize must be >= 1, got %d", ErrInvalidConfig, cfg.MaxContainerSize)
	}

	// Rule 2: attribute declarations
	if len(cfg.Attributes) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrNoAttributes)
	}
	declared := make(map[string]bool, len(cfg.Attributes))
	for _, a := range cfg.Attributes {
		if a == "" {
			return fmt.Errorf("%w: empty attribute name", ErrInvalidConfig)
		}
		if declared[a] {
			return fmt.Errorf("%w: attribute %q declared twice", ErrInvalidConfig, a)
		}
		declared[a] = true
	}

	// Rule 3: weights
	if !finite(cfg.DefaultQuadraticWeight) || cfg.DefaultQuadraticWeight < 0 {
		return fmt.Errorf("%w: defaultQuadraticWeight must be >= 0, got %v", ErrInvalidConfig, cfg.DefaultQuadraticWeight)
	}
	for name, w := range cfg.QuadraticWeights {
		if !declared[name] {
			return fmt.Errorf("%w: %w: quadraticWeights references %q", ErrInvalidConfig, ErrUnknownAttribute, name)
		}
		if !finite(w) || w < 0 {
			return fmt.Errorf("%w: quadratic weight for %q must be >= 0, got %v", ErrInvalidConfig, name, w)
		}
	}

	// Rule 4: sameness scores
	if !finite(cfg.DefaultSamenessScore) {
		return fmt.Errorf("%w: defaultSamenessScore must be finite", ErrInvalidConfig)
	}
	for i, o := range cfg.SamenessOverrides {
		for _, typ := range []string{o.TypeA, o.TypeB} {
			if !declared[typ] {
				return fmt.Errorf("%w: %w: samenessOverrides[%d] references %q", ErrInvalidConfig, ErrUnknownAttribute, i, typ)
			}
		}
		if !finite(o.Score) {
			return fmt.Errorf("%w: samenessOverrides[%d] score must be finite", ErrInvalidConfig, i)
		}
	}

	// Rule 5: upper bound slack
	if !finite(cfg.UpperBoundSlack) || cfg.UpperBoundSlack < 0 {
		return fmt.Errorf("%w: upperBoundSlack must be >= 0, got %v", ErrInvalidConfig, cfg.UpperBoundSlack)
	}

	// Rule 6: stop conditions
	if cfg.MaxIterations < 1 {
		return fmt.Errorf("%w: maxIterations must be >= 1, got %d", ErrInvalidConfig, cfg.MaxIterations)
	}
	if cfg.MaxRunTime < 0 {
		return fmt.Errorf("%w: maxRunTime must be >= 0, got %v", ErrInvalidConfig, cfg.MaxRunTime)
	}
	if cfg.StagnationThreshold < 0 {
		return fmt.Errorf("%w: stagnationThreshold must be >= 0, got %d", ErrInvalidConfig, cfg.StagnationThreshold)
	}

	// Rule 7: solver backend
	if _, err := solver.New(cfg.Solver); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// ValidateWithWarnings logs warnings for legal but suspicious values.
//
// This is called after Validate() in NewOptimizer() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.DefaultQuadraticWeight == 0 && len(cfg.QuadraticWeights) == 0 &&
		cfg.DefaultSamenessScore == 0 && len(cfg.SamenessOverrides) == 0 {
		logger.Warn("all weights and sameness scores are zero, every arrangement scores 0")
	}

	for _, a := range cfg.Attributes {
		if a == cfg.IDField {
			logger.Warn("id field declared as an attribute, every value is unique", "attribute", a)
		}
	}

	if cfg.UpperBoundSlack >= 1 {
		logger.Warn("upperBoundSlack is large, upper bounds will rarely bind",
			"upperBoundSlack", cfg.UpperBoundSlack,
			"recommended", "0.1",
		)
	}

	if cfg.StagnationThreshold >= cfg.MaxIterations {
		logger.Warn("stagnationThreshold is not below maxIterations, the run can only end by iteration budget",
			"stagnationThreshold", cfg.StagnationThreshold,
			"maxIterations", cfg.MaxIterations,
		)
	}
}

// modelParams converts the scoring related fields into model parameters.
func (cfg *Config) modelParams() model.Params {
	overrides := make([]model.Override, len(cfg.SamenessOverrides))
	for i, o := range cfg.SamenessOverrides {
		overrides[i] = model.Override{TypeA: o.TypeA, ValueA: o.ValueA, TypeB: o.TypeB, ValueB: o.ValueB, Score: o.Score}
	}

	return model.Params{
		MaxContainerSize: cfg.MaxContainerSize,
		DefaultWeight:    cfg.DefaultQuadraticWeight,
		Weights:          cfg.QuadraticWeights,
		DefaultSameness:  cfg.DefaultSamenessScore,
		Overrides:        overrides,
		Slack:            cfg.UpperBoundSlack,
	}
}

// ParseConfig decodes a YAML document on top of DefaultConfig and applies SetDefaults.
//
// Parameters:
//   - data: YAML document
//
// Returns:
//   - *Config: Decoded configuration (not yet validated)
//   - error: Decode error, ErrInvalidOverride for malformed overrides
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	SetDefaults(&cfg)

	return &cfg, nil
}

// LoadConfig reads and decodes a YAML configuration file.
//
// Example:
//
//	cfg, err := tablemix.LoadConfig("config.yml")
//	if err != nil {
//	    return err
//	}
//	opt, err := tablemix.NewOptimizer(cfg, src)
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}

	return ParseConfig(data)
}

// TestConfig returns a configuration for fast, reproducible tests.
//
// Returns:
//   - Config: Small iteration budget, no run time budget, fixed seed
//
// Example:
//
//	cfg := tablemix.TestConfig()
//	cfg.Attributes = []string{"Gender"}
//	cfg.MaxContainerSize = 2
func TestConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxIterations = 50
	cfg.MaxRunTime = 0
	cfg.StagnationThreshold = 10
	cfg.Seed = "test"

	return cfg
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
