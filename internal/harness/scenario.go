package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/merchkit/freegift/internal/decision"
)

// Scenario defines one declarative evaluation case: a configuration
// source, a cart snapshot, and the expected decision.
type Scenario struct {
	// Name uniquely identifies this scenario; it is also the golden file
	// name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Configuration is the raw metafield blob. Omitted means the host
	// supplied no metafield. Ignored when StaticConfig is set.
	Configuration string `yaml:"configuration,omitempty"`

	// StaticConfig selects the compiled-fallback resolver instead of
	// metafield parsing.
	StaticConfig *StaticConfig `yaml:"static_config,omitempty"`

	// Cart is the cart snapshot under evaluation.
	Cart CartFixture `yaml:"cart"`

	// Expect is the expected decision.
	Expect ExpectedDecision `yaml:"expect"`
}

// StaticConfig mirrors decision.Config for the fallback resolver.
type StaticConfig struct {
	OfferedProductID string `yaml:"offered_product_id"`
	FreeProductID    string `yaml:"free_product_id"`
}

// CartFixture is the YAML shape of a cart snapshot.
type CartFixture struct {
	Lines      []LineFixture     `yaml:"lines,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
}

// LineFixture is one cart line. Kind defaults to ProductVariant.
type LineFixture struct {
	MerchandiseID string `yaml:"merchandise_id"`
	Kind          string `yaml:"kind,omitempty"`
	Quantity      int    `yaml:"quantity"`
}

// ExpectedDecision is the expected engine output.
type ExpectedDecision struct {
	Strategy  string             `yaml:"strategy"`
	Discounts []ExpectedDiscount `yaml:"discounts,omitempty"`
}

// ExpectedDiscount is one expected discount line.
type ExpectedDiscount struct {
	Percentage      int    `yaml:"percentage"`
	TargetVariantID string `yaml:"target_variant_id"`
	Message         string `yaml:"message"`
}

// Input builds the host-shaped evaluation input from the fixture.
func (s *Scenario) Input() decision.Input {
	cart := decision.Cart{Attributes: s.Cart.Attributes}
	for _, l := range s.Cart.Lines {
		kind := decision.MerchandiseKind(l.Kind)
		if l.Kind == "" {
			kind = decision.KindProductVariant
		}
		cart.Lines = append(cart.Lines, decision.CartLine{
			MerchandiseID:   l.MerchandiseID,
			MerchandiseKind: kind,
			Quantity:        l.Quantity,
		})
	}

	in := decision.Input{Cart: cart}
	if s.StaticConfig == nil && s.Configuration != "" {
		in.DiscountNode = &decision.DiscountNode{
			Metafield: &decision.Metafield{Value: s.Configuration},
		}
	}
	return in
}

// Resolver returns the configuration resolver the scenario selects.
func (s *Scenario) Resolver() decision.Resolver {
	if s.StaticConfig != nil {
		return decision.StaticResolver{Config: decision.Config{
			OfferedProductID: s.StaticConfig.OfferedProductID,
			FreeProductID:    s.StaticConfig.FreeProductID,
		}}
	}
	return decision.MetafieldResolver{}
}

// LoadScenario parses a single scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if s.Expect.Strategy == "" {
		return nil, fmt.Errorf("scenario %s: expect.strategy is required", path)
	}
	return &s, nil
}

// LoadDir loads every .yaml scenario in a directory, sorted by file name
// for deterministic run order.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
