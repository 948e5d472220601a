package decision

import (
	"encoding/json"
	"errors"
)

// ErrNoConfiguration reports that no usable offer configuration exists for
// this evaluation. It covers an absent metafield, malformed JSON, and a blob
// missing either required key. The outcome is terminal for the current
// evaluation only; the merchant may fix the configuration at any time.
var ErrNoConfiguration = errors.New("no offer configuration")

// Config identifies the two product variants the promotion is built from.
//
// OfferedProductID != FreeProductID is a precondition enforced at
// configuration authoring time. It is deliberately not re-validated here:
// a violating configuration simply matches the same cart line for both
// roles, which is harmless.
type Config struct {
	OfferedProductID string `json:"offeredProductId"`
	FreeProductID    string `json:"freeProductId"`
}

// Resolver obtains the offer configuration for one evaluation.
//
// Two implementations exist so the engine is agnostic to where
// configuration comes from: MetafieldResolver parses the merchant-supplied
// blob, StaticResolver carries a compiled-in fallback for deployments with
// no configuration mechanism. Which one is wired in is a deployment choice.
type Resolver interface {
	// Resolve turns the raw metafield value into a Config.
	// It returns ErrNoConfiguration when no usable configuration exists.
	Resolve(raw string) (Config, error)
}

// MetafieldResolver parses the JSON configuration blob attached to the
// discount definition.
type MetafieldResolver struct{}

// Resolve parses raw as a JSON Config. An empty blob, a parse failure, or a
// missing required key all resolve to ErrNoConfiguration. No retries, no
// external calls.
func (MetafieldResolver) Resolve(raw string) (Config, error) {
	if raw == "" {
		return Config{}, ErrNoConfiguration
	}

	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return Config{}, ErrNoConfiguration
	}
	if cfg.OfferedProductID == "" || cfg.FreeProductID == "" {
		return Config{}, ErrNoConfiguration
	}
	return cfg, nil
}

// StaticResolver returns a fixed configuration baked in at build or deploy
// time, ignoring the metafield entirely.
type StaticResolver struct {
	Config Config
}

// Resolve returns the compiled-in configuration. It never fails.
func (r StaticResolver) Resolve(string) (Config, error) {
	return r.Config, nil
}
