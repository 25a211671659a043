// Package config loads overlay409 settings.
//
// Settings come from an embedded CUE schema that carries every default,
// unified with an optional user file. The schema is closed, so unknown
// fields in the user file are rejected.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/overlay409/internal/overlay"
)

// DefaultFile is looked up in the working directory when no --config flag
// is given.
const DefaultFile = "overlay409.cue"

//go:embed schema.cue
var schemaSource string

// Config holds explicit settings for a run.
type Config struct {
	Dir      string   `json:"dir"`
	Exclude  []string `json:"exclude"`
	Conflict Conflict `json:"conflict"`
}

// Conflict configures the injected response.
type Conflict struct {
	Marker      string `json:"marker"`
	Status      string `json:"status"`
	Description string `json:"description"`
	MediaType   string `json:"mediaType"`
	SchemaRef   string `json:"schemaRef"`
}

// Error is a configuration error with the CUE position if known.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Parse(nil, "")
	if err != nil {
		panic(fmt.Sprintf("embedded config schema is invalid: %v", err))
	}
	return cfg
}

// Load reads a CUE config file. An empty path returns Default, unless
// DefaultFile exists in the working directory.
func Load(path string) (*Config, error) {
	if path == "" {
		if _, err := os.Stat(DefaultFile); err != nil {
			return Default(), nil
		}
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data, path)
}

// Parse unifies data with the schema and decodes the result. Nil data
// yields the defaults.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if len(data) > 0 {
		user := ctx.CompileBytes(data, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		v = v.Unify(user)
	}

	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	return &cfg, nil
}

// Rule converts the conflict settings to an overlay rule.
func (c *Config) Rule() overlay.ConflictRule {
	return overlay.ConflictRule{
		Marker: c.Conflict.Marker,
		Status: c.Conflict.Status,
		Response: overlay.Response{
			Description: c.Conflict.Description,
			Content: []overlay.MediaType{
				{Name: c.Conflict.MediaType, SchemaRef: c.Conflict.SchemaRef},
			},
		},
	}
}

// ExcludeSet returns the exclusion list as a set of base names.
func (c *Config) ExcludeSet() map[string]bool {
	set := make(map[string]bool, len(c.Exclude))
	for _, name := range c.Exclude {
		set[name] = true
	}
	return set
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}

	first := errs[0]
	cfgErr := &Error{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		cfgErr.Pos = positions[0]
	}
	return cfgErr
}
