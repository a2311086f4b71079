// Package settings holds the tunable knobs that shape relevance ranking and
// keyword extraction. Values are read through to the backing source on every
// call (no caching): an admin update takes effect for the very next ranking
// call, and concurrent updates are last-write-wins.
package settings

import (
	"context"
	"fmt"
	"log"
	"strconv"
)

// Variable names accepted by the admin configure operation.
const (
	VarFunctionSimilarityThreshold = "FunctionSimilarityThreshold"
	VarVariableSimilarityThreshold = "VariableSimilarityThreshold"
	VarFunctionMatchLimit          = "FunctionMatchLimit"
	VarVariableMatchLimit          = "VariableMatchLimit"
	VarExtractKeywordsTemperature  = "ExtractKeywordsTemperature"
)

// Defaults used when a variable has never been set.
const (
	DefaultFunctionSimilarityThreshold = 41
	DefaultVariableSimilarityThreshold = 35
	DefaultFunctionMatchLimit          = 5
	DefaultVariableMatchLimit          = 5
	DefaultExtractKeywordsTemperature  = 0.01
)

var knownNames = map[string]bool{
	VarFunctionSimilarityThreshold: true,
	VarVariableSimilarityThreshold: true,
	VarFunctionMatchLimit:          true,
	VarVariableMatchLimit:          true,
	VarExtractKeywordsTemperature:  true,
}

// Source provides raw variable values by name. The bool result reports
// whether the variable has ever been set.
type Source interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, value string) error
}

// Settings exposes typed accessors over a Source.
type Settings struct {
	source Source
}

// New creates Settings over the given source.
func New(source Source) *Settings {
	return &Settings{source: source}
}

// Set updates a variable. Unknown names are rejected.
func (s *Settings) Set(ctx context.Context, name, value string) error {
	if !knownNames[name] {
		return fmt.Errorf("settings: unknown variable name %q", name)
	}
	return s.source.Set(ctx, name, value)
}

func (s *Settings) intValue(ctx context.Context, name string, def int) int {
	raw, ok, err := s.source.Get(ctx, name)
	if err != nil {
		log.Printf("settings: reading %s: %v", name, err)
		return def
	}
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("settings: %s has non-integer value %q", name, raw)
		return def
	}
	return v
}

func (s *Settings) floatValue(ctx context.Context, name string, def float64) float64 {
	raw, ok, err := s.source.Get(ctx, name)
	if err != nil {
		log.Printf("settings: reading %s: %v", name, err)
		return def
	}
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("settings: %s has non-numeric value %q", name, raw)
		return def
	}
	return v
}

// FunctionSimilarityThreshold is the 0-100 score a function or event handler
// must exceed to count as a match.
func (s *Settings) FunctionSimilarityThreshold(ctx context.Context) int {
	return s.intValue(ctx, VarFunctionSimilarityThreshold, DefaultFunctionSimilarityThreshold)
}

// VariableSimilarityThreshold is the 0-100 score a server variable must
// exceed to count as a match.
func (s *Settings) VariableSimilarityThreshold(ctx context.Context) int {
	return s.intValue(ctx, VarVariableSimilarityThreshold, DefaultVariableSimilarityThreshold)
}

// FunctionMatchLimit caps how many function matches go into a prompt.
func (s *Settings) FunctionMatchLimit(ctx context.Context) int {
	return s.intValue(ctx, VarFunctionMatchLimit, DefaultFunctionMatchLimit)
}

// VariableMatchLimit caps how many variable matches go into a prompt.
func (s *Settings) VariableMatchLimit(ctx context.Context) int {
	return s.intValue(ctx, VarVariableMatchLimit, DefaultVariableMatchLimit)
}

// ExtractKeywordsTemperature is the sampling temperature for the keyword
// extraction call. Kept near zero so extraction stays deterministic.
func (s *Settings) ExtractKeywordsTemperature(ctx context.Context) float64 {
	return s.floatValue(ctx, VarExtractKeywordsTemperature, DefaultExtractKeywordsTemperature)
}

// StaticSource is an in-memory Source for tests.
type StaticSource map[string]string

func (m StaticSource) Get(ctx context.Context, name string) (string, bool, error) {
	v, ok := m[name]
	return v, ok, nil
}

func (m StaticSource) Set(ctx context.Context, name, value string) error {
	m[name] = value
	return nil
}
