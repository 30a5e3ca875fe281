package authstore

import (
	"strings"

	"tasker/internal/errors"
)

// Strategy selects when the store resolves the initial session relative to Initialize.
type Strategy string

const (
	// StrategyEager awaits the initial session fetch inside Initialize.
	// Reads after Initialize returns always see post-fetch state.
	StrategyEager Strategy = "eager"

	// StrategyEffect binds the store to the context passed to Initialize: the fetch runs
	// in the background and Teardown runs by itself once that context is done.
	StrategyEffect Strategy = "effect"

	// StrategyBackground starts the fetch in the background and returns immediately.
	// Reads right after Initialize may still observe the loading state.
	StrategyBackground Strategy = "background"
)

// ParseStrategy converts a configuration value to a Strategy.
func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(value))) {
	case StrategyEager, "":
		return StrategyEager, nil
	case StrategyEffect:
		return StrategyEffect, nil
	case StrategyBackground:
		return StrategyBackground, nil
	default:
		return "", errors.Errorf("unknown auth store strategy: %s", value)
	}
}

// AwaitsInitialFetch reports whether Initialize returns only after the initial fetch settled.
func (s Strategy) AwaitsInitialFetch() bool {
	return s == StrategyEager
}
