// Package logging wires log/slog with the console and JSON handlers used by
// the engine, plus the attribute helpers shared across components.
package logging
