// Package project persists editing sessions and their export history in
// a SQLite database under the log directory. Timeline state is stored as
// an opaque JSON snapshot so schema migrations never need to understand
// clip internals.
package project
