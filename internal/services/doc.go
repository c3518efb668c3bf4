// Package services defines the shared error taxonomy and context annotations
// used across the timeline engine's components. Sentinel markers let callers
// classify failures (validation, external tool, unavailable backend) without
// string matching.
package services
