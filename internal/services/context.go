package services

import "context"

type contextKey string

const exportIDKey contextKey = "export_id"

// WithExportID annotates context with the export run identifier.
func WithExportID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, exportIDKey, id)
}

// ExportIDFromContext extracts the export run identifier if present.
func ExportIDFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(exportIDKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
