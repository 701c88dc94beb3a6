package core

import "context"

type contextKey string

const ctxKeyFileName contextKey = "upload_file_name"

// ContextWithFileName records the uploaded file's name for conversion logs.
func ContextWithFileName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxKeyFileName, name)
}

// FileNameFromContext extracts the uploaded file's name from context.
func FileNameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyFileName).(string); ok {
		return v
	}
	return ""
}
