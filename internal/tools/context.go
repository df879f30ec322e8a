package tools

import "context"

type uploadDirContextKey struct{}
type callerContextKey struct{}

// WithUploadDir scopes file-reading tools to the caller's upload directory.
func WithUploadDir(ctx context.Context, dir string) context.Context {
	if dir == "" {
		return ctx
	}
	return context.WithValue(ctx, uploadDirContextKey{}, dir)
}

func uploadDirFromContext(ctx context.Context) string {
	dir, _ := ctx.Value(uploadDirContextKey{}).(string)
	return dir
}

// WithCaller tags tool invocations with the calling user for rate limiting.
func WithCaller(ctx context.Context, userID int64) context.Context {
	if userID <= 0 {
		return ctx
	}
	return context.WithValue(ctx, callerContextKey{}, userID)
}

func callerFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(callerContextKey{}).(int64)
	return id, ok
}
