package logging

import "context"

// Context keys for logging values. Private types avoid key collisions with
// other packages' context values.
type contextKey int

const (
	componentKey contextKey = iota
	baseCommitKey
	agentKey
)

// WithComponent adds a component name to the context, identifying the
// subsystem generating a log line (e.g. "reconcile", "virtualattr").
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// WithBaseCommit adds the working-log base-commit SHA to the context.
func WithBaseCommit(ctx context.Context, sha string) context.Context {
	return context.WithValue(ctx, baseCommitKey, sha)
}

// WithAgent adds the agent tool name to the context.
func WithAgent(ctx context.Context, agent string) context.Context {
	return context.WithValue(ctx, agentKey, agent)
}

func componentFromContext(ctx context.Context) string { return stringFromContext(ctx, componentKey) }
func baseCommitFromContext(ctx context.Context) string { return stringFromContext(ctx, baseCommitKey) }
func agentFromContext(ctx context.Context) string      { return stringFromContext(ctx, agentKey) }

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
