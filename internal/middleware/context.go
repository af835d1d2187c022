package middleware

import "context"

type ctxKey int

const (
	agentIDKey ctxKey = iota
	agentNameKey
	requestIDKey
)

func InjectAgent(ctx context.Context, id, name string) context.Context {
	ctx = context.WithValue(ctx, agentIDKey, id)
	return context.WithValue(ctx, agentNameKey, name)
}

func AgentID(ctx context.Context) string {
	v := ctx.Value(agentIDKey)
	if v == nil {
		return ""
	}
	return v.(string)
}

func AgentName(ctx context.Context) string {
	v := ctx.Value(agentNameKey)
	if v == nil {
		return ""
	}
	return v.(string)
}

func RequestIDFromContext(ctx context.Context) string {
	v := ctx.Value(requestIDKey)
	if v == nil {
		return ""
	}
	return v.(string)
}
