package reqctx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const requestKey key = 0

type RequestContext struct {
	RequestID string
	Query     string
	StartTime time.Time
}

// WithRequestContext tags ctx with a fresh request id for query
func WithRequestContext(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, requestKey, &RequestContext{
		RequestID: generateID(),
		Query:     query,
		StartTime: time.Now(),
	})
}

func GetRequestContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{
		RequestID: "unknown",
		StartTime: time.Now(),
	}
}

// Logger returns the global logger annotated with the request id and query
func Logger(ctx context.Context) zerolog.Logger {
	rc := GetRequestContext(ctx)
	return log.With().
		Str("request_id", rc.RequestID).
		Str("query", rc.Query).
		Logger()
}

// Elapsed returns the time since the request started
func Elapsed(ctx context.Context) time.Duration {
	return time.Since(GetRequestContext(ctx).StartTime)
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
