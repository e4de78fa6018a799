package httprpc

import (
	"context"
	"net/http"
)

type contextKey[T any] struct{}

// SetValue stores a typed value in the request context. For use in middleware.
func SetValue[T any](r *http.Request, val T) *http.Request {
	ctx := context.WithValue(r.Context(), contextKey[T]{}, val)
	return r.WithContext(ctx)
}

// GetValue retrieves a typed value from the request context. For use in handlers.
func GetValue[T any](ctx context.Context) (T, bool) {
	val, ok := ctx.Value(contextKey[T]{}).(T)
	return val, ok
}

func withParams(ctx context.Context, params Params) context.Context {
	return context.WithValue(ctx, contextKey[Params]{}, params)
}

// PathParams returns the path parameters captured for the operation being
// dispatched.
func PathParams(ctx context.Context) Params {
	params, _ := GetValue[Params](ctx)
	return params
}

// callInfo is filled in by the dispatcher for middleware wrapping a Server:
// whether the request reached it, the resolved operation name and, on
// failure, the *ServerError.
type callInfo struct {
	dispatched bool
	operation  string
	err        error
}

// withCallInfo returns r carrying a callInfo, reusing one installed by an
// outer middleware.
func withCallInfo(r *http.Request) (*http.Request, *callInfo) {
	if ci := callInfoFromContext(r.Context()); ci != nil {
		return r, ci
	}
	ci := &callInfo{}
	return SetValue(r, ci), ci
}

func callInfoFromContext(ctx context.Context) *callInfo {
	ci, _ := GetValue[*callInfo](ctx)
	return ci
}

// operationLabel names the operation for logs and metrics.
func (ci *callInfo) operationLabel() string {
	if ci == nil || ci.operation == "" {
		return unroutedOperation
	}
	return ci.operation
}
