package httprpc

import (
	"context"
	"fmt"
	"time"
)

// dispatchFunc decodes, invokes, and encodes one operation.
type dispatchFunc func(ctx context.Context, params Params, req *Request) (*Response, error)

// serverRoute is the dispatch entry for a registered OperationID.
type serverRoute struct {
	name     string
	timeout  time.Duration
	dispatch dispatchFunc
}

// Handle registers h as the implementation of op on s. It fails with a
// *RouteConflictError when the route collides with one already registered.
func Handle[Req, Resp any](s *Server, op *Operation[Req, Resp], h Handler[Req, Resp]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.router.Register(op.method, op.template)
	if err != nil {
		return err
	}
	if int(id) != len(s.routes) {
		return fmt.Errorf("%w: operation id %d out of sequence", ErrRouteConflict, id)
	}

	s.routes = append(s.routes, serverRoute{
		name:     op.name,
		timeout:  op.timeout,
		dispatch: buildDispatch(op, h),
	})
	return nil
}

// MustHandle is like Handle but panics on error.
func MustHandle[Req, Resp any](s *Server, op *Operation[Req, Resp], h Handler[Req, Resp]) {
	if err := Handle(s, op, h); err != nil {
		panic(err)
	}
}

// buildDispatch wraps a typed Handler into a dispatchFunc. Domain errors
// are passed through unaltered as ServerOperation.
func buildDispatch[Req, Resp any](op *Operation[Req, Resp], h Handler[Req, Resp]) dispatchFunc {
	return func(ctx context.Context, params Params, r *Request) (*Response, error) {
		req, err := decodeRequest[Req](ctx, r, params)
		if err != nil {
			if se, ok := err.(*ServerError); ok {
				se.Operation = op.name
			}
			return nil, err
		}

		resp, err := h(withParams(ctx, params), req)
		if err != nil {
			return nil, &ServerError{Kind: ServerOperation, Operation: op.name, Err: err}
		}

		out, err := respond(resp, op.status)
		if err != nil {
			return nil, &ServerError{Kind: ServerSerialize, Operation: op.name, Err: err}
		}
		return out, nil
	}
}
