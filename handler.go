package httprpc

import "context"

// Void is used as a type parameter when an operation takes no arguments or
// returns no result (results in 204 No Content).
type Void struct{}

// Handler is the business capability behind one operation. The runtime owns
// marshalling; handlers only see typed arguments and return typed results
// or domain errors.
type Handler[Req, Resp any] func(ctx context.Context, req *Req) (*Resp, error)
