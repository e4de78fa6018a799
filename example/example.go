// Package example exercises header, query, and response-header binding
// with two freestanding operations.
package example

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bjaus/httprpc"
)

// ErrMissingFoo is returned when Freestanding is called without X-Foo.
var ErrMissingFoo = httprpc.Error(http.StatusBadRequest, "missing X-Foo header")

// FreestandingRequest carries the X-Foo request header.
type FreestandingRequest struct {
	Foo string `header:"X-Foo"`
}

// FreestandingResponse returns X-Bar as a header and a fixed sequence as the body.
type FreestandingResponse struct {
	Bar  string `header:"X-Bar"`
	Body []int32
}

// FreestandingPathRequest carries a path parameter and a query parameter.
type FreestandingPathRequest struct {
	ID string `path:"id"`
	Q  string `query:"q"`
}

// FreestandingPathResponse returns X-Composite as a header and a fixed
// sequence as the body.
type FreestandingPathResponse struct {
	Composite string `header:"X-Composite"`
	Body      []int32
}

var (
	FreestandingOp = httprpc.MustDefine[FreestandingRequest, FreestandingResponse](
		http.MethodGet, "/freestanding",
		httprpc.WithName("example.freestanding"),
		httprpc.WithErrors(ErrMissingFoo),
	)
	FreestandingPathOp = httprpc.MustDefine[FreestandingPathRequest, FreestandingPathResponse](
		http.MethodPost, "/freestanding/{id}",
		httprpc.WithName("example.freestanding_path"),
	)
)

// Example is the capability behind the freestanding operations.
type Example interface {
	Freestanding(ctx context.Context, foo string) (FreestandingResponse, error)
	FreestandingPath(ctx context.Context, id, q string) (FreestandingPathResponse, error)
}

// Service is the reference Example implementation.
type Service struct{}

var payload = []int32{0, 1, 2, 3, 4, 5, 6, 7}

func (Service) Freestanding(_ context.Context, foo string) (FreestandingResponse, error) {
	if foo == "" {
		return FreestandingResponse{}, ErrMissingFoo
	}
	return FreestandingResponse{Bar: foo + "bar", Body: payload}, nil
}

func (Service) FreestandingPath(_ context.Context, id, q string) (FreestandingPathResponse, error) {
	return FreestandingPathResponse{Composite: id + "-" + q, Body: payload}, nil
}

// Register adds the freestanding operations to s, backed by e.
func Register(s *httprpc.Server, e Example) error {
	if err := httprpc.Handle(s, FreestandingOp, func(ctx context.Context, req *FreestandingRequest) (*FreestandingResponse, error) {
		resp, err := e.Freestanding(ctx, req.Foo)
		if err != nil {
			return nil, err
		}
		return &resp, nil
	}); err != nil {
		return fmt.Errorf("register %s: %w", FreestandingOp.Name(), err)
	}

	if err := httprpc.Handle(s, FreestandingPathOp, func(ctx context.Context, req *FreestandingPathRequest) (*FreestandingPathResponse, error) {
		resp, err := e.FreestandingPath(ctx, req.ID, req.Q)
		if err != nil {
			return nil, err
		}
		return &resp, nil
	}); err != nil {
		return fmt.Errorf("register %s: %w", FreestandingPathOp.Name(), err)
	}

	return nil
}

// Client implements Example through a Sender.
type Client struct {
	sender httprpc.Sender
}

var _ Example = (*Client)(nil)

// NewClient returns a client sending through s.
func NewClient(s httprpc.Sender) *Client {
	return &Client{sender: s}
}

func (c *Client) Freestanding(ctx context.Context, foo string) (FreestandingResponse, error) {
	resp, err := FreestandingOp.Call(ctx, c.sender, &FreestandingRequest{Foo: foo})
	if err != nil {
		return FreestandingResponse{}, err
	}
	return *resp, nil
}

func (c *Client) FreestandingPath(ctx context.Context, id, q string) (FreestandingPathResponse, error) {
	resp, err := FreestandingPathOp.Call(ctx, c.sender, &FreestandingPathRequest{ID: id, Q: q})
	if err != nil {
		return FreestandingPathResponse{}, err
	}
	return *resp, nil
}
