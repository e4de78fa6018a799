package petstore

import (
	"context"
	"fmt"

	"github.com/bjaus/httprpc"
)

// NewServer returns a server dispatching the pet store operations to p.
func NewServer(p Pets, opts ...httprpc.ServerOption) (*httprpc.Server, error) {
	s := httprpc.NewServer(opts...)
	if err := Register(s, p); err != nil {
		return nil, err
	}
	return s, nil
}

// Register adds the pet store operations to s.
func Register(s *httprpc.Server, p Pets) error {
	if err := httprpc.Handle(s, ListOp, func(ctx context.Context, _ *httprpc.Void) (*[]Pet, error) {
		pets, err := p.List(ctx)
		if err != nil {
			return nil, err
		}
		if pets == nil {
			pets = []Pet{}
		}
		return &pets, nil
	}); err != nil {
		return fmt.Errorf("register %s: %w", ListOp.Name(), err)
	}

	if err := httprpc.Handle(s, CreateOp, func(ctx context.Context, req *Pet) (*Pet, error) {
		pet, err := p.Create(ctx, *req)
		if err != nil {
			return nil, err
		}
		return &pet, nil
	}); err != nil {
		return fmt.Errorf("register %s: %w", CreateOp.Name(), err)
	}

	if err := httprpc.Handle(s, UpdateOp, func(ctx context.Context, req *UpdateRequest) (*Pet, error) {
		pet, err := p.Update(ctx, req.ID, req.Body)
		if err != nil {
			return nil, err
		}
		return &pet, nil
	}); err != nil {
		return fmt.Errorf("register %s: %w", UpdateOp.Name(), err)
	}

	if err := httprpc.Handle(s, DeleteOp, func(ctx context.Context, req *DeleteRequest) (*httprpc.Void, error) {
		return nil, p.Delete(ctx, req.ID)
	}); err != nil {
		return fmt.Errorf("register %s: %w", DeleteOp.Name(), err)
	}

	return nil
}
