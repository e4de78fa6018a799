package petstore

import (
	"context"

	"github.com/bjaus/httprpc"
)

// Client implements Pets by calling the pet store operations through a
// Sender. Errors are *httprpc.ClientError values; declared domain errors
// match ErrPetNotFound, ErrPetExists and ErrPetNameRequired with errors.Is.
type Client struct {
	sender httprpc.Sender
}

var _ Pets = (*Client)(nil)

// NewClient returns a client sending through s.
func NewClient(s httprpc.Sender) *Client {
	return &Client{sender: s}
}

func (c *Client) List(ctx context.Context) ([]Pet, error) {
	pets, err := ListOp.Call(ctx, c.sender, nil)
	if err != nil {
		return nil, err
	}
	return *pets, nil
}

func (c *Client) Create(ctx context.Context, pet Pet) (Pet, error) {
	out, err := CreateOp.Call(ctx, c.sender, &pet)
	if err != nil {
		return Pet{}, err
	}
	return *out, nil
}

func (c *Client) Update(ctx context.Context, id string, pet Pet) (Pet, error) {
	out, err := UpdateOp.Call(ctx, c.sender, &UpdateRequest{ID: id, Body: pet})
	if err != nil {
		return Pet{}, err
	}
	return *out, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := DeleteOp.Call(ctx, c.sender, &DeleteRequest{ID: id})
	return err
}
