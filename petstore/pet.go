// Package petstore is a CRUD pet store served over httprpc.
//
// The same operation table drives the server (NewServer), the typed client
// (Client), and in-process tests, so a Client can talk to a Store either
// over a socket or directly through the *httprpc.Server.
package petstore

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bjaus/httprpc"
)

// Pet is a pet in the store. Name is its identity.
type Pet struct {
	Name string  `json:"name"`
	Age  int32   `json:"age"`
	Kind PetKind `json:"kind"`
}

// PetKind is the species of a pet. It travels as a bare string tag.
type PetKind string

const (
	Dog  PetKind = "dog"
	Cat  PetKind = "cat"
	Fish PetKind = "fish"
)

// Valid reports whether k is a known kind.
func (k PetKind) Valid() bool {
	switch k {
	case Dog, Cat, Fish:
		return true
	default:
		return false
	}
}

func (k PetKind) String() string { return string(k) }

// MarshalText implements encoding.TextMarshaler.
func (k PetKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid pet kind %q", string(k))
	}
	return []byte(k), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PetKind) UnmarshalText(b []byte) error {
	kind := PetKind(b)
	if !kind.Valid() {
		return fmt.Errorf("invalid pet kind %q", string(b))
	}
	*k = kind
	return nil
}

// Domain errors returned by Pets implementations.
var (
	ErrPetNotFound = httprpc.Error(http.StatusNotFound, "pet does not exist")
	ErrPetExists   = httprpc.Error(http.StatusConflict, "pet already exists")

	// ErrPetNameRequired rejects a pet that could never be addressed by
	// name in /pets/{id}.
	ErrPetNameRequired = httprpc.Error(http.StatusBadRequest, "pet name is required")
)

// Pets is the capability a pet store backend implements.
type Pets interface {
	List(ctx context.Context) ([]Pet, error)
	Create(ctx context.Context, pet Pet) (Pet, error)
	Update(ctx context.Context, id string, pet Pet) (Pet, error)
	Delete(ctx context.Context, id string) error
}
