package petstore

import (
	"net/http"

	"github.com/bjaus/httprpc"
)

// UpdateRequest replaces the pet stored under ID.
type UpdateRequest struct {
	ID   string `path:"id"`
	Body Pet
}

// DeleteRequest removes the pet stored under ID.
type DeleteRequest struct {
	ID string `path:"id"`
}

// Operations served by the pet store.
var (
	ListOp = httprpc.MustDefine[httprpc.Void, []Pet](http.MethodGet, "/pets",
		httprpc.WithName("pets.list"),
	)
	CreateOp = httprpc.MustDefine[Pet, Pet](http.MethodPost, "/pets",
		httprpc.WithName("pets.create"),
		httprpc.WithErrors(ErrPetExists, ErrPetNameRequired),
	)
	UpdateOp = httprpc.MustDefine[UpdateRequest, Pet](http.MethodPost, "/pets/{id}",
		httprpc.WithName("pets.update"),
		httprpc.WithErrors(ErrPetNotFound, ErrPetNameRequired),
	)
	DeleteOp = httprpc.MustDefine[DeleteRequest, httprpc.Void](http.MethodDelete, "/pets/{id}",
		httprpc.WithName("pets.delete"),
		httprpc.WithErrors(ErrPetNotFound),
	)
)
