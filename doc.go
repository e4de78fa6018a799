// Package httprpc is a typed RPC-over-HTTP runtime. An Operation describes a
// remote call by its method, path template, argument type and result type.
// The same value drives both sides of the wire:
//
//	var GetPet = httprpc.MustDefine[GetPetReq, Pet](http.MethodGet, "/pets/{id}",
//	    httprpc.WithErrors(ErrPetNotFound))
//
// On the server, Handle binds the operation to business logic and a Server
// routes and dispatches requests to it:
//
//	srv := httprpc.NewServer()
//	httprpc.MustHandle(srv, GetPet, func(ctx context.Context, req *GetPetReq) (*Pet, error) { ... })
//
// On the client, Call marshals the arguments, sends them through a Sender,
// and decodes the result:
//
//	pet, err := GetPet.Call(ctx, sender, &GetPetReq{ID: "Fido"})
//
// A Sender is either a *Transport over net/http or the *Server itself, so
// the full marshalling path can be exercised in-process without a socket.
//
// Argument types use struct tags for parameter binding and a Body field for
// the JSON payload:
//
//	type UpdatePetReq struct {
//	    ID   string `path:"id"`
//	    Body Pet
//	}
//
// Void results become 204 No Content; everything else is 200 with an
// application/json body. Failures are *ClientError or *ServerError values
// whose kinds form closed sets; domain errors travel as RFC 9457 problem
// responses and are decoded back into the declared error on the client.
// Runtime rejections, such as an unknown route, never decode as a declared
// error even when they share its status.
package httprpc
