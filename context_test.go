package httprpc_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/httprpc"
	"github.com/bjaus/httprpc/rpctest"
)

type tenantID string

func TestSetValue_reaches_handler(t *testing.T) {
	t.Parallel()

	type Resp struct {
		Tenant string `json:"tenant"`
		Found  bool   `json:"found"`
	}

	srv := httprpc.NewServer()
	op := httprpc.MustDefine[httprpc.Void, Resp](http.MethodGet, "/whoami")
	httprpc.MustHandle(srv, op, func(ctx context.Context, _ *httprpc.Void) (*Resp, error) {
		tenant, ok := httprpc.GetValue[tenantID](ctx)
		return &Resp{Tenant: string(tenant), Found: ok}, nil
	})
	srv.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, httprpc.SetValue(r, tenantID("acme")))
		})
	})

	got, err := op.Call(context.Background(), rpctest.NewTransport(t, srv), nil)
	require.NoError(t, err)
	assert.Equal(t, &Resp{Tenant: "acme", Found: true}, got)

	// In-process calls bypass middleware.
	got, err = op.Call(context.Background(), srv, nil)
	require.NoError(t, err)
	assert.False(t, got.Found)
}

func TestGetValue_missing(t *testing.T) {
	t.Parallel()

	s, ok := httprpc.GetValue[string](context.Background())
	assert.False(t, ok)
	assert.Empty(t, s)

	n, ok := httprpc.GetValue[int](context.Background())
	assert.False(t, ok)
	assert.Zero(t, n)
}

func TestSetValue_types_do_not_collide(t *testing.T) {
	t.Parallel()

	r, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "/", nil)
	require.NoError(t, err)

	r = httprpc.SetValue(r, "text")
	r = httprpc.SetValue(r, 42)
	r = httprpc.SetValue(r, tenantID("acme"))

	s, ok := httprpc.GetValue[string](r.Context())
	assert.True(t, ok)
	assert.Equal(t, "text", s)

	n, ok := httprpc.GetValue[int](r.Context())
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	tenant, ok := httprpc.GetValue[tenantID](r.Context())
	assert.True(t, ok)
	assert.Equal(t, tenantID("acme"), tenant)
}

func TestPathParams(t *testing.T) {
	t.Parallel()

	type Req struct {
		Owner string `path:"owner"`
	}

	var captured httprpc.Params
	srv := httprpc.NewServer()
	httprpc.MustHandle(srv, httprpc.MustDefine[Req, httprpc.Void](http.MethodDelete, "/owners/{owner}/pets/{pet}"),
		func(ctx context.Context, _ *Req) (*httprpc.Void, error) {
			captured = httprpc.PathParams(ctx)
			return nil, nil
		})

	resp, err := srv.Call(context.Background(), newRequest(http.MethodDelete, "/owners/ann/pets/Rex%21", ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.Status)
	assert.Equal(t, httprpc.Params{{Name: "owner", Value: "ann"}, {Name: "pet", Value: "Rex!"}}, captured)

	assert.Nil(t, httprpc.PathParams(context.Background()))
}
