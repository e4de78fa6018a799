package httprpc_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/httprpc"
)

func TestRouter_Resolve(t *testing.T) {
	t.Parallel()

	routes := []struct {
		method   string
		template string
	}{
		{http.MethodGet, "/pets"},
		{http.MethodPost, "/pets"},
		{http.MethodPost, "/pets/{id}"},
		{http.MethodDelete, "/pets/{id}"},
		{http.MethodGet, "/pets/mine"},
		{http.MethodGet, "/pets/{id}/toys/{toy}"},
		{http.MethodGet, "/"},
	}

	r := httprpc.NewRouter()
	ids := make(map[string]httprpc.OperationID)
	for _, rt := range routes {
		id, err := r.Register(rt.method, rt.template)
		require.NoError(t, err)
		ids[rt.method+" "+rt.template] = id
	}

	tests := map[string]struct {
		method     string
		path       string
		wantRoute  string
		wantParams httprpc.Params
	}{
		"literal": {
			method:    http.MethodGet,
			path:      "/pets",
			wantRoute: "GET /pets",
		},
		"same path different method": {
			method:    http.MethodPost,
			path:      "/pets",
			wantRoute: "POST /pets",
		},
		"parameter capture": {
			method:     http.MethodDelete,
			path:       "/pets/Fido",
			wantRoute:  "DELETE /pets/{id}",
			wantParams: httprpc.Params{{Name: "id", Value: "Fido"}},
		},
		"literal beats parameter": {
			method:    http.MethodGet,
			path:      "/pets/mine",
			wantRoute: "GET /pets/mine",
		},
		"parameter value is decoded": {
			method:     http.MethodPost,
			path:       "/pets/Mr%20Whiskers%2F2",
			wantRoute:  "POST /pets/{id}",
			wantParams: httprpc.Params{{Name: "id", Value: "Mr Whiskers/2"}},
		},
		"backtracks from literal into parameter": {
			method:    http.MethodGet,
			path:      "/pets/mine/toys/ball",
			wantRoute: "GET /pets/{id}/toys/{toy}",
			wantParams: httprpc.Params{
				{Name: "id", Value: "mine"},
				{Name: "toy", Value: "ball"},
			},
		},
		"root": {
			method:    http.MethodGet,
			path:      "/",
			wantRoute: "GET /",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			id, params, err := r.Resolve(tc.method, tc.path)
			require.NoError(t, err)
			assert.Equal(t, ids[tc.wantRoute], id)
			assert.Equal(t, tc.wantParams, params)
		})
	}
}

func TestRouter_Resolve_not_found(t *testing.T) {
	t.Parallel()

	r := httprpc.NewRouter()
	_, err := r.Register(http.MethodGet, "/pets")
	require.NoError(t, err)
	_, err = r.Register(http.MethodDelete, "/pets/{id}")
	require.NoError(t, err)

	tests := map[string]struct {
		method string
		path   string
	}{
		"unknown path":            {http.MethodGet, "/owners"},
		"unregistered method":     {http.MethodPut, "/pets"},
		"method of other route":   {http.MethodGet, "/pets/Fido"},
		"too many segments":       {http.MethodDelete, "/pets/Fido/extra"},
		"too few segments":        {http.MethodDelete, "/pets"},
		"empty parameter segment": {http.MethodDelete, "/pets/"},
		"trailing slash":          {http.MethodGet, "/pets/"},
		"case sensitive literal":  {http.MethodGet, "/Pets"},
		"prefix of literal":       {http.MethodGet, "/pet"},
		"relative path":           {http.MethodGet, "pets"},
		"bad escape":              {http.MethodDelete, "/pets/%zz"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, _, err := r.Resolve(tc.method, tc.path)
			assert.ErrorIs(t, err, httprpc.ErrNotFound)
		})
	}
}

func TestRouter_Resolve_independent_of_registration_order(t *testing.T) {
	t.Parallel()

	first := httprpc.NewRouter()
	_, err := first.Register(http.MethodGet, "/pets/{id}")
	require.NoError(t, err)
	_, err = first.Register(http.MethodGet, "/pets/mine")
	require.NoError(t, err)

	second := httprpc.NewRouter()
	_, err = second.Register(http.MethodGet, "/pets/mine")
	require.NoError(t, err)
	_, err = second.Register(http.MethodGet, "/pets/{id}")
	require.NoError(t, err)

	for name, r := range map[string]*httprpc.Router{"param first": first, "literal first": second} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, params, err := r.Resolve(http.MethodGet, "/pets/mine")
			require.NoError(t, err)
			assert.Empty(t, params, "literal route should win")

			_, params, err = r.Resolve(http.MethodGet, "/pets/Rex")
			require.NoError(t, err)
			v, ok := params.Get("id")
			assert.True(t, ok)
			assert.Equal(t, "Rex", v)
		})
	}
}

func TestRouter_Register_assigns_sequential_ids(t *testing.T) {
	t.Parallel()

	r := httprpc.NewRouter()
	for i, tmpl := range []string{"/a", "/b", "/c/{x}"} {
		id, err := r.Register(http.MethodGet, tmpl)
		require.NoError(t, err)
		assert.Equal(t, httprpc.OperationID(i), id)
	}
}

func TestRouter_Register_conflicts(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		existing []string
		method   string
		template string
	}{
		"duplicate": {
			existing: []string{"/pets/{id}"},
			method:   http.MethodGet,
			template: "/pets/{id}",
		},
		"same shape different parameter name": {
			existing: []string{"/pets/{id}"},
			method:   http.MethodGet,
			template: "/pets/{name}",
		},
		"missing leading slash": {
			method:   http.MethodGet,
			template: "pets",
		},
		"empty segment": {
			method:   http.MethodGet,
			template: "/pets//toys",
		},
		"trailing slash": {
			method:   http.MethodGet,
			template: "/pets/",
		},
		"empty parameter name": {
			method:   http.MethodGet,
			template: "/pets/{}",
		},
		"invalid parameter name": {
			method:   http.MethodGet,
			template: "/pets/{pet-id}",
		},
		"duplicate parameter": {
			method:   http.MethodGet,
			template: "/pets/{id}/toys/{id}",
		},
		"stray brace": {
			method:   http.MethodGet,
			template: "/pets/{id",
		},
		"partial parameter": {
			method:   http.MethodGet,
			template: "/pets/id-{id}",
		},
		"empty method": {
			method:   "",
			template: "/pets",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := httprpc.NewRouter()
			for _, tmpl := range tc.existing {
				_, err := r.Register(http.MethodGet, tmpl)
				require.NoError(t, err)
			}

			_, err := r.Register(tc.method, tc.template)
			require.ErrorIs(t, err, httprpc.ErrRouteConflict)

			var rce *httprpc.RouteConflictError
			require.ErrorAs(t, err, &rce)
			assert.Equal(t, tc.template, rce.Template)
			assert.NotEmpty(t, rce.Reason)
		})
	}
}

func TestRouter_Register_conflict_leaves_trie_untouched(t *testing.T) {
	t.Parallel()

	r := httprpc.NewRouter()
	_, err := r.Register(http.MethodGet, "/pets/{id}")
	require.NoError(t, err)
	before := httprpc.NodeCount(r, http.MethodGet)

	_, err = r.Register(http.MethodGet, "/pets/{name}/toys/{toy}")
	require.ErrorIs(t, err, httprpc.ErrRouteConflict)
	_, err = r.Register(http.MethodGet, "/pets/{id}")
	require.ErrorIs(t, err, httprpc.ErrRouteConflict)

	assert.Equal(t, before, httprpc.NodeCount(r, http.MethodGet))

	// The failed registrations did not consume ids.
	id, err := r.Register(http.MethodGet, "/pets/{id}/toys")
	require.NoError(t, err)
	assert.Equal(t, httprpc.OperationID(1), id)
}

func TestRouter_Register_same_template_other_method(t *testing.T) {
	t.Parallel()

	r := httprpc.NewRouter()
	_, err := r.Register(http.MethodPost, "/pets/{id}")
	require.NoError(t, err)
	_, err = r.Register(http.MethodDelete, "/pets/{id}")
	assert.NoError(t, err)
}

func TestParams_Get(t *testing.T) {
	t.Parallel()

	p := httprpc.Params{{Name: "id", Value: "1"}, {Name: "toy", Value: "ball"}}

	v, ok := p.Get("toy")
	assert.True(t, ok)
	assert.Equal(t, "ball", v)

	_, ok = p.Get("missing")
	assert.False(t, ok)
}
