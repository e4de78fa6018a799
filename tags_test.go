package httprpc_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bjaus/httprpc"
)

func TestTagOptions(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		tag      string
		wantName string
		wantOpts string
	}{
		"name only":    {tag: "limit", wantName: "limit"},
		"with option":  {tag: "limit,omitempty", wantName: "limit", wantOpts: "omitempty"},
		"many options": {tag: "q,omitempty,other", wantName: "q", wantOpts: "omitempty,other"},
		"empty":        {tag: ""},
		"options only": {tag: ",omitempty", wantOpts: "omitempty"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			gotName, gotOpts := httprpc.TagOptions(tc.tag)
			assert.Equal(t, tc.wantName, gotName)
			assert.Equal(t, tc.wantOpts, gotOpts)
		})
	}
}

func TestTagContains(t *testing.T) {
	t.Parallel()

	assert.True(t, httprpc.TagContains("omitempty", "omitempty"))
	assert.True(t, httprpc.TagContains("a,omitempty", "omitempty"))
	assert.False(t, httprpc.TagContains("omitemptyx", "omitempty"))
	assert.False(t, httprpc.TagContains("", "omitempty"))
}

func TestRequestShape(t *testing.T) {
	t.Parallel()

	type plain struct {
		Name string `json:"name"`
	}
	type params struct {
		ID string `path:"id"`
	}
	type mixed struct {
		ID   string `path:"id"`
		Body plain
	}
	type hidden struct {
		body plain //nolint:unused // unexported fields are ignored
	}

	tests := map[string]struct {
		typ       reflect.Type
		wantBody  bool
		wantParam bool
	}{
		"plain struct":    {typ: reflect.TypeFor[plain]()},
		"param struct":    {typ: reflect.TypeFor[params](), wantParam: true},
		"mixed struct":    {typ: reflect.TypeFor[mixed](), wantBody: true, wantParam: true},
		"pointer":         {typ: reflect.TypeFor[*mixed](), wantBody: true, wantParam: true},
		"unexported body": {typ: reflect.TypeFor[hidden]()},
		"slice":           {typ: reflect.TypeFor[[]plain]()},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.wantBody, httprpc.HasBodyField(tc.typ))
			assert.Equal(t, tc.wantParam, httprpc.HasParamTags(tc.typ))
		})
	}
}
