package httprpc_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/httprpc"
	"github.com/bjaus/httprpc/rpctest"
)

func TestNewTransport_rejects_relative_url(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no scheme":   "localhost:8080/api",
		"path only":   "/api",
		"unparsable":  "http://[::1",
		"empty":       "",
		"scheme only": "http://",
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := httprpc.NewTransport(raw)
			assert.Error(t, err)
		})
	}
}

func TestTransport_Call(t *testing.T) {
	t.Parallel()

	var (
		gotPath   string
		gotQuery  string
		gotHeader http.Header
		gotBody   string
		gotLength int64
	)
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		gotHeader = r.Header.Clone()
		gotLength = r.ContentLength
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)

		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("X-Reply", "yes")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("streamed reply"))
	})
	ts := rpctest.NewServer(t, echo)

	tr, err := httprpc.NewTransport(ts.URL+"/api/",
		httprpc.WithHTTPClient(ts.Client()),
		httprpc.WithDefaultHeader("X-Client", "test"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })

	req := &httprpc.Request{
		Method: http.MethodPost,
		URI:    "/pets/Mr%20Fluff?verbose=true",
		Header: http.Header{"Content-Type": {"application/json"}},
		Body:   httprpc.BytesBody([]byte(`{"name":"Mr Fluff"}`)),
	}

	require.NoError(t, tr.Ready(context.Background()))
	resp, err := tr.Call(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "/api/pets/Mr%20Fluff", gotPath)
	assert.Equal(t, "verbose=true", gotQuery)
	assert.Equal(t, "test", gotHeader.Get("X-Client"))
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, `{"name":"Mr Fluff"}`, gotBody)
	assert.Equal(t, int64(len(`{"name":"Mr Fluff"}`)), gotLength)

	assert.Equal(t, http.StatusAccepted, resp.Status)
	assert.Equal(t, "yes", resp.Header.Get("X-Reply"))
	data, err := resp.Body.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "streamed reply", string(data))
}

func TestTransport_Call_empty_body(t *testing.T) {
	t.Parallel()

	var gotLength int64 = -2
	ts := rpctest.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLength = r.ContentLength
		w.WriteHeader(http.StatusNoContent)
	}))

	tr, err := httprpc.NewTransport(ts.URL, httprpc.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	resp, err := tr.Call(context.Background(), &httprpc.Request{
		Method: http.MethodDelete,
		URI:    "/pets/Fido",
		Header: make(http.Header),
		Body:   httprpc.EmptyBody(),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.Status)
	assert.Zero(t, gotLength)
}

func TestTransport_Close(t *testing.T) {
	t.Parallel()

	tr, err := httprpc.NewTransport("http://127.0.0.1:1")
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	assert.ErrorIs(t, tr.Ready(context.Background()), httprpc.ErrUnavailable)

	_, err = tr.Call(context.Background(), &httprpc.Request{Method: http.MethodGet, URI: "/", Header: make(http.Header)})
	assert.ErrorIs(t, err, httprpc.ErrUnavailable)

	op := httprpc.MustDefine[httprpc.Void, item](http.MethodGet, "/item")
	_, err = op.Call(context.Background(), tr, nil)
	assert.ErrorIs(t, err, httprpc.ErrService)
}

func TestTransport_WithRateLimit(t *testing.T) {
	t.Parallel()

	tr, err := httprpc.NewTransport("http://127.0.0.1:1", httprpc.WithRateLimit(0.001, 1))
	require.NoError(t, err)

	require.NoError(t, tr.Ready(context.Background()), "burst token should be available")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, tr.Ready(ctx), "second call must wait past the deadline")
}

func TestTransport_connection_failure_is_service_error(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	tr, err := httprpc.NewTransport(url)
	require.NoError(t, err)

	op := httprpc.MustDefine[httprpc.Void, item](http.MethodGet, "/item")
	_, err = op.Call(context.Background(), tr, nil)
	require.ErrorIs(t, err, httprpc.ErrService)

	var ce *httprpc.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Nil(t, ce.Parts, "no response was received")
}
