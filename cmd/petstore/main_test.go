package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/httprpc"
	"github.com/bjaus/httprpc/petstore"
)

func TestRun_inprocess(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"inprocess"}, &out))

	got := out.String()
	assert.Contains(t, got, "created: {Name:Fido Age:2 Kind:dog}")
	assert.Contains(t, got, "deleted: Fido")
	assert.Contains(t, got, "second delete:")
	assert.Contains(t, got, "list: []")
}

func TestRun_rejects_bad_input(t *testing.T) {
	tests := map[string][]string{
		"unknown mode":   {"teleport"},
		"extra argument": {"serve", "now"},
		"unknown flag":   {"--nope"},
		"missing config": {"--config", filepath.Join(os.TempDir(), "does-not-exist.yaml"), "inprocess"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, run(args, io.Discard))
		})
	}
}

func TestClientMode_against_handler(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Metrics.Namespace = "petstore_test"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler, err := newHandler(cfg, logger)
	require.NoError(t, err)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	cfg.URL = ts.URL
	tr, err := newTransport(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, scenario(ctx, petstore.NewClient(tr), &out))
	assert.Contains(t, out.String(), "deleted: Fido")

	resp, err := ts.Client().Get(ts.URL + cfg.Metrics.Path)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `petstore_test_rpc_requests_total{operation="pets.delete",status="404"} 1`)
	assert.Contains(t, string(body), `petstore_test_rpc_requests_total{operation="pets.create",status="200"} 1`)
}

func TestHandler_matches_inprocess_for_dot_names(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Metrics.Namespace = "petstore_dots"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler, err := newHandler(cfg, logger)
	require.NoError(t, err)
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	tr, err := httprpc.NewTransport(ts.URL, httprpc.WithHTTPClient(ts.Client()))
	require.NoError(t, err)

	inproc, err := petstore.NewServer(petstore.NewStore())
	require.NoError(t, err)

	senders := map[string]httprpc.Sender{"http": tr, "inprocess": inproc}

	for name, sender := range senders {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			client := petstore.NewClient(sender)

			for _, pet := range []string{".", "..", "metrics", "a/b"} {
				_, err := client.Create(ctx, petstore.Pet{Name: pet, Kind: petstore.Cat})
				require.NoError(t, err, pet)

				_, err = client.Update(ctx, pet, petstore.Pet{Name: pet, Age: 1, Kind: petstore.Cat})
				require.NoError(t, err, pet)

				require.NoError(t, client.Delete(ctx, pet), pet)
				require.ErrorIs(t, client.Delete(ctx, pet), petstore.ErrPetNotFound, pet)
			}
		})
	}
}
