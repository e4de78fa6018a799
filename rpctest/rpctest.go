// Package rpctest provides test helpers for exercising httprpc servers
// in-process and over a real socket.
package rpctest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bjaus/httprpc"
)

// Senders returns both send capabilities for s, keyed by name: "inprocess"
// calls the server directly and "http" goes through an httptest socket.
// Table tests ranging over the map check that both behave identically.
func Senders(t testing.TB, s *httprpc.Server) map[string]httprpc.Sender {
	t.Helper()
	return map[string]httprpc.Sender{
		"inprocess": s,
		"http":      NewTransport(t, s),
	}
}

// NewTransport starts an httptest server for h and returns a Transport
// pointed at it. Both are closed when the test ends.
func NewTransport(t testing.TB, h http.Handler, opts ...httprpc.TransportOption) *httprpc.Transport {
	t.Helper()
	srv := NewServer(t, h)

	opts = append([]httprpc.TransportOption{httprpc.WithHTTPClient(srv.Client())}, opts...)
	tr, err := httprpc.NewTransport(srv.URL, opts...)
	if err != nil {
		t.Fatalf("rpctest: new transport: %v", err)
	}
	t.Cleanup(func() {
		//nolint:errcheck,gosec // Close never fails
		tr.Close()
	})
	return tr
}

// NewServer starts an httptest server for h, closed when the test ends.
func NewServer(t testing.TB, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

// Response holds a raw HTTP response with its body fully read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Do sends a raw HTTP request to srv and reads the whole response. A non-nil
// body is sent as application/json.
func Do(t testing.TB, srv *httptest.Server, method, path string, body []byte) *Response {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, srv.URL+path, reqBody)
	if err != nil {
		t.Fatalf("rpctest: create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("rpctest: execute request: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Errorf("rpctest: close body: %v", closeErr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("rpctest: read body: %v", err)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}
}
