package httprpc

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Request is a transport-neutral HTTP request. URI holds the escaped path
// and optional raw query, e.g. "/pets/Fido?verbose=true".
type Request struct {
	Method string
	URI    string
	Header http.Header
	Body   *Body
}

// Path returns the escaped path component of the URI.
func (r *Request) Path() string {
	path, _, _ := strings.Cut(r.URI, "?")
	return path
}

// Query parses the query component of the URI.
func (r *Request) Query() url.Values {
	_, raw, _ := strings.Cut(r.URI, "?")
	//nolint:errcheck // malformed pairs are dropped, matching net/http
	q, _ := url.ParseQuery(raw)
	return q
}

// Response is a transport-neutral HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   *Body
}

// ResponseParts is the head of a response: everything but the body.
type ResponseParts struct {
	Status int
	Header http.Header
}

// Parts returns a copy of the response head.
func (r *Response) Parts() ResponseParts {
	return ResponseParts{Status: r.Status, Header: r.Header.Clone()}
}

// NewRequestFromHTTP converts an inbound net/http request. The body is
// streamed, not buffered.
func NewRequestFromHTTP(r *http.Request) *Request {
	uri := r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		uri += "?" + r.URL.RawQuery
	}
	return &Request{
		Method: r.Method,
		URI:    uri,
		Header: r.Header.Clone(),
		Body:   ReaderBody(r.Body),
	}
}

// newResponseFromHTTP converts a net/http response received by a client.
func newResponseFromHTTP(r *http.Response) *Response {
	return &Response{
		Status: r.StatusCode,
		Header: r.Header,
		Body:   ReaderBody(r.Body),
	}
}

// writeResponse streams resp to w, flushing after each chunk.
func writeResponse(ctx context.Context, w http.ResponseWriter, resp *Response) error {
	defer func() {
		//nolint:errcheck,gosec // best-effort release after write
		resp.Body.Close()
	}()

	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if n, ok := resp.Body.Len(); ok && w.Header().Get("Content-Length") == "" && n > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(n, 10))
	}
	w.WriteHeader(resp.Status)

	rc := http.NewResponseController(w)
	for {
		chunk, err := resp.Body.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if _, err := w.Write(chunk); err != nil {
			return err
		}
		//nolint:errcheck,gosec // flushing is optional for some writers
		rc.Flush()
	}
}
