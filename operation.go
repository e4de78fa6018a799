package httprpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"time"
)

// Operation is a named remote call with a fixed method, path template,
// argument type, and result type. The same value drives both the client
// marshaller (Call) and the server dispatcher (Handle). Operations are
// immutable once defined.
type Operation[Req, Resp any] struct {
	name     string
	method   string
	template string
	segs     []segment
	status   int
	errors   []error
	timeout  time.Duration
}

// OperationOption configures an operation at definition time.
type OperationOption func(*operationInfo)

type operationInfo struct {
	name    string
	status  int
	errors  []error
	timeout time.Duration
}

// WithName sets the operation name used in logs, metrics, and errors.
func WithName(name string) OperationOption {
	return func(oi *operationInfo) {
		oi.name = name
	}
}

// WithStatus sets the success status code, overriding the default of
// 204 for Void results and 200 otherwise.
func WithStatus(code int) OperationOption {
	return func(oi *operationInfo) {
		oi.status = code
	}
}

// WithErrors declares the domain errors the operation may return. Each must
// implement StatusCoder. Clients decode problem responses carrying a declared
// status back into the declared error value.
func WithErrors(errs ...error) OperationOption {
	return func(oi *operationInfo) {
		oi.errors = append(oi.errors, errs...)
	}
}

// WithTimeout bounds the server side of the operation: argument decoding
// and the handler run under a deadline of d. It nests inside a server-wide
// WithRequestTimeout, so the earlier deadline wins.
func WithTimeout(d time.Duration) OperationOption {
	return func(oi *operationInfo) {
		oi.timeout = d
	}
}

// Define creates an operation. It fails with a *RouteConflictError when the
// template cannot be parsed.
func Define[Req, Resp any](method, template string, opts ...OperationOption) (*Operation[Req, Resp], error) {
	segs, err := parseTemplate(template)
	if err != nil {
		return nil, &RouteConflictError{Method: method, Template: template, Reason: err.Error()}
	}

	var oi operationInfo
	for _, opt := range opts {
		opt(&oi)
	}

	for _, e := range oi.errors {
		var sc StatusCoder
		if !errors.As(e, &sc) {
			return nil, &RouteConflictError{Method: method, Template: template, Reason: "declared error without status: " + e.Error()}
		}
	}

	// Determine default status: Void response → 204, otherwise 200.
	if oi.status == 0 {
		if reflect.TypeFor[Resp]() == reflect.TypeFor[Void]() {
			oi.status = http.StatusNoContent
		} else {
			oi.status = http.StatusOK
		}
	}
	if oi.name == "" {
		oi.name = method + " " + template
	}

	return &Operation[Req, Resp]{
		name:     oi.name,
		method:   method,
		template: template,
		segs:     segs,
		status:   oi.status,
		errors:   oi.errors,
		timeout:  oi.timeout,
	}, nil
}

// MustDefine is like Define but panics on error. It is meant for
// package-level operation tables.
func MustDefine[Req, Resp any](method, template string, opts ...OperationOption) *Operation[Req, Resp] {
	op, err := Define[Req, Resp](method, template, opts...)
	if err != nil {
		panic(err)
	}
	return op
}

// Name returns the operation name.
func (op *Operation[Req, Resp]) Name() string { return op.name }

// Method returns the HTTP method.
func (op *Operation[Req, Resp]) Method() string { return op.method }

// Template returns the path template.
func (op *Operation[Req, Resp]) Template() string { return op.template }

// Status returns the success status code.
func (op *Operation[Req, Resp]) Status() int { return op.status }

// Call invokes the operation through s. It waits for s to be ready, sends
// the encoded request, and decodes the response. Every failure is a
// *ClientError; nothing is retried.
func (op *Operation[Req, Resp]) Call(ctx context.Context, s Sender, req *Req) (*Resp, error) {
	wire, err := encodeRequest(op.method, op.segs, req)
	if err != nil {
		return nil, err
	}

	if err := s.Ready(ctx); err != nil {
		//nolint:errcheck,gosec // request was never sent
		wire.Body.Close()
		return nil, clientErr(ClientService, err)
	}

	resp, err := s.Call(ctx, wire)
	if err != nil {
		return nil, clientErr(ClientService, err)
	}

	return op.parseResponse(ctx, resp)
}

func (op *Operation[Req, Resp]) parseResponse(ctx context.Context, resp *Response) (*Resp, error) {
	parts := resp.Parts()

	if resp.Status != op.status {
		defer resp.Body.Close() //nolint:errcheck
		return nil, op.failure(ctx, resp, &parts)
	}

	out := new(Resp)

	// Stream results hand the body through undrained.
	if s, ok := any(out).(*Stream); ok {
		s.Status = resp.Status
		s.ContentType = resp.Header.Get("Content-Type")
		s.Body = resp.Body.Reader(ctx)
		return out, nil
	}

	defer resp.Body.Close() //nolint:errcheck

	if reflect.TypeFor[Resp]() == reflect.TypeFor[Void]() {
		return out, nil
	}

	ct := resp.Header.Get("Content-Type")
	if mediaType(ct) != contentTypeJSON {
		return nil, &ClientError{Kind: ClientUnexpectedContentType, ContentType: ct, Parts: &parts}
	}

	data, err := resp.Body.Collect(ctx)
	if err != nil {
		return nil, &ClientError{Kind: ClientBody, Err: err, Parts: &parts}
	}

	var target any = out
	if t := reflect.TypeFor[Resp](); structType(t) != nil {
		v := reflect.ValueOf(out).Elem()
		if err := bindHeaders(v, resp.Header); err != nil {
			return nil, &ClientError{Kind: ClientDeserialize, Err: err, Parts: &parts}
		}
		if hasBodyField(t) {
			target = v.FieldByName("Body").Addr().Interface()
		}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return nil, &ClientError{Kind: ClientDeserialize, Err: err, Parts: &parts}
	}
	return out, nil
}

// failure interprets a non-success response. A problem body matching a
// declared error by status and problem type becomes ClientOperation;
// everything else, including runtime rejections that share a declared
// status, is ClientUnexpectedStatus.
func (op *Operation[Req, Resp]) failure(ctx context.Context, resp *Response, parts *ResponseParts) error {
	if len(op.errors) == 0 || mediaType(resp.Header.Get("Content-Type")) != contentTypeProblem {
		return &ClientError{Kind: ClientUnexpectedStatus, Status: resp.Status, Parts: parts}
	}

	data, err := resp.Body.Collect(ctx)
	if err != nil {
		return &ClientError{Kind: ClientBody, Err: err, Parts: parts}
	}

	var pd ProblemDetail
	if err := json.Unmarshal(data, &pd); err != nil {
		return &ClientError{Kind: ClientDeserialize, Err: err, Parts: parts}
	}

	if declared := op.matchError(resp.Status, &pd); declared != nil {
		return &ClientError{Kind: ClientOperation, Err: declared, Parts: parts}
	}
	return &ClientError{Kind: ClientUnexpectedStatus, Status: resp.Status, Parts: parts}
}

// matchError picks the declared error for a status and problem type. When
// several share both, the problem detail must match the error text.
func (op *Operation[Req, Resp]) matchError(status int, pd *ProblemDetail) error {
	var candidates []error
	for _, e := range op.errors {
		if ErrorStatus(e) == status && problemType(e) == pd.Type {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 1 {
		return candidates[0]
	}
	for _, e := range candidates {
		if e.Error() == pd.Detail {
			return e
		}
	}
	return nil
}
