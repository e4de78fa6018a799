package httprpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
)

// Responder is implemented by result values (and errors) that build their
// own response: status, content type, and body.
type Responder interface {
	Respond() (*Response, error)
}

// errNilResult is returned when a handler succeeds without a result for an
// operation that has one.
var errNilResult = errors.New("handler returned a nil result")

// respond converts a handler's success value into a response with the
// operation's status. Void becomes an empty response; Responders build
// their own; anything else is JSON with header-tagged fields lifted into
// headers. A nil non-Void result is an error.
func respond[Resp any](resp *Resp, status int) (*Response, error) {
	if reflect.TypeFor[Resp]() == reflect.TypeFor[Void]() {
		return &Response{Status: status, Header: make(http.Header), Body: EmptyBody()}, nil
	}
	if resp == nil {
		return nil, errNilResult
	}

	if r, ok := any(resp).(Responder); ok {
		return r.Respond()
	}

	out := &Response{Status: status, Header: make(http.Header)}

	var payload any = resp
	if t := reflect.TypeFor[Resp](); structType(t) != nil {
		v := reflect.ValueOf(resp).Elem()
		for _, i := range headerFields(t) {
			field := v.Field(i)
			if field.IsZero() {
				continue
			}
			name, _ := tagOptions(t.Field(i).Tag.Get("header"))
			s, err := formatFieldValue(field)
			if err != nil {
				return nil, err
			}
			out.Header.Set(name, s)
		}
		if hasBodyField(t) {
			payload = v.FieldByName("Body").Interface()
		}
	}

	body, err := JSONBody(payload)
	if err != nil {
		return nil, err
	}
	out.Header.Set("Content-Type", contentTypeJSON)
	out.Body = body
	return out, nil
}

// errorResponse converts a dispatch failure into a response. Operation
// errors that are Responders render themselves; otherwise the status comes
// from the error's kind or its StatusCoder, rendered as RFC 9457 problem JSON.
func errorResponse(err error) *Response {
	var se *ServerError
	if errors.As(err, &se) && se.Kind == ServerOperation {
		var r Responder
		if errors.As(se.Err, &r) {
			if resp, rerr := r.Respond(); rerr == nil {
				return resp
			}
		}
	}

	status := http.StatusInternalServerError
	detail := err.Error()
	if se != nil {
		switch se.Kind {
		case ServerInvalidRequest:
			status = http.StatusNotFound
		case ServerDeserialize:
			status = http.StatusBadRequest
		case ServerBody:
			status = http.StatusBadRequest
			var mbe *http.MaxBytesError
			if errors.As(se.Err, &mbe) {
				status = http.StatusRequestEntityTooLarge
			}
		case ServerOperation:
			status = ErrorStatus(se.Err)
			detail = se.Err.Error()
			var sc StatusCoder
			if !errors.As(se.Err, &sc) && errors.Is(se.Err, context.DeadlineExceeded) {
				status = http.StatusGatewayTimeout
			}
		case ServerSerialize:
			status = http.StatusInternalServerError
		}
	}

	// If the error is already a ProblemDetail, use it directly.
	var pd *ProblemDetail
	if errors.As(err, &pd) {
		cp := *pd
		pd = &cp
		if pd.Status == 0 {
			pd.Status = status
		}
	} else {
		pd = newProblem(status, detail)
	}

	// Domain errors with a status are the ones a client can declare.
	if se != nil && se.Kind == ServerOperation {
		var sc StatusCoder
		if errors.As(se.Err, &sc) {
			pd.Type = problemType(se.Err)
		}
	}
	return problemResponse(pd)
}

func newProblem(status int, detail string) *ProblemDetail {
	return &ProblemDetail{
		Type:   problemTypeBlank,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

func problemResponse(pd *ProblemDetail) *Response {
	//nolint:errcheck,errchkjson // ProblemDetail always marshals
	data, _ := json.Marshal(pd)
	h := make(http.Header)
	h.Set("Content-Type", contentTypeProblem)
	return &Response{Status: pd.Status, Header: h, Body: BytesBody(data)}
}

// writeProblem writes a problem response directly. Middleware uses it to
// reject requests before they reach the dispatcher.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	//nolint:errcheck,gosec // the client is gone if this fails
	writeResponse(r.Context(), w, problemResponse(newProblem(status, detail)))
}
