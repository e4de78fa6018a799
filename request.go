package httprpc

import (
	"context"
	"encoding"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"
)

// requestCategory describes how a request type maps onto the wire.
type requestCategory int

const (
	catVoid     requestCategory = iota // Void: no params, no body
	catBodyOnly                        // entire value is the body (no param tags, no Body field)
	catParams                          // has param tags but no Body field
	catMixed                           // has Body field (params from tagged fields, body from Body)
)

// classifyRequest determines how a request type should be encoded and decoded.
func classifyRequest(t reflect.Type) requestCategory {
	if t == reflect.TypeFor[Void]() {
		return catVoid
	}
	if hasBodyField(t) {
		return catMixed
	}
	if hasParamTags(t) || hasRawRequest(t) {
		return catParams
	}
	return catBodyOnly
}

// RawRequest can be embedded in a request type to get access to the
// transport-neutral request the arguments were decoded from. Its Body has
// already been consumed when the request declares a payload.
type RawRequest struct {
	Request *Request
}

// decodeRequest creates a new Req value and populates it from the request.
// Binding failures are ServerDeserialize; failures reading the body are
// ServerBody.
func decodeRequest[Req any](ctx context.Context, r *Request, params Params) (*Req, error) {
	req := new(Req)
	cat := classifyRequest(reflect.TypeFor[Req]())

	if cat == catVoid {
		return req, nil
	}

	if cat != catBodyOnly {
		if err := bindParams(req, r, params); err != nil {
			return nil, &ServerError{Kind: ServerDeserialize, Err: err}
		}
	}

	var target any
	switch cat {
	case catBodyOnly:
		target = req
	case catMixed:
		target = reflect.ValueOf(req).Elem().FieldByName("Body").Addr().Interface()
	default:
		return req, nil
	}

	data, err := r.Body.Collect(ctx)
	if err != nil {
		return nil, &ServerError{Kind: ServerBody, Err: err}
	}
	if err := json.Unmarshal(data, target); err != nil {
		return nil, &ServerError{Kind: ServerDeserialize, Err: err}
	}
	return req, nil
}

// bindParams binds path, query, and header values to struct fields.
func bindParams(target any, r *Request, params Params) error {
	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	query := r.Query()

	t := v.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		// Body is decoded separately.
		if f.Name == "Body" {
			continue
		}

		field := v.Field(i)

		if name, _ := tagOptions(f.Tag.Get("path")); name != "" {
			if val, ok := params.Get(name); ok {
				if err := setFieldValue(field, val); err != nil {
					return fmt.Errorf("%w: %s: %w", ErrBindPath, name, err)
				}
			}
		}

		if name, _ := tagOptions(f.Tag.Get("query")); name != "" {
			val := query.Get(name)
			if val == "" {
				val = f.Tag.Get("default")
			}
			if val != "" {
				if err := setFieldValue(field, val); err != nil {
					return fmt.Errorf("%w: %s: %w", ErrBindQuery, name, err)
				}
			}
		}

		if name, _ := tagOptions(f.Tag.Get("header")); name != "" {
			val := r.Header.Get(name)
			if val == "" {
				val = f.Tag.Get("default")
			}
			if val != "" {
				if err := setFieldValue(field, val); err != nil {
					return fmt.Errorf("%w: %s: %w", ErrBindHeader, name, err)
				}
			}
		}

		// Embed RawRequest: inject the transport-neutral request.
		if f.Type == reflect.TypeFor[RawRequest]() {
			field.Set(reflect.ValueOf(RawRequest{Request: r}))
		}
	}

	return nil
}

// bindHeaders sets header-tagged fields of target from h.
func bindHeaders(target reflect.Value, h http.Header) error {
	t := target.Type()
	for _, i := range headerFields(t) {
		name, _ := tagOptions(t.Field(i).Tag.Get("header"))
		val := h.Get(name)
		if val == "" {
			continue
		}
		if err := setFieldValue(target.Field(i), val); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrBindHeader, name, err)
		}
	}
	return nil
}

// setFieldValue sets a reflect.Value from a string. Text unmarshalers and
// scalar kinds are parsed directly; anything else is decoded as JSON.
func setFieldValue(field reflect.Value, value string) error {
	if field.CanAddr() {
		if tu, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
			return tu.UnmarshalText([]byte(value))
		}
	}

	if field.Type() == reflect.TypeFor[time.Duration]() {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(d))
		return nil
	}

	//exhaustive:ignore
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		if !field.CanAddr() {
			return fmt.Errorf("unsupported type: %s", field.Type())
		}
		return json.Unmarshal([]byte(value), field.Addr().Interface())
	}
	return nil
}

// formatFieldValue is the inverse of setFieldValue.
func formatFieldValue(field reflect.Value) (string, error) {
	if tm, ok := field.Interface().(encoding.TextMarshaler); ok {
		b, err := tm.MarshalText()
		return string(b), err
	}

	if d, ok := field.Interface().(time.Duration); ok {
		return d.String(), nil
	}

	//exhaustive:ignore
	switch field.Kind() {
	case reflect.String:
		return field.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(field.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(field.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(field.Float(), 'g', -1, field.Type().Bits()), nil
	case reflect.Bool:
		return strconv.FormatBool(field.Bool()), nil
	default:
		b, err := json.Marshal(field.Interface())
		return string(b), err
	}
}

// encodeRequest builds the wire request for req. Failures are ClientSerialize.
func encodeRequest[Req any](method string, segs []segment, req *Req) (*Request, error) {
	if req == nil {
		req = new(Req)
	}
	cat := classifyRequest(reflect.TypeFor[Req]())
	v := reflect.ValueOf(req).Elem()

	path, err := expandTemplate(segs, func(name string) (string, error) {
		if cat == catVoid || cat == catBodyOnly {
			return "", fmt.Errorf("%w: no field for {%s}", ErrBindPath, name)
		}
		i, ok := findTagged(v.Type(), "path", name)
		if !ok {
			return "", fmt.Errorf("%w: no field for {%s}", ErrBindPath, name)
		}
		val, err := formatFieldValue(v.Field(i))
		if err != nil {
			return "", err
		}
		// An empty segment never resolves to a parameter.
		if val == "" {
			return "", fmt.Errorf("%w: empty value for {%s}", ErrBindPath, name)
		}
		return val, nil
	})
	if err != nil {
		return nil, clientErr(ClientSerialize, err)
	}

	out := &Request{
		Method: method,
		URI:    path,
		Header: make(http.Header),
		Body:   EmptyBody(),
	}

	if cat == catParams || cat == catMixed {
		query := url.Values{}
		t := v.Type()
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() || f.Name == "Body" {
				continue
			}
			field := v.Field(i)

			if name, opts := tagOptions(f.Tag.Get("query")); name != "" {
				if !(tagContains(opts, "omitempty") && field.IsZero()) {
					s, err := formatFieldValue(field)
					if err != nil {
						return nil, clientErr(ClientSerialize, fmt.Errorf("%w: %s: %w", ErrBindQuery, name, err))
					}
					query.Set(name, s)
				}
			}

			if name, opts := tagOptions(f.Tag.Get("header")); name != "" {
				if !(tagContains(opts, "omitempty") && field.IsZero()) {
					s, err := formatFieldValue(field)
					if err != nil {
						return nil, clientErr(ClientSerialize, fmt.Errorf("%w: %s: %w", ErrBindHeader, name, err))
					}
					out.Header.Set(name, s)
				}
			}
		}
		if len(query) > 0 {
			out.URI += "?" + query.Encode()
		}
	}

	var payload any
	switch cat {
	case catBodyOnly:
		payload = req
	case catMixed:
		payload = v.FieldByName("Body").Interface()
	default:
		return out, nil
	}

	body, err := JSONBody(payload)
	if err != nil {
		return nil, clientErr(ClientSerialize, err)
	}
	out.Header.Set("Content-Type", contentTypeJSON)
	out.Body = body
	return out, nil
}
