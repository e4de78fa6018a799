package httprpc

import (
	"reflect"
	"strings"
)

// paramTags are the struct tags used for binding request parameters.
var paramTags = []string{"path", "query", "header"}

// hasParamTags reports whether the given type has any fields with
// parameter binding tags (path, query, header).
func hasParamTags(t reflect.Type) bool {
	t = structType(t)
	if t == nil {
		return false
	}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		for _, tag := range paramTags {
			if f.Tag.Get(tag) != "" {
				return true
			}
		}
	}
	return false
}

// hasRawRequest reports whether the given type embeds a RawRequest field.
func hasRawRequest(t reflect.Type) bool {
	t = structType(t)
	if t == nil {
		return false
	}
	for i := range t.NumField() {
		if t.Field(i).Type == reflect.TypeFor[RawRequest]() {
			return true
		}
	}
	return false
}

// hasBodyField reports whether the given type has an exported "Body" field.
func hasBodyField(t reflect.Type) bool {
	t = structType(t)
	if t == nil {
		return false
	}
	f, ok := t.FieldByName("Body")
	return ok && f.IsExported()
}

// headerFields returns the indexes of fields tagged with "header".
func headerFields(t reflect.Type) []int {
	t = structType(t)
	if t == nil {
		return nil
	}
	var idx []int
	for i := range t.NumField() {
		f := t.Field(i)
		if f.IsExported() && f.Tag.Get("header") != "" {
			idx = append(idx, i)
		}
	}
	return idx
}

// findTagged returns the index of the field whose tag key has the given name.
func findTagged(t reflect.Type, key, name string) (int, bool) {
	t = structType(t)
	if t == nil {
		return 0, false
	}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if tagName, _ := tagOptions(f.Tag.Get(key)); tagName == name {
			return i, true
		}
	}
	return 0, false
}

func structType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

// tagOptions splits a struct tag value on comma and returns
// the name and remaining options.
func tagOptions(tag string) (string, string) {
	name, opts, _ := strings.Cut(tag, ",")
	return name, opts
}

// tagContains reports whether a comma-separated list of options
// contains a particular option.
func tagContains(opts string, name string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == name {
			return true
		}
	}
	return false
}
