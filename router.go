package httprpc

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// OperationID identifies a registered route. IDs are assigned in
// registration order starting at zero.
type OperationID int

// Param is a single captured path parameter.
type Param struct {
	Name  string
	Value string
}

// Params holds captured path parameters in template order.
type Params []Param

// Get returns the value captured for name.
func (p Params) Get(name string) (string, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return "", false
}

// Router maps (method, path) to an OperationID. Routes are added with
// Register during setup; after that the Router is read-only and safe for
// concurrent Resolve calls.
type Router struct {
	roots map[string]*node
	next  OperationID
}

// node is one segment position in a method's trie. Literal children take
// precedence over the single parameter child.
type node struct {
	literals  map[string]*node
	param     *node
	paramName string

	terminal bool
	id       OperationID
	template string
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{roots: make(map[string]*node)}
}

// Register adds a route and returns its OperationID. It fails with a
// *RouteConflictError when the template is malformed, duplicates an existing
// route, or names its parameter differently from an overlapping route.
func (r *Router) Register(method, template string) (OperationID, error) {
	if method == "" {
		return 0, &RouteConflictError{Method: method, Template: template, Reason: "empty method"}
	}

	segs, err := parseTemplate(template)
	if err != nil {
		return 0, &RouteConflictError{Method: method, Template: template, Reason: err.Error()}
	}

	if reason := r.conflict(method, segs); reason != "" {
		return 0, &RouteConflictError{Method: method, Template: template, Reason: reason}
	}

	n, ok := r.roots[method]
	if !ok {
		n = &node{}
		r.roots[method] = n
	}

	for _, seg := range segs {
		if !seg.param {
			child, ok := n.literals[seg.value]
			if !ok {
				if n.literals == nil {
					n.literals = make(map[string]*node)
				}
				child = &node{}
				n.literals[seg.value] = child
			}
			n = child
			continue
		}

		if n.param == nil {
			n.param = &node{}
			n.paramName = seg.value
		}
		n = n.param
	}

	n.terminal = true
	n.id = r.next
	n.template = template
	r.next++
	return n.id, nil
}

// conflict walks the existing trie along segs without modifying it and
// describes the first collision, or returns "".
func (r *Router) conflict(method string, segs []segment) string {
	n := r.roots[method]
	for _, seg := range segs {
		if n == nil {
			return ""
		}
		if !seg.param {
			n = n.literals[seg.value]
			continue
		}
		if n.param != nil && n.paramName != seg.value {
			return fmt.Sprintf("parameter {%s} overlaps {%s} at the same position", seg.value, n.paramName)
		}
		n = n.param
	}
	if n != nil && n.terminal {
		return "already registered as " + n.template
	}
	return ""
}

// Resolve finds the route for method and the escaped path. Captured values
// are URL-decoded. It returns ErrNotFound when nothing matches.
func (r *Router) Resolve(method, path string) (OperationID, Params, error) {
	root, ok := r.roots[method]
	if !ok || !strings.HasPrefix(path, "/") {
		return 0, nil, ErrNotFound
	}

	var segs []string
	if path != "/" {
		segs = strings.Split(path[1:], "/")
	}

	n, params, ok := root.match(segs, nil)
	if !ok {
		return 0, nil, ErrNotFound
	}
	return n.id, params, nil
}

func (n *node) match(segs []string, params Params) (*node, Params, bool) {
	if len(segs) == 0 {
		return n, params, n.terminal
	}

	seg, err := url.PathUnescape(segs[0])
	if err != nil {
		return nil, nil, false
	}

	if child, ok := n.literals[seg]; ok {
		if found, p, ok := child.match(segs[1:], params); ok {
			return found, p, true
		}
	}

	if n.param != nil && seg != "" {
		captured := append(params[:len(params):len(params)], Param{Name: n.paramName, Value: seg})
		if found, p, ok := n.param.match(segs[1:], captured); ok {
			return found, p, true
		}
	}

	return nil, nil, false
}

// segment is one parsed piece of a path template.
type segment struct {
	value string
	param bool
}

// parseTemplate splits "/pets/{id}" into literal and parameter segments.
func parseTemplate(template string) ([]segment, error) {
	if !strings.HasPrefix(template, "/") {
		return nil, errors.New("template must start with '/'")
	}
	if template == "/" {
		return nil, nil
	}

	parts := strings.Split(template[1:], "/")
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]bool)

	for _, part := range parts {
		if part == "" {
			return nil, errors.New("empty segment")
		}

		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			name := part[1 : len(part)-1]
			if !validParamName(name) {
				return nil, fmt.Errorf("invalid parameter name %q", name)
			}
			if seen[name] {
				return nil, fmt.Errorf("duplicate parameter {%s}", name)
			}
			seen[name] = true
			segs = append(segs, segment{value: name, param: true})
			continue
		}

		if strings.ContainsAny(part, "{}") {
			return nil, fmt.Errorf("malformed segment %q", part)
		}
		segs = append(segs, segment{value: part})
	}

	return segs, nil
}

func validParamName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// expandTemplate substitutes parameter segments with escaped values.
func expandTemplate(segs []segment, value func(name string) (string, error)) (string, error) {
	if len(segs) == 0 {
		return "/", nil
	}
	var b strings.Builder
	for _, seg := range segs {
		b.WriteByte('/')
		if !seg.param {
			b.WriteString(seg.value)
			continue
		}
		v, err := value(seg.value)
		if err != nil {
			return "", err
		}
		b.WriteString(url.PathEscape(v))
	}
	return b.String(), nil
}
