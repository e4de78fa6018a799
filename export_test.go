package httprpc

// Test-only exports for internal functions.
var (
	MediaType     = mediaType
	ErrorResponse = errorResponse
	TagOptions    = tagOptions
	TagContains   = tagContains
	HasBodyField  = hasBodyField
	HasParamTags  = hasParamTags
)

// NodeCount reports how many trie nodes the router holds for method.
func NodeCount(r *Router, method string) int {
	return r.roots[method].count()
}

func (n *node) count() int {
	if n == nil {
		return 0
	}
	total := 1 + n.param.count()
	for _, child := range n.literals {
		total += child.count()
	}
	return total
}
