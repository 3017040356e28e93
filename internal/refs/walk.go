package refs

import (
	"strconv"

	"github.com/go-openapi/jsonpointer"
	"github.com/iancoleman/orderedmap"
)

// Visitor is called for every object member, depth first and parent before
// children. ptr is the JSON pointer of the member. When replace is true the
// member's value becomes replacement and the walk does not descend into it.
type Visitor func(ptr, key string, value any) (replacement any, replace bool)

// Walk visits every object member reachable from doc. Objects may be plain
// maps or orderedmap values; arrays must be []any.
func Walk(doc any, visit Visitor) {
	walk(doc, "", visit)
}

func walk(node any, ptr string, visit Visitor) {
	switch n := node.(type) {
	case *orderedmap.OrderedMap:
		walkOrdered(n, ptr, visit)
	case orderedmap.OrderedMap:
		// Copies share the underlying value map, so Set on an existing key
		// is visible to the parent.
		walkOrdered(&n, ptr, visit)
	case map[string]any:
		for key, value := range n {
			p := member(ptr, key)
			if replacement, ok := visit(p, key, value); ok {
				n[key] = replacement
				continue
			}
			walk(value, p, visit)
		}
	case []any:
		for i, item := range n {
			walk(item, ptr+"/"+strconv.Itoa(i), visit)
		}
	}
}

func walkOrdered(obj *orderedmap.OrderedMap, ptr string, visit Visitor) {
	for _, key := range obj.Keys() {
		value, _ := obj.Get(key)
		p := member(ptr, key)
		if replacement, ok := visit(p, key, value); ok {
			obj.Set(key, replacement)
			continue
		}
		walk(value, p, visit)
	}
}

func member(ptr, key string) string {
	return ptr + "/" + jsonpointer.Escape(key)
}
