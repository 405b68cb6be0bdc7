package attributes

import "fmt"

// Walk follows path through nested objects. found is false when a segment is
// absent; an error means the structure cannot be traversed (a scalar or list
// sits where an object is expected).
func Walk(v any, path []string) (out any, found bool, err error) {
	cur := v
	for i, seg := range path {
		obj, ok := cur.(*Object)
		if !ok {
			return nil, false, fmt.Errorf("segment %q (%d): %w", seg, i, ErrMalformed)
		}
		next, ok := obj.Get(seg)
		if !ok {
			return nil, false, nil
		}
		cur = next
	}
	return cur, true, nil
}
