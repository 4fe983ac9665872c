package repository

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPatch is returned for a patch path that cannot be applied.
var ErrInvalidPatch = errors.New("invalid patch")

// ApplyPatch merges patch into doc. A plain key replaces the top-level value;
// a dotted key ("innings1.score") walks nested objects and replaces only the
// leaf, creating intermediate objects that do not exist yet.
func ApplyPatch(doc map[string]interface{}, patch map[string]interface{}) error {
	for key, value := range patch {
		parts := strings.Split(key, ".")
		for _, p := range parts {
			if p == "" {
				return fmt.Errorf("%w: empty segment in %q", ErrInvalidPatch, key)
			}
		}

		node := doc
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p]
			if !ok || child == nil {
				next := map[string]interface{}{}
				node[p] = next
				node = next
				continue
			}
			obj, ok := child.(map[string]interface{})
			if !ok {
				return fmt.Errorf("%w: %q is not an object", ErrInvalidPatch, p)
			}
			node = obj
		}
		node[parts[len(parts)-1]] = value
	}
	return nil
}
