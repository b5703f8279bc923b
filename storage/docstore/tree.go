// Package docstore holds the document store engines and the tree operations they share.
package docstore

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Tree is a decoded JSON object.
type Tree = map[string]interface{}

// SplitPath splits a slash separated path into its keys, ignoring empty segments.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

// JoinPath is the inverse of SplitPath.
func JoinPath(keys ...string) string {
	return strings.Join(SplitPath(strings.Join(keys, "/")), "/")
}

// Normalize turns any JSON encodable value into its generic decoded form
// (Tree, []interface{}, string, float64, bool or nil).
func Normalize(value interface{}) (interface{}, error) {
	var raw []byte
	switch v := value.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		var err error
		if raw, err = json.Marshal(value); err != nil {
			return nil, errors.Wrap(err, "encoding value")
		}
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "decoding value")
	}
	return prune(out), nil
}

// IsEmpty reports whether v holds no data. Empty nodes are never stored.
func IsEmpty(v interface{}) bool {
	switch n := v.(type) {
	case nil:
		return true
	case Tree:
		return len(n) == 0
	case []interface{}:
		return len(n) == 0
	}
	return false
}

// prune drops empty children recursively. Array holes are kept as nil so indexes stay stable.
func prune(v interface{}) interface{} {
	switch n := v.(type) {
	case Tree:
		for k, child := range n {
			child = prune(child)
			if IsEmpty(child) {
				delete(n, k)
			} else {
				n[k] = child
			}
		}
		if len(n) == 0 {
			return nil
		}
		return n
	case []interface{}:
		empty := true
		for i, child := range n {
			n[i] = prune(child)
			if !IsEmpty(n[i]) {
				empty = false
			}
		}
		if empty {
			return nil
		}
		return n
	}
	return v
}

func child(node interface{}, key string) (interface{}, bool) {
	switch n := node.(type) {
	case Tree:
		c, ok := n[key]
		return c, ok && c != nil
	case []interface{}:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(n) || n[i] == nil {
			return nil, false
		}
		return n[i], true
	}
	return nil, false
}

// Lookup returns the node found at keys under root.
func Lookup(root interface{}, keys []string) (interface{}, bool) {
	node := root
	for _, key := range keys {
		var ok bool
		if node, ok = child(node, key); !ok {
			return nil, false
		}
	}
	if IsEmpty(node) {
		return nil, false
	}
	return node, true
}

// Put stores value at keys under root, creating missing intermediate objects,
// and returns the new root. A nil or empty value removes the node.
// Arrays met on the way are converted to objects keyed by index.
func Put(root interface{}, keys []string, value interface{}) interface{} {
	if len(keys) == 0 {
		if IsEmpty(value) {
			return nil
		}
		return value
	}

	node := asTree(root)
	key, rest := keys[0], keys[1:]
	next := Put(node[key], rest, value)
	if IsEmpty(next) {
		delete(node, key)
	} else {
		node[key] = next
	}
	if len(node) == 0 {
		return nil
	}
	return node
}

func asTree(node interface{}) Tree {
	switch n := node.(type) {
	case Tree:
		return n
	case []interface{}:
		t := make(Tree, len(n))
		for i, c := range n {
			if !IsEmpty(c) {
				t[strconv.Itoa(i)] = c
			}
		}
		return t
	}
	return make(Tree)
}
