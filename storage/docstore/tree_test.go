package docstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"", []string{}},
		{"/", []string{}},
		{"students", []string{"students"}},
		{"/students//CS101/", []string{"students", "CS101"}},
		{"attendance/CS101/2021-03-01", []string{"attendance", "CS101", "2021-03-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitPath(tt.path))
		})
	}
	assert.Equal(t, "a/b/c", JoinPath("a/", "/b", "c"))
}

func TestNormalize(t *testing.T) {
	type doc struct {
		Name  string            `json:"name"`
		Empty map[string]string `json:"empty"`
		Tags  []string          `json:"tags"`
	}
	got, err := Normalize(doc{Name: "x", Empty: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, Tree{"name": "x"}, got)

	got, err = Normalize(json.RawMessage(`{"a":{"b":{}},"n":1}`))
	require.NoError(t, err)
	assert.Equal(t, Tree{"n": 1.0}, got)

	got, err = Normalize([]byte(`[null, {"id": "1"}]`))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{nil, Tree{"id": "1"}}, got)

	_, err = Normalize(func() {})
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	root, err := Normalize(json.RawMessage(`{"students": {"CS101": [null, {"id": "1"}, {"id": "2"}]}}`))
	require.NoError(t, err)

	tests := []struct {
		name   string
		keys   []string
		want   interface{}
		wantOk bool
	}{
		{name: "root", keys: nil, want: root, wantOk: true},
		{name: "object", keys: []string{"students", "CS101", "2", "id"}, want: "2", wantOk: true},
		{name: "array hole", keys: []string{"students", "CS101", "0"}},
		{name: "array out of range", keys: []string{"students", "CS101", "3"}},
		{name: "not an index", keys: []string{"students", "CS101", "x"}},
		{name: "missing", keys: []string{"teachers"}},
		{name: "below a leaf", keys: []string{"students", "CS101", "1", "id", "more"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(root, tt.keys)
			assert.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPut(t *testing.T) {
	var root interface{}

	root = Put(root, []string{"attendance", "CS101", "2021-03-01"}, Tree{"1": "present"})
	root = Put(root, []string{"attendance", "CS101", "2021-03-02"}, Tree{"1": "absent"})
	assert.Equal(t, Tree{"attendance": Tree{"CS101": Tree{
		"2021-03-01": Tree{"1": "present"},
		"2021-03-02": Tree{"1": "absent"},
	}}}, root)

	// removing the last child prunes its parents
	root = Put(root, []string{"attendance", "CS101", "2021-03-01"}, nil)
	root = Put(root, []string{"attendance", "CS101", "2021-03-02"}, Tree{})
	assert.Nil(t, root)

	// arrays become objects keyed by index
	arr, err := Normalize([]interface{}{map[string]interface{}{"id": "a"}, nil, map[string]interface{}{"id": "c"}})
	require.NoError(t, err)
	root = Put(nil, []string{"students", "X"}, arr)
	root = Put(root, []string{"students", "X", "1"}, Tree{"id": "b"})
	assert.Equal(t, Tree{"students": Tree{"X": Tree{
		"0": Tree{"id": "a"},
		"1": Tree{"id": "b"},
		"2": Tree{"id": "c"},
	}}}, root)

	// a leaf is replaced by an object when writing below it
	root = Put(Tree{"k": "v"}, []string{"k", "sub"}, "x")
	assert.Equal(t, Tree{"k": Tree{"sub": "x"}}, root)
}
