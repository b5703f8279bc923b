package roster_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core/roster"
	"github.com/trezcool/mahudhurio/tests"
)

func ids(r roster.Roster) []string {
	out := make([]string, 0, len(r))
	for _, stu := range r {
		out = append(out, stu.ID)
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantIDs []string
		wantErr bool
	}{
		{name: "empty", data: ``, wantIDs: []string{}},
		{name: "null", data: `null`, wantIDs: []string{}},
		{name: "array keeps order", data: `[{"id":"b","rollNo":"2"},{"id":"a","rollNo":"1"}]`, wantIDs: []string{"b", "a"}},
		{name: "array skips holes", data: `[null,{"id":"a"},null,{"id":"c"}]`, wantIDs: []string{"a", "c"}},
		{
			name:    "map by serialNo then id",
			data:    `{"x":{"id":"x","serialNo":2},"y":{"id":"y","serialNo":1},"a":{"id":"a","serialNo":2}}`,
			wantIDs: []string{"y", "a", "x"},
		},
		{name: "serialNo as string", data: `{"x":{"id":"x","serialNo":"10"},"y":{"id":"y","serialNo":"9"}}`, wantIDs: []string{"y", "x"}},
		{name: "id falls back to rollNo", data: `[{"rollNo":"42","name":"N"}]`, wantIDs: []string{"42"}},
		{name: "no id nor rollNo dropped", data: `[{"name":"ghost"},{"id":"a"}]`, wantIDs: []string{"a"}},
		{name: "numeric ids", data: `[{"id":7,"rollNo":7}]`, wantIDs: []string{"7"}},
		{name: "array skips non objects", data: `[{"id":"a","rollNo":"1"},"junk",42,{"id":"b","rollNo":"2"}]`, wantIDs: []string{"a", "b"}},
		{name: "map skips non objects", data: `{"a":{"id":"a","serialNo":2},"x":true,"b":{"id":"b","serialNo":1},"y":"junk"}`, wantIDs: []string{"b", "a"}},
		{name: "scalar payload", data: `"lol"`, wantErr: true},
		{name: "broken json", data: `[{"id":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := roster.Normalize(json.RawMessage(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids(r))
		})
	}
}

func TestNormalize_resetsStatus(t *testing.T) {
	r, err := roster.Normalize(json.RawMessage(`[{"id":"a","rollNo":"1","name":"A","status":"present","extra":true}]`))
	require.NoError(t, err)
	require.Len(t, r, 1)
	assert.Equal(t, roster.Student{ID: "a", RollNo: "1", Name: "A", Status: roster.Undecided}, r[0])
}

func TestFilter(t *testing.T) {
	r := roster.Roster{
		{ID: "a", RollNo: "CS-10", SerialNo: 1},
		{ID: "b", RollNo: "CS-2", SerialNo: 2},
		{ID: "c", RollNo: "CS-30", SerialNo: 3},
		{ID: "d", RollNo: "none", SerialNo: 4},
	}
	tests := []struct {
		name    string
		sel     roster.Selection
		wantIDs []string
	}{
		{name: "no range", sel: roster.Selection{Mode: roster.ModeFull}, wantIDs: []string{"a", "b", "c", "d"}},
		{name: "no range (custom)", sel: roster.Selection{Mode: roster.ModeCustom}, wantIDs: []string{"a", "b", "c", "d"}},
		{name: "serial range", sel: roster.Selection{Mode: roster.ModeFull, Range: &roster.Range{Start: 2, End: 3}}, wantIDs: []string{"b", "c"}},
		{name: "roll number range", sel: roster.Selection{Mode: roster.ModeCustom, Range: &roster.Range{Start: 2, End: 10}}, wantIDs: []string{"a", "b"}},
		{name: "zero range is no range", sel: roster.Selection{Mode: roster.ModeCustom, Range: &roster.Range{Start: 0, End: 0}}, wantIDs: []string{"a", "b", "c", "d"}},
		{name: "zero start is no range", sel: roster.Selection{Mode: roster.ModeFull, Range: &roster.Range{Start: 0, End: 2}}, wantIDs: []string{"a", "b", "c", "d"}},
		{name: "empty range", sel: roster.Selection{Mode: roster.ModeFull, Range: &roster.Range{Start: 10, End: 20}}, wantIDs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantIDs, ids(roster.Filter(r, tt.sel)))
		})
	}
}

func TestNumericRollNo(t *testing.T) {
	tests := []struct {
		rollNo string
		want   int
	}{
		{"12", 12},
		{"CS-012", 12},
		{"2021A7PS001", 20217001},
		{"", 0},
		{"abc", 0},
		{"99999999999999999999999", int(^uint(0) >> 1)},
	}
	for _, tt := range tests {
		t.Run(tt.rollNo, func(t *testing.T) {
			assert.Equal(t, tt.want, roster.NumericRollNo(tt.rollNo))
		})
	}
}

func TestCompareRollNo(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},
		{"CS-010", "10", 0},
		{"abc", "0", 0},
		{"12345678901234567890", "9", 1},
		{"12345678901234567890", "12345678901234567891", -1},
		{"99999999999999999999", "099999999999999999999", 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, roster.CompareRollNo(tt.a, tt.b))
			assert.Equal(t, -tt.want, roster.CompareRollNo(tt.b, tt.a))
		})
	}
}

type failingReader struct{}

func (failingReader) Get(context.Context, string) (json.RawMessage, error) {
	return nil, errors.New("connection refused")
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	logger := new(testutil.Logger)
	loader := roster.NewLoader(store, logger)

	testutil.SeedClass(t, store, "CS101", testutil.Students(5))
	testutil.SeedClass(t, store, "BROKEN", "not a roster")

	t.Run("full class", func(t *testing.T) {
		r := loader.Load(ctx, roster.Selection{ClassID: "CS101", Mode: roster.ModeFull})
		assert.Equal(t, []string{"s1", "s2", "s3", "s4", "s5"}, ids(r))
		for _, stu := range r {
			assert.Equal(t, roster.Undecided, stu.Status)
		}
	})
	t.Run("range", func(t *testing.T) {
		r := loader.Load(ctx, roster.Selection{ClassID: "CS101", Mode: roster.ModeCustom, Range: &roster.Range{Start: 2, End: 3}})
		assert.Equal(t, []string{"s2", "s3"}, ids(r))
	})
	t.Run("unknown class", func(t *testing.T) {
		r := loader.Load(ctx, roster.Selection{ClassID: "NOPE"})
		assert.Empty(t, r)
		assert.True(t, logger.Logged("INFO", "NOPE"))
	})
	t.Run("undecodable payload", func(t *testing.T) {
		r := loader.Load(ctx, roster.Selection{ClassID: "BROKEN"})
		assert.Empty(t, r)
		assert.True(t, logger.Logged("ERROR", "BROKEN"))
	})
	t.Run("bad students are skipped", func(t *testing.T) {
		testutil.SeedClass(t, store, "MIXED", []interface{}{
			map[string]interface{}{"id": "a", "rollNo": "1"},
			"junk",
			map[string]interface{}{"id": "b", "rollNo": "2"},
		})
		r := loader.Load(ctx, roster.Selection{ClassID: "MIXED"})
		assert.Equal(t, []string{"a", "b"}, ids(r))
		assert.True(t, logger.Logged("WARN", "MIXED"))
	})
	t.Run("store failure", func(t *testing.T) {
		l := roster.NewLoader(failingReader{}, logger)
		r := l.Load(ctx, roster.Selection{ClassID: "CS101"})
		assert.NotNil(t, r)
		assert.Empty(t, r)
		assert.True(t, logger.Logged("ERROR", "connection refused"))
	})
}

func TestLoader_Classes(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	loader := roster.NewLoader(store, new(testutil.Logger))

	classes, err := loader.Classes(ctx)
	require.NoError(t, err)
	assert.Empty(t, classes)

	testutil.SeedClass(t, store, "MATH", testutil.Students(2))
	testutil.SeedClass(t, store, "CS101", testutil.Students(3))

	classes, err = loader.Classes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []roster.ClassSummary{{ID: "CS101", Students: 3}, {ID: "MATH", Students: 2}}, classes)

	total, err := loader.CountStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
}
