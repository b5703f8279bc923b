package attendance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mahudhurio/core/roster"
)

func rollNos(students []roster.Student) []string {
	out := make([]string, 0, len(students))
	for _, stu := range students {
		out = append(out, stu.RollNo)
	}
	return out
}

func newResults() *ResultSet {
	return NewResultSet(roster.Roster{
		{ID: "1", RollNo: "A10", Name: "charlie", Status: roster.Present},
		{ID: "2", RollNo: "A2", Name: "Alice", Status: roster.Absent},
		{ID: "3", RollNo: "A1", Name: "bob", Status: roster.Present},
		{ID: "4", RollNo: "B2", Name: "alice", Status: roster.Present},
	})
}

func TestResultSet_SortBy(t *testing.T) {
	rs := newResults()
	tests := []struct {
		name    string
		key     SortKey
		dir     Direction
		want    []string
		wantErr bool
	}{
		{name: "rollNo asc is numeric", key: SortByRollNo, dir: Asc, want: []string{"A1", "A2", "B2", "A10"}},
		{name: "rollNo desc", key: SortByRollNo, dir: Desc, want: []string{"A10", "A2", "B2", "A1"}},
		{name: "name asc is case-insensitive and stable", key: SortByName, dir: Asc, want: []string{"A2", "B2", "A1", "A10"}},
		{name: "name desc", key: SortByName, dir: Desc, want: []string{"A10", "A1", "A2", "B2"}},
		{name: "defaults", want: []string{"A1", "A2", "B2", "A10"}},
		{name: "unknown key", key: "age", wantErr: true},
		{name: "unknown direction", key: SortByName, dir: "up", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rs.SortBy(tt.key, tt.dir)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rollNos(got))
		})
	}

	// sorting never reorders the set itself
	assert.Equal(t, []string{"A10", "A2", "A1", "B2"}, rollNos(rs.Students()))
}

func TestSort_numericRollNo(t *testing.T) {
	students := []roster.Student{{RollNo: "A10"}, {RollNo: "A2"}, {RollNo: "A1"}}
	require.NoError(t, Sort(students, SortByRollNo, Asc))
	assert.Equal(t, []string{"A1", "A2", "A10"}, rollNos(students))

	long := []roster.Student{{RollNo: "123456789012345678902"}, {RollNo: "7"}, {RollNo: "123456789012345678901"}}
	require.NoError(t, Sort(long, SortByRollNo, Asc))
	assert.Equal(t, []string{"7", "123456789012345678901", "123456789012345678902"}, rollNos(long))
}

func TestResultSet_Query(t *testing.T) {
	rs := newResults()
	present, absent := roster.Present, roster.Absent

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{name: "all", q: Query{}, want: []string{"A1", "A2", "B2", "A10"}},
		{name: "search name", q: Query{Search: "ALI"}, want: []string{"A2", "B2"}},
		{name: "search rollNo", q: Query{Search: "a1"}, want: []string{"A1", "A10"}},
		{name: "search trims", q: Query{Search: "  bob "}, want: []string{"A1"}},
		{name: "no match", q: Query{Search: "zed"}, want: []string{}},
		{name: "present", q: Query{Status: &present}, want: []string{"A1", "B2", "A10"}},
		{name: "absent", q: Query{Status: &absent}, want: []string{"A2"}},
		{name: "search + status + sort", q: Query{Search: "li", Status: &present, SortKey: SortByName, Direction: Desc}, want: []string{"A10", "B2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rs.Query(tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rollNos(got))
		})
	}
}

func TestResultSet_ToggleStatus(t *testing.T) {
	rs := newResults()

	t.Run("outside edit mode", func(t *testing.T) {
		stu, toggled, err := rs.ToggleStatus("1", "A10")
		require.NoError(t, err)
		assert.False(t, toggled)
		assert.Equal(t, roster.Present, stu.Status)
		assert.Equal(t, 3, rs.Stats().Present)

		_, toggled, err = rs.ToggleStatus("404", "A404")
		assert.NoError(t, err)
		assert.False(t, toggled)
	})

	require.True(t, rs.SetEditMode(true))
	assert.False(t, rs.SetEditMode(true))

	t.Run("in edit mode", func(t *testing.T) {
		stu, toggled, err := rs.ToggleStatus("1", "A10")
		require.NoError(t, err)
		assert.True(t, toggled)
		assert.Equal(t, roster.Absent, stu.Status)
		assert.Equal(t, Stats{Total: 4, Present: 2, Absent: 2, PresentPercentage: 50}, rs.Stats())

		stu, _, err = rs.ToggleStatus("1", "A10")
		require.NoError(t, err)
		assert.Equal(t, roster.Present, stu.Status)
	})

	t.Run("id and rollNo must both match", func(t *testing.T) {
		_, _, err := rs.ToggleStatus("1", "A2")
		assert.Equal(t, ErrStudentNotFound, err)
	})
}

func TestComputeStats(t *testing.T) {
	mk := func(present, absent int) []roster.Student {
		var students []roster.Student
		for i := 0; i < present; i++ {
			students = append(students, roster.Student{Status: roster.Present})
		}
		for i := 0; i < absent; i++ {
			students = append(students, roster.Student{Status: roster.Absent})
		}
		return students
	}

	assert.Equal(t, Stats{}, ComputeStats(nil))

	for _, c := range [][2]int{{1, 0}, {0, 1}, {1, 2}, {2, 1}, {5, 3}, {33, 67}, {1, 7}} {
		st := ComputeStats(mk(c[0], c[1]))
		assert.Equal(t, st.Total, st.Present+st.Absent)
		assert.Equal(t, int(math.Round(100*float64(st.Present)/float64(st.Total))), st.PresentPercentage)
	}
	assert.Equal(t, 67, ComputeStats(mk(2, 1)).PresentPercentage)
	assert.Equal(t, 33, ComputeStats(mk(1, 2)).PresentPercentage)
}
