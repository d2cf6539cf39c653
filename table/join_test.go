// Public domain.

package table_test

import (
	"math"
	"testing"

	"github.com/soniakeys/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagasurvey/saga/table"
)

func coordTable(t *testing.T, ra, dec []float64, extra ...*table.Column) *table.Table {
	cols := append([]*table.Column{
		table.NewFloats("RA", ra),
		table.NewFloats("DEC", dec),
	}, extra...)
	tb, err := table.New(cols...)
	require.NoError(t, err)
	return tb
}

func TestJoinIdenticalZeroTolerance(t *testing.T) {
	ra := []float64{10, 120.5, 359.25, 200}
	dec := []float64{-5, 30, 0, 89.5}
	base := coordTable(t, ra, dec)
	w1 := []float64{15.1, 16.2, 17.3, 18.4}
	other := coordTable(t, ra, dec,
		table.NewFloats("W1", w1),
		table.NewStrings("NAME", []string{"a", "b", "c", "d"}),
	)
	opt := table.JoinOptions{Columns: []string{"W1", "NAME"}}
	joined, n, err := table.JoinByCoordinates(base, other, opt)
	require.NoError(t, err)
	assert.Equal(t, base.Len(), n)
	assert.Equal(t, w1, joined.Col("W1").Floats)
	assert.Equal(t, []string{"a", "b", "c", "d"}, joined.Col("NAME").Strings)
	// base is a separate value
	assert.False(t, base.Has("W1"))
}

func TestJoinDisjoint(t *testing.T) {
	base := coordTable(t, []float64{10, 20}, []float64{0, 0},
		table.NewInts("ID", []int64{1, 2}))
	other := coordTable(t, []float64{100, 200}, []float64{10, 10},
		table.NewFloats("W1", []float64{1, 2}),
		table.NewInts("FLAG", []int64{3, 4}),
		table.NewStrings("NAME", []string{"x", "y"}),
	)
	opt := table.DefaultJoinOptions()
	opt.Columns = []string{"W1", "FLAG", "NAME"}
	opt.Missing = map[string]interface{}{"W1": -99.}
	joined, n, err := table.JoinByCoordinates(base, other, opt)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, []float64{10, 20}, joined.Col("RA").Floats)
	assert.Equal(t, []int64{1, 2}, joined.Col("ID").Ints)
	assert.Equal(t, []float64{-99, -99}, joined.Col("W1").Floats)
	flag := joined.Col("FLAG")
	assert.Equal(t, table.Float, flag.Kind, "int with NaN fill is promoted")
	assert.True(t, math.IsNaN(flag.Floats[0]) && math.IsNaN(flag.Floats[1]))
	assert.Equal(t, []string{"", ""}, joined.Col("NAME").Strings)
}

func TestJoinNoColumns(t *testing.T) {
	base := coordTable(t, []float64{10, 20}, []float64{0, 0})
	other := coordTable(t, []float64{10, 20.0001}, []float64{0, 0},
		table.NewFloats("W1", []float64{1, 2}))
	opt := table.DefaultJoinOptions()
	opt.Columns = []string{}
	joined, n, err := table.JoinByCoordinates(base, other, opt)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, base.Names(), joined.Names())
}

func TestJoinLastMatchWins(t *testing.T) {
	base := coordTable(t, []float64{10, 50}, []float64{0, 0},
		table.NewFloats("W1", []float64{-1, -1}))
	// two catalog rows within tolerance of the first base row
	other := coordTable(t,
		[]float64{10.0001, 9.9999, 80},
		[]float64{0, 0, 0},
		table.NewFloats("W1_MAG", []float64{11, 12, 13}),
	)
	opt := table.JoinOptions{
		Columns:   []string{"W1_MAG"},
		Rename:    map[string]string{"W1_MAG": "W1"},
		Tolerance: unit.AngleFromSec(2),
	}
	joined, n, err := table.JoinByCoordinates(base, other, opt)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float64{12, -1}, joined.Col("W1").Floats)
}

func TestJoinAllColumnsAndNames(t *testing.T) {
	base, err := table.New(
		table.NewFloats("ra", []float64{10}),
		table.NewFloats("dec", []float64{0}),
	)
	require.NoError(t, err)
	other := coordTable(t, []float64{10}, []float64{0},
		table.NewInts("OBJID", []int64{42}))
	opt := table.JoinOptions{RA: "ra", DEC: "dec"}
	joined, n, err := table.JoinByCoordinates(base, other, opt)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"ra", "dec", "RA", "DEC", "OBJID"}, joined.Names())
	assert.Equal(t, []float64{42}, joined.Col("OBJID").Floats)

	_, _, err = table.JoinByCoordinates(other, base, table.JoinOptions{})
	assert.Error(t, err, "other lacks RA/DEC")

	opt.Columns = []string{"MISSING"}
	_, _, err = table.JoinByCoordinates(base, other, opt)
	assert.Error(t, err)
}

func TestFillValuesByQuery(t *testing.T) {
	tb := sample(t)
	q := table.Cmp("SPECOBJID", table.Eq, "c")
	out, n, err := table.FillValuesByQuery(tb, q, map[string]interface{}{
		"SPEC_Z":   .21068,
		"ZQUALITY": 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, .21068, out.Col("SPEC_Z").Floats[2])
	assert.Equal(t, []int64{4, 3, 4, 1}, out.Col("ZQUALITY").Ints)
	assert.True(t, math.IsNaN(tb.Col("SPEC_Z").Floats[2]), "input unchanged")

	none, n, err := table.FillValuesByQuery(tb, table.Cmp("ZQUALITY", table.Gt, 100),
		map[string]interface{}{"SPEC_Z": 1.})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Same(t, tb, none)

	_, _, err = table.FillValuesByQuery(tb, q, map[string]interface{}{"NOPE": 1})
	assert.Error(t, err)
}
