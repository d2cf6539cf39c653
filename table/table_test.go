// Public domain.

package table_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagasurvey/saga/table"
)

func sample(t *testing.T) *table.Table {
	tb, err := table.New(
		table.NewStrings("SPECOBJID", []string{"a", "0", "c", "d"}),
		table.NewFloats("SPEC_Z", []float64{.01, .02, math.NaN(), .04}),
		table.NewInts("ZQUALITY", []int64{4, 3, -1, 1}),
		table.NewBools("HELIO_CORR", []bool{true, false, true, false}),
	)
	require.NoError(t, err)
	return tb
}

func TestNew(t *testing.T) {
	_, err := table.New(
		table.NewFloats("A", []float64{1, 2}),
		table.NewFloats("B", []float64{1}))
	assert.Error(t, err, "length mismatch")

	_, err = table.New(
		table.NewFloats("A", []float64{1}),
		table.NewInts("A", []int64{1}))
	assert.Error(t, err, "duplicate name")

	tb := sample(t)
	assert.Equal(t, 4, tb.Len())
	assert.Equal(t, []string{"SPECOBJID", "SPEC_Z", "ZQUALITY", "HELIO_CORR"}, tb.Names())
	assert.Nil(t, tb.Col("nope"))
	assert.Equal(t, 4, tb.NumCols())
}

func TestRenameRemoveSet(t *testing.T) {
	tb := sample(t)
	require.NoError(t, tb.Rename("SPEC_Z", "Z"))
	assert.True(t, tb.Has("Z"))
	assert.False(t, tb.Has("SPEC_Z"))
	assert.Error(t, tb.Rename("Z", "ZQUALITY"))
	assert.Error(t, tb.Rename("missing", "x"))

	tb.Remove("Z")
	assert.Equal(t, []string{"SPECOBJID", "ZQUALITY", "HELIO_CORR"}, tb.Names())
	tb.Remove("Z") // no-op

	require.NoError(t, tb.Set(table.NewInts("ZQUALITY", []int64{0, 0, 0, 0})))
	assert.Equal(t, []string{"SPECOBJID", "ZQUALITY", "HELIO_CORR"}, tb.Names())
	assert.Equal(t, []int64{0, 0, 0, 0}, tb.Col("ZQUALITY").Ints)
	assert.Error(t, tb.Set(table.NewInts("ZQUALITY", []int64{0})))
}

func TestConvert(t *testing.T) {
	c := table.NewStrings("X", []string{"1", " 2.5 ", "nan"})
	f, err := c.Convert(table.Float)
	require.NoError(t, err)
	assert.Equal(t, 1., f.Floats[0])
	assert.Equal(t, 2.5, f.Floats[1])
	assert.True(t, math.IsNaN(f.Floats[2]))

	_, err = c.Convert(table.Int)
	assert.Error(t, err, "NaN has no integer value")

	for _, x := range []float64{1e19, -1e19, 1 << 63, math.Inf(1)} {
		_, err = table.NewFloats("X", []float64{x}).Convert(table.Int)
		assert.Error(t, err, "%g is out of int64 range", x)
	}
	edge, err := table.NewFloats("X", []float64{-1 << 63, 12.7}).Convert(table.Int)
	require.NoError(t, err)
	assert.Equal(t, []int64{math.MinInt64, 12}, edge.Ints)
	_, err = table.NewStrings("X", []string{"1e30"}).Convert(table.Int)
	assert.Error(t, err)

	i, err := table.NewInts("ID", []int64{7, 0}).Convert(table.String)
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "0"}, i.Strings)

	b, err := table.NewStrings("B", []string{"True", "false"}).Convert(table.Bool)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, b.Bools)

	_, err = table.NewStrings("B", []string{"maybe"}).Convert(table.Bool)
	assert.Error(t, err)
}

func TestFilled(t *testing.T) {
	c, err := table.Filled("Z", table.Float, 3, 99)
	require.NoError(t, err)
	assert.Equal(t, []float64{99, 99, 99}, c.Floats)
	_, err = table.Filled("Z", table.Float, 3, []int{1})
	assert.Error(t, err)
}

func TestVStack(t *testing.T) {
	a := sample(t)
	b := sample(t)
	s, err := table.VStack(a, b)
	require.NoError(t, err)
	assert.Equal(t, 8, s.Len())
	assert.Equal(t, "d", s.Col("SPECOBJID").Strings[7])
	assert.Equal(t, 4, a.Len(), "inputs unchanged")

	b.Remove("HELIO_CORR")
	_, err = table.VStack(a, b)
	assert.Error(t, err)

	c := sample(t)
	zq, err := c.Col("ZQUALITY").Convert(table.Float)
	require.NoError(t, err)
	require.NoError(t, c.Set(zq))
	_, err = table.VStack(a, c)
	assert.Error(t, err, "kinds must match exactly")

	_, err = table.VStack()
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	tb := sample(t)
	for _, c := range []struct {
		q    table.Query
		want []bool
	}{
		{table.Cmp("ZQUALITY", table.Ge, 3), []bool{true, true, false, false}},
		{table.Cmp("ZQUALITY", table.Lt, "0"), []bool{false, false, true, false}},
		{table.Cmp("SPECOBJID", table.Ne, "0"), []bool{true, false, true, true}},
		{table.Cmp("SPEC_Z", table.Gt, 0), []bool{true, true, false, true}},
		{table.Cmp("SPEC_Z", table.Ne, 1), []bool{true, true, true, true}},
		{table.Cmp("HELIO_CORR", table.Eq, true), []bool{true, false, true, false}},
		{table.And(), []bool{true, true, true, true}},
		{table.Or(), []bool{false, false, false, false}},
		{table.And(
			table.Cmp("ZQUALITY", table.Ge, 0),
			table.Func("SPECOBJID", func(v interface{}) bool { return v != "0" }),
		), []bool{true, false, false, true}},
		{table.Or(
			table.Cmp("ZQUALITY", table.Eq, 4),
			table.Cmp("ZQUALITY", table.Eq, 1),
		), []bool{true, false, false, true}},
		{table.Not(table.Cmp("HELIO_CORR", table.Eq, true)), []bool{false, true, false, true}},
	} {
		m, err := c.q.Mask(tb)
		require.NoError(t, err)
		assert.Equal(t, c.want, m, fmt.Sprint(c.q))
	}

	_, err := table.Cmp("nope", table.Eq, 1).Mask(tb)
	assert.Error(t, err)
	_, err = table.Cmp("HELIO_CORR", table.Lt, true).Mask(tb)
	assert.Error(t, err)

	f, err := table.Filter(tb, table.Cmp("ZQUALITY", table.Ge, 3))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "0"}, f.Col("SPECOBJID").Strings)

	n, err := table.Count(tb, table.Cmp("ZQUALITY", table.Ge, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestParseCmp(t *testing.T) {
	tb := sample(t)
	for _, c := range []struct {
		s    string
		want []bool
	}{
		{"ZQUALITY >= 3", []bool{true, true, false, false}},
		{"ZQUALITY<=1", []bool{false, false, true, true}},
		{`SPECOBJID == "c"`, []bool{false, false, true, false}},
		{"SPECOBJID != '0'", []bool{true, false, true, true}},
		{"ZQUALITY > 3", []bool{true, false, false, false}},
	} {
		q, err := table.ParseCmp(c.s)
		require.NoError(t, err, c.s)
		m, err := q.Mask(tb)
		require.NoError(t, err, c.s)
		assert.Equal(t, c.want, m, c.s)
	}
	for _, s := range []string{"ZQUALITY", "== 3", "ZQUALITY >="} {
		_, err := table.ParseCmp(s)
		assert.Error(t, err, s)
	}
}

func ExampleTable_Names() {
	tb, _ := table.New(
		table.NewFloats("RA", []float64{10.5}),
		table.NewFloats("DEC", []float64{-3}),
	)
	fmt.Println(tb.Names(), tb.Len())
	// Output:
	// [RA DEC] 1
}
