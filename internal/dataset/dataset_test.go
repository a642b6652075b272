package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `name, y, x1, x2
# comment lines are skipped
a, 1.5, 1, 10
b, 2.5, 2, 20
c, 3.5, 3, 31
`

func TestRead(t *testing.T) {
	tbl, err := Read(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"name", "y", "x1", "x2"}, tbl.Header())

	y, err := tbl.Column("y")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, y)

	labels, err := tbl.Labels("name")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, labels)

	labels, err = tbl.Labels("")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, labels)
}

func TestDesign(t *testing.T) {
	tbl, err := Read(strings.NewReader(sample))
	require.NoError(t, err)

	d, err := tbl.Design([]string{"x2", "x1"}, false)
	require.NoError(t, err)
	r, c := d.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 31.0, d.At(2, 0))
	assert.Equal(t, 3.0, d.At(2, 1))

	d, err = tbl.Design([]string{"x1"}, true)
	require.NoError(t, err)
	_, c = d.Dims()
	assert.Equal(t, 2, c)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 1.0, d.At(i, 1))
	}

	_, err = tbl.Design(nil, false)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestColumnErrors(t *testing.T) {
	tbl, err := Read(strings.NewReader(sample))
	require.NoError(t, err)

	_, err = tbl.Column("missing")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = tbl.Column("name")
	assert.ErrorIs(t, err, ErrNotNumeric)
	assert.Contains(t, err.Error(), "row 1")

	_, err = tbl.Vector("missing")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader("y,x\n"))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLoad(t *testing.T) {
	tbl, err := Load("../../testdata/mtcars.csv")
	require.NoError(t, err)
	assert.Equal(t, 32, tbl.Len())

	v, err := tbl.Vector("mpg")
	require.NoError(t, err)
	assert.Equal(t, 32, v.Len())
	assert.Equal(t, 21.0, v.AtVec(0))

	_, err = Load("does-not-exist.csv")
	assert.Error(t, err)
}
