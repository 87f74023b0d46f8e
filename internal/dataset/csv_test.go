package dataset

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"mag-surveyor/internal/grid"
	"mag-surveyor/internal/survey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEmptyStoreIsHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, survey.NewStore()))
	assert.Equal(t, Header+"\n", buf.String())
}

func TestWriteRows(t *testing.T) {
	s := survey.NewStore()
	s.Put(grid.Cell{X: 1, Y: -2}, survey.Reading{
		Calibrated:   survey.Vec3{1.5, 2, 3},
		Uncalibrated: survey.Vec3{3, 4, 0},
		Bias:         survey.Vec3{0.25, 0, -1},
	})
	s.PutObstacle(grid.Cell{X: 0, Y: 5})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s))
	assert.Equal(t, strings.Join([]string{
		Header,
		"0,5,9999.9,9999.9,9999.9,9999.9,9999.9,9999.9,9999.9,9999.9,9999.9",
		"1,-2,1.5,2,3,3,4,0,0.25,0,-1",
	}, "\n")+"\n", buf.String())
}

func TestReadClassifiesRows(t *testing.T) {
	input := strings.Join([]string{
		Header,
		"5,-3,1,1,1,9999.9,9999.9,9999.9,0,0,0",
		"2,2,0,0,0,3,4,0,0,0,0",
	}, "\n")

	b, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, b.Rows, 2)
	assert.Zero(t, b.Skipped)

	assert.Equal(t, grid.Cell{X: 5, Y: -3}, b.Rows[0].Cell)
	assert.True(t, b.Rows[0].Entry.IsObstacle())

	assert.Equal(t, grid.Cell{X: 2, Y: 2}, b.Rows[1].Cell)
	assert.False(t, b.Rows[1].Entry.IsObstacle())
	assert.Equal(t, 5, b.Rows[1].Entry.Reading.Magnitude())
	assert.Equal(t, 1, b.Nodes())
}

func TestReadPartialSentinelIsNode(t *testing.T) {
	b, err := Read(strings.NewReader(Header + "\n1,1,0,0,0,9999.9,0,0,0,0,0\n"))
	require.NoError(t, err)
	require.Len(t, b.Rows, 1)
	assert.False(t, b.Rows[0].Entry.IsObstacle())
	assert.Equal(t, 10000, b.Rows[0].Entry.Reading.Magnitude())
}

func TestReadSkipsMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		Header,
		"1,2,0,0,0,3,4,0,0,0",       // ten fields
		"1,2,0,0,0,3,4,0,0",         // eight fields
		"a,2,0,0,0,3,4,0,0,0,0",     // bad x
		"1,2.5,0,0,0,3,4,0,0,0,0",   // bad y
		"",                          // blank
		"7,8,0,0,0,3,4,0,0,0,0,note", // extra columns are ignored
	}, "\n")

	b, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 4, b.Skipped)
	require.Len(t, b.Rows, 1)
	assert.Equal(t, grid.Cell{X: 7, Y: 8}, b.Rows[0].Cell)
}

func TestReadTreatsQuotesAsPlainText(t *testing.T) {
	input := strings.Join([]string{
		Header,
		`7,8,0,0,0,3,4,0,0,0,0,"note`,
		"9,9,0,0,0,3,4,0,0,0,0",
		"10,10,0,0,0,3,4,0,0,0,0",
		`"11,11,0,0,0,3,4,0,0,0,0`,
	}, "\n")

	b, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Skipped, "quoted x is not an integer")
	require.Len(t, b.Rows, 3)
	assert.Equal(t, grid.Cell{X: 7, Y: 8}, b.Rows[0].Cell)
	assert.Equal(t, grid.Cell{X: 9, Y: 9}, b.Rows[1].Cell)
	assert.Equal(t, grid.Cell{X: 10, Y: 10}, b.Rows[2].Cell)
}

func TestReadQuotedHeader(t *testing.T) {
	input := "\"X,Y,MagX\n2,2,0,0,0,3,4,0,0,0,0\r\n3,3,0,0,0,3,4,0,0,0,0\n"
	b, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	assert.Zero(t, b.Skipped)
	require.Len(t, b.Rows, 2)
	assert.Equal(t, grid.Cell{X: 2, Y: 2}, b.Rows[0].Cell)
	assert.Equal(t, grid.Cell{X: 3, Y: 3}, b.Rows[1].Cell)
}

func TestReadBadCalibratedFieldAborts(t *testing.T) {
	input := Header + "\n1,1,0,0,0,3,4,0,0,0,0\n2,2,n/a,0,0,3,4,0,0,0,0\n"
	b, err := Read(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "field 2")
	assert.Len(t, b.Rows, 1)
}

func TestReadEightFieldRowLeavesStoreUntouched(t *testing.T) {
	s := survey.NewStore()
	s.Put(grid.Cell{X: 9, Y: 9}, survey.Reading{Uncalibrated: survey.Vec3{1, 0, 0}})

	b, err := Read(strings.NewReader(Header + "\n1,2,0,0,0,3,4,0\n"))
	require.NoError(t, err)
	b.Apply(s, Merge)
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get(grid.Cell{X: 1, Y: 2})
	assert.False(t, ok)
}

func TestReadBadReadingAbortsWithPartialRows(t *testing.T) {
	input := strings.Join([]string{
		Header,
		"1,1,0,0,0,3,4,0,0,0,0",
		"2,2,0,0,0,3,x,0,0,0,0",
		"3,3,0,0,0,3,4,0,0,0,0",
	}, "\n")

	b, err := Read(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	require.Len(t, b.Rows, 1)
	assert.Equal(t, grid.Cell{X: 1, Y: 1}, b.Rows[0].Cell)
}

func TestReadEmptyInput(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)

	b, err := Read(strings.NewReader(Header + "\n"))
	require.NoError(t, err)
	assert.Empty(t, b.Rows)
}

func TestApplyModes(t *testing.T) {
	b := Batch{Rows: []Row{
		{Cell: grid.Cell{X: 1, Y: 1}, Entry: survey.Entry{Kind: survey.KindObstacle}},
		{Cell: grid.Cell{X: 2, Y: 2}, Entry: survey.Entry{Reading: survey.Reading{Uncalibrated: survey.Vec3{3, 4, 0}}}},
	}}

	merged := survey.NewStore()
	merged.Put(grid.Cell{X: 1, Y: 1}, survey.Reading{})
	merged.Put(grid.Cell{X: 0, Y: 0}, survey.Reading{})
	b.Apply(merged, Merge)
	assert.Equal(t, 3, merged.Len())
	e, _ := merged.Get(grid.Cell{X: 1, Y: 1})
	assert.True(t, e.IsObstacle(), "imported obstacle replaces the node")

	replaced := survey.NewStore()
	replaced.Put(grid.Cell{X: 0, Y: 0}, survey.Reading{})
	b.Apply(replaced, Replace)
	assert.Equal(t, []grid.Cell{{X: 1, Y: 1}, {X: 2, Y: 2}}, replaced.Cells())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Merge ")
	require.NoError(t, err)
	assert.Equal(t, Merge, m)
	m, err = ParseMode("replace")
	require.NoError(t, err)
	assert.Equal(t, Replace, m)
	_, err = ParseMode("append")
	assert.Error(t, err)
	assert.Equal(t, "merge", Merge.String())
}

func TestRoundTrip(t *testing.T) {
	src := survey.NewStore()
	src.Put(grid.Cell{X: -4, Y: 3}, survey.Reading{
		Calibrated:   survey.Vec3{12.625, -3.1, 40.0001},
		Uncalibrated: survey.Vec3{18.5, -7.75, 44.2},
		Bias:         survey.Vec3{5.875, -4.65, 4.1999},
	})
	src.Put(grid.Cell{X: 0, Y: 0}, survey.Reading{Uncalibrated: survey.Vec3{3, 4, 0}})
	src.PutObstacle(grid.Cell{X: 2, Y: -1})
	src.PutObstacle(grid.Cell{X: 100, Y: 100})

	path := filepath.Join(t.TempDir(), "nested", "position_data.csv")
	require.NoError(t, ExportFile(path, src))

	b, err := ImportFile(path)
	require.NoError(t, err)
	dst := survey.NewStore()
	b.Apply(dst, Replace)

	require.Equal(t, src.Cells(), dst.Cells())
	for cell, want := range src.All() {
		got, ok := dst.Get(cell)
		require.True(t, ok)
		assert.Equal(t, want, got, "cell %v", cell)
	}
}

func TestImportFileMissing(t *testing.T) {
	_, err := ImportFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
