package selectk

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionTableBoundaries(t *testing.T) {
	t.Parallel()
	tbl := DefaultDecisionTable()

	cases := []struct {
		rows, cols, k int
		want          Algo
	}{
		{2000, 20000, 256, WarpDistributedShm},
		{2000, 20000, 257, Radix11bitsExtraPass},
		{10, 16862, 300, Radix11bitsExtraPass},
		{10, 16863, 300, Radix11bits},
		{1020, 16863, 300, Radix11bits},
		{1021, 16863, 300, Radix11bitsExtraPass},
		{10, 22061, 16, WarpImmediate},
		{10, 22062, 16, WarpDistributedShm},
		{198, 100, 16, WarpImmediate},
		{199, 100, 16, WarpDistributedShm},
		{5000, 50000, 2, WarpImmediate},
		{5000, 50000, 3, WarpDistributedShm},
	}
	for _, tc := range cases {
		got := tbl.Choose(tc.rows, tc.cols, tc.k)
		assert.Equal(t, tc.want, got, "rows=%d cols=%d k=%d", tc.rows, tc.cols, tc.k)
		assert.Equal(t, got, tbl.Choose(tc.rows, tc.cols, tc.k), "deterministic")
	}
}

func TestDecisionTableValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, DefaultDecisionTable().Validate())

	bad := DefaultDecisionTable()
	bad.RadixK = 300
	assert.ErrorIs(t, bad.Validate(), ErrInvalidArgument)

	bad = DefaultDecisionTable()
	bad.WarpRows = -1
	assert.ErrorIs(t, bad.Validate(), ErrInvalidArgument)
}

func TestLoadDecisionTableKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte("radix_cols: 100\nwarp_rows: 5\n"), 0o644))

	tbl, err := LoadDecisionTable(path)
	require.NoError(t, err)
	want := DefaultDecisionTable()
	want.RadixCols, want.WarpRows = 100, 5
	assert.Equal(t, want, tbl)

	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, tbl.Save(out))
	again, err := LoadDecisionTable(out)
	require.NoError(t, err)
	assert.Equal(t, tbl, again)
}

func TestLoadDecisionTableRejectsInvalid(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte("radix_k: 1000\n"), 0o644))
	_, err := LoadDecisionTable(path)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseAlgo(t *testing.T) {
	t.Parallel()
	for _, a := range Algos() {
		got, err := ParseAlgo(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	got, err := ParseAlgo(" Warpsort-Distributed-Shm ")
	require.NoError(t, err)
	assert.Equal(t, WarpDistributedShm, got)

	got, err = ParseAlgo("")
	require.NoError(t, err)
	assert.Equal(t, Auto, got)

	_, err = ParseAlgo("bogo_sort")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAutotunerPicksFastest(t *testing.T) {
	t.Parallel()
	tuner := NewAutotuner(nil)
	shape := Shape{Rows: 10, Cols: 1000, K: 16}
	timings := map[Algo]time.Duration{
		Radix8bits:    5 * time.Millisecond,
		WarpFiltered:  2 * time.Millisecond,
		WarpImmediate: 3 * time.Millisecond,
	}
	runs := 0
	run := func(a Algo) (time.Duration, error) {
		runs++
		return timings[a], nil
	}
	cands := []Algo{Radix8bits, WarpFiltered, WarpImmediate}

	assert.Equal(t, WarpFiltered, tuner.Tune(shape, cands, run))
	assert.Equal(t, WarpFiltered, tuner.Tune(shape, cands, run))
	assert.Equal(t, 3, runs, "second call served from cache")

	assert.Equal(t, WarpFiltered, tuner.Choose(10, 1000, 16))
	assert.Equal(t, DefaultDecisionTable().Choose(5, 5, 300), tuner.Choose(5, 5, 300))

	ms := tuner.Measurements()
	require.Len(t, ms, 1)
	assert.Equal(t, shape, ms[0].Shape)
	assert.Equal(t, 2*time.Millisecond, ms[0].Elapsed)
}

func TestAutotunerAllFailFallsBack(t *testing.T) {
	t.Parallel()
	tuner := NewAutotuner(nil)
	got := tuner.Tune(Shape{Rows: 1, Cols: 10, K: 1}, []Algo{Radix8bits}, func(Algo) (time.Duration, error) {
		return 0, ErrUnsupportedK
	})
	assert.Equal(t, WarpImmediate, got)
	assert.Empty(t, tuner.Measurements())
}

func TestCandidates(t *testing.T) {
	t.Parallel()
	assert.Len(t, Candidates(8), len(Algos()))
	assert.Equal(t, []Algo{Radix8bits, Radix11bits, Radix11bitsExtraPass}, Candidates(257))
}
