package dataset

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"acaipulse/internal/shared/testutil"
	"acaipulse/pkg/contracts/domain"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordDatasetLoad(ctx context.Context, format string, rows int, d time.Duration, err error) {
	m.Called(format, rows, err == nil)
}

func (m *mockRecorder) RecordCacheLookup(ctx context.Context, hit bool) {
	m.Called(hit)
}

func newTestLoader(t *testing.T) *Loader {
	logger, _ := testutil.NewTestLogger(t)
	return NewLoader(DefaultOptions(), logger, nil)
}

func TestLoader_LoadIsMemoised(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteSalesCSV(t, dir,
		testutil.CSVRow(map[string]string{"Loja": "A"}),
		testutil.CSVRow(map[string]string{"Loja": "B"}),
	)

	rec := &mockRecorder{}
	rec.On("RecordCacheLookup", false).Once()
	rec.On("RecordCacheLookup", true).Twice()
	rec.On("RecordDatasetLoad", FormatCSV, 2, true).Once()

	loader := NewLoader(DefaultOptions(), nil, rec)
	ctx := context.Background()

	first, err := loader.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Len())

	second, err := loader.Load(ctx, path)
	require.NoError(t, err)
	assert.Same(t, first, second)

	// relative and absolute paths share one entry
	wd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := filepath.Rel(wd, path)
	require.NoError(t, err)
	third, err := loader.Load(ctx, rel)
	require.NoError(t, err)
	assert.Same(t, first, third)

	stats := loader.GetStats()
	assert.Equal(t, int64(1), stats["loads"])
	assert.Equal(t, int64(2), stats["hit_count"])
	rec.AssertExpectations(t)
}

func TestLoader_FileChangesNeedExplicitReload(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteSalesCSV(t, dir, testutil.CSVRow(nil))
	loader := newTestLoader(t)
	ctx := context.Background()

	original, err := loader.Load(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 1, original.Len())

	// unchanged file: reload is a no-op
	ds, changed, err := loader.Reload(ctx, path, false)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, original, ds)

	testutil.WriteSalesCSV(t, dir, testutil.CSVRow(nil), testutil.CSVRow(nil), testutil.CSVRow(nil))

	cached, err := loader.Load(ctx, path)
	require.NoError(t, err)
	assert.Same(t, original, cached, "load must not re-read without reload")

	ds, changed, err = loader.Reload(ctx, path, false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 3, ds.Len())

	again, err := loader.Load(ctx, path)
	require.NoError(t, err)
	assert.Same(t, ds, again)

	forced, changed, err := loader.Reload(ctx, path, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotSame(t, ds, forced)
}

func TestLoader_FailedReloadKeepsPreviousDataset(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteSalesCSV(t, dir, testutil.CSVRow(nil))
	loader := newTestLoader(t)
	ctx := context.Background()

	original, err := loader.Load(ctx, path)
	require.NoError(t, err)

	testutil.WriteSalesCSV(t, dir, testutil.CSVRow(map[string]string{"Data": "not a date"}))

	ds, changed, err := loader.Reload(ctx, path, true)
	require.Error(t, err)
	assert.False(t, changed)
	assert.Same(t, original, ds)

	cached, err := loader.Load(ctx, path)
	require.NoError(t, err)
	assert.Same(t, original, cached)
}

func TestLoader_FatalParseErrorIsNotCached(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteSalesCSV(t, dir, testutil.CSVRow(map[string]string{"Data": "??"}))
	loader := newTestLoader(t)

	_, err := loader.Load(context.Background(), path)
	require.Error(t, err)
	_, ok := loader.Identity(path)
	assert.False(t, ok)
}

func TestLoader_MissingFile(t *testing.T) {
	loader := newTestLoader(t)
	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE")
}

func TestLoader_ConcurrentFirstLoadReadsOnce(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteSalesCSV(t, dir, testutil.CSVRow(nil))
	loader := newTestLoader(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ds, err := loader.Load(context.Background(), path)
			assert.NoError(t, err)
			assert.Equal(t, 1, ds.Len())
		}()
	}
	wg.Wait()

	// later callers hit the cache; racing first callers share one read
	loads := loader.GetStats()["loads"].(int64)
	assert.LessOrEqual(t, loads, int64(16))
	assert.GreaterOrEqual(t, loads, int64(1))
	_, ok := loader.Identity(path)
	assert.True(t, ok)
}

func TestLoader_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendas.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, col := range testutil.SalesHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, col))
	}
	row := testutil.CSVRow(map[string]string{"Loja": "Loja Praia", "Total_Venda": "25,90", "Data": "2024-02-10"})
	for i, v := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellStr(sheet, cell, v))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := newTestLoader(t).Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())

	s := ds.Sales()[0]
	assert.Equal(t, "Loja Praia", s.Store)
	assert.InDelta(t, 25.9, s.SaleTotal, 1e-9)
	assert.Equal(t, "Sábado", s.Weekday)
	assert.Equal(t, FormatXLSX, ds.Info().Format)
}

func TestNewDataset_ComputesRangeAndCopiesInfo(t *testing.T) {
	ds := NewDataset([]domain.Sale{
		testutil.NewSale(testutil.WithDate("2024-01-05")),
		testutil.NewSale(testutil.WithDate("2024-01-02")),
		testutil.NewSale(testutil.WithDate("2024-01-09")),
	}, domain.DatasetInfo{Coerced: map[string]int{ColRating: 2}})

	info := ds.Info()
	assert.Equal(t, 3, info.Rows)
	assert.Equal(t, "2024-01-02", info.DateFrom.Format("2006-01-02"))
	assert.Equal(t, "2024-01-09", info.DateTo.Format("2006-01-02"))

	info.Coerced[ColRating] = 99
	assert.Equal(t, 2, ds.Info().Coerced[ColRating])
}
