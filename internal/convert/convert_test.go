package convert

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fltvhs/recorder/internal/config"
	"github.com/fltvhs/recorder/internal/geo"
	"github.com/fltvhs/recorder/internal/model"
	"github.com/fltvhs/recorder/pkg/acmi"
)

var korea = geo.Theater{OriginLat: 33, OriginLon: 124}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type rec struct {
	time float32
	data acmi.Payload
}

func writeFlt(t *testing.T, dir, name string, recs ...rec) string {
	t.Helper()
	var buf []byte
	for _, r := range recs {
		b, err := acmi.Encode(r.data, r.time)
		require.NoError(t, err)
		buf = append(buf, b...)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf, 0644))
	return path
}

func aircraft(uid int32, x float32) acmi.AircraftPosition {
	return acmi.AircraftPosition{
		GenPosition: acmi.GenPosition{Kind: 3, UID: uid, X: x},
		RadarTarget: -1,
	}
}

func TestConvertSingleFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	flt := writeFlt(t, dir, "falcon4.00.flt",
		rec{36000, acmi.TodOffset{}},
		rec{10, aircraft(1, 0)},
		rec{20, aircraft(1, 100)},
	)

	c := New(discardLogger(), "korea", korea, config.ConvertConfig{OutputDir: out}, nil, nil)
	results, err := c.ConvertAll(context.Background(), []string{flt})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	require.NoError(t, r.Err)
	assert.Equal(t, filepath.Join(out, "falcon4.00.vhs"), r.VhsPath)
	assert.False(t, r.Corrupted)
	assert.Zero(t, r.Merged)
	assert.FileExists(t, r.VhsPath)
	assert.NoFileExists(t, flt, "source is removed unless keepFlt is set")
}

func TestConvertKeepsSource(t *testing.T) {
	dir := t.TempDir()
	flt := writeFlt(t, dir, "a.flt", rec{10, aircraft(1, 0)})

	c := New(discardLogger(), "korea", korea,
		config.ConvertConfig{OutputDir: dir, KeepFlt: true}, nil, nil)
	results, err := c.ConvertAll(context.Background(), []string{flt})
	require.NoError(t, err)
	require.NoError(t, results[0].Err)
	assert.FileExists(t, flt)
}

func TestConvertMergesContinuations(t *testing.T) {
	dir := t.TempDir()
	first := writeFlt(t, dir, "falcon4.00.flt",
		rec{36000, acmi.TodOffset{}},
		rec{10, aircraft(1, 0)},
		rec{20, aircraft(1, 100)},
	)
	second := writeFlt(t, dir, "falcon4.01.flt",
		rec{36000, acmi.TodOffset{}},
		rec{20.5, aircraft(7, 105)},
		rec{30, aircraft(7, 200)},
	)

	c := New(discardLogger(), "korea", korea,
		config.ConvertConfig{OutputDir: dir, Merge: true, KeepFlt: true}, nil, nil)
	results, err := c.ConvertAll(context.Background(), []string{first, second})
	require.NoError(t, err)

	require.Len(t, results, 1, "continuation folds into one flight")
	r := results[0]
	require.NoError(t, r.Err)
	assert.Equal(t, 1, r.Merged)
	assert.Equal(t, []string{first, second}, r.SourceFiles)
	assert.Equal(t, filepath.Join(dir, "falcon4.00.vhs"), r.VhsPath)
	assert.NoFileExists(t, filepath.Join(dir, "falcon4.01.vhs"))
}

func TestConvertWithoutMerge(t *testing.T) {
	dir := t.TempDir()
	first := writeFlt(t, dir, "a.flt", rec{10, aircraft(1, 0)})
	second := writeFlt(t, dir, "b.flt", rec{10.5, aircraft(1, 1)})

	c := New(discardLogger(), "korea", korea,
		config.ConvertConfig{OutputDir: dir, KeepFlt: true}, nil, nil)
	results, err := c.ConvertAll(context.Background(), []string{first, second})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestConvertCorruptRejectedWithoutPartial(t *testing.T) {
	dir := t.TempDir()
	flt := writeFlt(t, dir, "bad.flt", rec{10, aircraft(1, 0)})
	f, err := os.OpenFile(flt, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte{0xEE, 0, 0, 0, 0})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	c := New(discardLogger(), "korea", korea,
		config.ConvertConfig{OutputDir: dir, KeepFlt: true}, nil, nil)
	results, err := c.ConvertAll(context.Background(), []string{flt})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Empty(t, results[0].VhsPath)
}

func TestConvertCorruptAllowedWithPartial(t *testing.T) {
	dir := t.TempDir()
	flt := writeFlt(t, dir, "bad.flt", rec{10, aircraft(1, 0)})
	f, err := os.OpenFile(flt, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.Write([]byte{0xEE})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	c := New(discardLogger(), "korea", korea,
		config.ConvertConfig{OutputDir: dir, AllowPartial: true, KeepFlt: true}, nil, nil)
	results, err := c.ConvertAll(context.Background(), []string{flt})
	require.NoError(t, err)

	r := results[0]
	require.NoError(t, r.Err)
	assert.True(t, r.Corrupted)
	assert.FileExists(t, r.VhsPath)
}

// captureBackend records SaveFlight calls.
type captureBackend struct {
	saved []*model.Archive
}

func (c *captureBackend) Init() error  { return nil }
func (c *captureBackend) Close() error { return nil }
func (c *captureBackend) SaveFlight(a *model.Archive) error {
	c.saved = append(c.saved, a)
	return nil
}

func TestConvertArchivesFlights(t *testing.T) {
	dir := t.TempDir()
	flt := writeFlt(t, dir, "falcon4.00.flt",
		rec{10, aircraft(1, 0)},
		rec{20, aircraft(1, 100)},
	)

	store := &captureBackend{}
	c := New(discardLogger(), "korea", korea,
		config.ConvertConfig{OutputDir: dir, KeepFlt: true}, store, nil)
	results, err := c.ConvertAll(context.Background(), []string{flt})
	require.NoError(t, err)
	require.NoError(t, results[0].Err)

	require.Len(t, store.saved, 1)
	a := store.saved[0]
	assert.Equal(t, "falcon4.00.flt", a.Recording.FileName)
	assert.Equal(t, "korea", a.Recording.Theater)
	assert.Equal(t, 1, a.Recording.EntityCount)
}

func TestConvertLogsRecording(t *testing.T) {
	dir := t.TempDir()
	flt := writeFlt(t, dir, "falcon4.00.flt",
		rec{10, aircraft(1, 0)},
		rec{20, aircraft(1, 100)},
	)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c := New(logger, "korea", korea,
		config.ConvertConfig{OutputDir: dir, KeepFlt: true}, nil, nil)
	results, err := c.ConvertAll(context.Background(), []string{flt})
	require.NoError(t, err)
	require.NoError(t, results[0].Err)

	assert.Contains(t, buf.String(), "recording=falcon4.00.flt",
		"log records carry the recording being converted")
}

func TestConvertMissingFile(t *testing.T) {
	c := New(discardLogger(), "korea", korea,
		config.ConvertConfig{OutputDir: t.TempDir()}, nil, nil)
	results, err := c.ConvertAll(context.Background(), []string{"/nonexistent/x.flt"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestConvertNoFiles(t *testing.T) {
	c := New(discardLogger(), "korea", korea,
		config.ConvertConfig{OutputDir: t.TempDir()}, nil, nil)
	results, err := c.ConvertAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
