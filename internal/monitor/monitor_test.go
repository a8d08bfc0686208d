package monitor

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	queueLen int64
	dropped  uint64
}

func (f *fakeStats) QueueLen() int         { return int(atomic.LoadInt64(&f.queueLen)) }
func (f *fakeStats) DroppedCount() uint64  { return atomic.LoadUint64(&f.dropped) }
func (f *fakeStats) set(q int64, d uint64) { atomic.StoreInt64(&f.queueLen, q); atomic.StoreUint64(&f.dropped, d) }

func newService(t *testing.T, stats QueueStats, interval time.Duration) *Service {
	t.Helper()
	return NewService(Dependencies{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Stats:     stats,
		StatusDir: t.TempDir(),
		Interval:  interval,
	})
}

func TestSnapshot(t *testing.T) {
	stats := &fakeStats{}
	stats.set(42, 7)

	s := newService(t, stats, time.Second)
	snap := s.Snapshot()
	assert.Equal(t, 42, snap.QueueLength)
	assert.Equal(t, uint64(7), snap.DroppedTotal)
	assert.False(t, snap.Time.IsZero())
}

func TestStartWritesStatusFile(t *testing.T) {
	stats := &fakeStats{}
	stats.set(3, 1)

	s := newService(t, stats, 10*time.Millisecond)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(s.StatusFilePath())
		return err == nil
	}, time.Second, 5*time.Millisecond)

	data, err := os.ReadFile(s.StatusFilePath())
	require.NoError(t, err)

	var snap Status
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, 3, snap.QueueLength)
	assert.Equal(t, uint64(1), snap.DroppedTotal)
}

func TestStartIsIdempotent(t *testing.T) {
	s := newService(t, &fakeStats{}, 10*time.Millisecond)
	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestStopWithoutStart(t *testing.T) {
	s := newService(t, &fakeStats{}, time.Second)
	s.Stop()
	assert.False(t, s.IsRunning())
}
