package recorder

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fltvhs/recorder/internal/logging"
	"github.com/fltvhs/recorder/pkg/acmi"
)

// safeBuffer is a locked bytes.Buffer; the flusher writes from its own
// goroutine.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

func testLogger() Logger {
	return logging.NewRecorderLogger(zerolog.New(io.Discard))
}

func TestRecordRoundTripsThroughSink(t *testing.T) {
	sink := &safeBuffer{}
	r, err := New(sink, testLogger(), Config{FlushInterval: time.Hour})
	require.NoError(t, err)

	require.NoError(t, r.TimeOfDay(36000))
	require.NoError(t, r.Record(acmi.GenPosition{Kind: 3, UID: 1, X: 100}, 12.5))
	require.NoError(t, r.Record(acmi.Switch{Kind: 3, UID: 1, SwitchNum: 4}, 13.0))

	require.NoError(t, r.Close(context.Background()))

	s := acmi.NewStream(sink.Bytes())
	var tags []acmi.Tag
	for s.Next() {
		tags = append(tags, s.Record().Data.Tag())
	}
	require.NoError(t, s.Err())
	assert.Equal(t, []acmi.Tag{acmi.TagTodOffset, acmi.TagGenPosition, acmi.TagSwitch}, tags)
}

func TestRecordFlushesPeriodically(t *testing.T) {
	sink := &safeBuffer{}
	r, err := New(sink, testLogger(), Config{FlushInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	defer r.Close(context.Background())

	require.NoError(t, r.Record(acmi.GenPosition{Kind: 3, UID: 1}, 1.0))

	assert.Eventually(t, func() bool {
		return len(sink.Bytes()) > 0
	}, time.Second, 5*time.Millisecond, "flusher should drain without Close")
}

func TestRecordDropsWhenQueueFull(t *testing.T) {
	sink := &safeBuffer{}
	r, err := New(sink, testLogger(), Config{QueueSize: 1, FlushInterval: time.Hour})
	require.NoError(t, err)

	require.NoError(t, r.Record(acmi.GenPosition{UID: 1}, 1.0))
	// Queue holds one record; this one is dropped, not an error.
	require.NoError(t, r.Record(acmi.GenPosition{UID: 2}, 1.1))
	assert.Equal(t, 1, r.QueueLen())

	require.NoError(t, r.Close(context.Background()))

	s := acmi.NewStream(sink.Bytes())
	require.True(t, s.Next())
	assert.Equal(t, acmi.GenPosition{UID: 1}, s.Record().Data)
	assert.False(t, s.Next(), "the dropped record must not appear")
}

func TestWriteCallsigns(t *testing.T) {
	sink := &safeBuffer{}
	r, err := New(sink, testLogger(), Config{FlushInterval: time.Hour})
	require.NoError(t, err)

	require.NoError(t, r.Record(acmi.GenPosition{Kind: 3, UID: 0}, 1.0))
	require.NoError(t, r.WriteCallsigns(2.0, []acmi.Callsign{
		{Label: []byte("Viper11"), TeamColor: 2},
	}))
	require.NoError(t, r.Close(context.Background()))

	s := acmi.NewStream(sink.Bytes())
	require.True(t, s.Next())
	require.True(t, s.Next())
	list, ok := s.Record().Data.(acmi.CallsignList)
	require.True(t, ok, "callsign list is the final record")
	require.Len(t, list.Callsigns, 1)
	assert.Equal(t, "Viper11", list.Callsigns[0].LabelString())
	assert.Equal(t, int32(2), list.Callsigns[0].TeamColor)
	assert.False(t, s.Next())
}

func TestRecordRejectsBadPayload(t *testing.T) {
	r, err := New(&safeBuffer{}, testLogger(), Config{FlushInterval: time.Hour})
	require.NoError(t, err)
	defer r.Close(context.Background())

	list := acmi.CallsignList{Callsigns: []acmi.Callsign{
		{Label: []byte("name is way past sixteen")},
	}}
	err = r.Record(list, 1.0)
	assert.ErrorIs(t, err, acmi.ErrLabelTooLong)
}

type failingSink struct{}

func (failingSink) Write([]byte) (int, error) {
	return 0, errors.New("device unplugged")
}

func TestCloseSurfacesWriteError(t *testing.T) {
	r, err := New(failingSink{}, testLogger(), Config{FlushInterval: time.Hour})
	require.NoError(t, err)

	require.NoError(t, r.Record(acmi.GenPosition{UID: 1}, 1.0))

	err = r.Close(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "device unplugged")
}

func TestRecordConcurrent(t *testing.T) {
	sink := &safeBuffer{}
	r, err := New(sink, testLogger(), Config{QueueSize: 10000, FlushInterval: 5 * time.Millisecond})
	require.NoError(t, err)

	var wg sync.WaitGroup
	const perProducer = 100
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(uid int32) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = r.Record(acmi.GenPosition{Kind: 3, UID: uid}, float32(i))
			}
		}(int32(p))
	}
	wg.Wait()

	require.NoError(t, r.Close(context.Background()))

	s := acmi.NewStream(sink.Bytes())
	count := 0
	for s.Next() {
		count++
	}
	require.NoError(t, s.Err())
	assert.Equal(t, 4*perProducer, count)
}
