package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fleetops/internal/driver"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingMessenger struct {
	mu      sync.Mutex
	sent    []Report
	err     error
	started chan struct{} // closed-once signal that Send was entered
	release chan struct{} // Send blocks until this closes, when set
}

func (m *recordingMessenger) Send(ctx context.Context, report Report) error {
	if m.started != nil {
		select {
		case <-m.started:
		default:
			close(m.started)
		}
	}
	if m.release != nil {
		<-m.release
	}
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, report)
	return nil
}

func (m *recordingMessenger) sentReports() []Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Report(nil), m.sent...)
}

func testReport(action string) Report {
	return Report{
		Driver:        driver.Identity{ID: "drv-1", DisplayName: "A Driver", RegNo: "KA-01-1234"},
		Action:        action,
		Timestamp:     time.Now(),
		OdometerValue: 1200,
	}
}

func TestDispatcher_DeliversEnqueuedReports(t *testing.T) {
	messenger := &recordingMessenger{}
	d := NewDispatcher(messenger, 2, 8, zap.NewNop())
	d.Start(context.Background())

	assert.True(t, d.Enqueue(testReport("START")))
	assert.True(t, d.Enqueue(testReport("END")))
	d.Close()

	reports := messenger.sentReports()
	assert.Len(t, reports, 2)

	stats := d.Stats()
	assert.Equal(t, uint64(2), stats.Enqueued)
	assert.Equal(t, uint64(2), stats.Sent)
	assert.Equal(t, uint64(0), stats.Failed)
	assert.Equal(t, uint64(0), stats.Dropped)
}

func TestDispatcher_CountsFailedSends(t *testing.T) {
	messenger := &recordingMessenger{err: errors.New("gateway unavailable")}
	d := NewDispatcher(messenger, 1, 8, zap.NewNop())
	d.Start(context.Background())

	assert.True(t, d.Enqueue(testReport("START")))
	d.Close()

	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Enqueued)
	assert.Equal(t, uint64(0), stats.Sent)
	assert.Equal(t, uint64(1), stats.Failed)
	assert.Empty(t, messenger.sentReports())
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	messenger := &recordingMessenger{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	d := NewDispatcher(messenger, 1, 1, zap.NewNop())
	d.Start(context.Background())

	// First report occupies the single worker.
	assert.True(t, d.Enqueue(testReport("START")))
	<-messenger.started

	// Second fills the queue, third must be dropped without blocking.
	assert.True(t, d.Enqueue(testReport("END")))
	assert.False(t, d.Enqueue(testReport("END")))

	close(messenger.release)
	d.Close()

	stats := d.Stats()
	assert.Equal(t, uint64(2), stats.Enqueued)
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, uint64(2), stats.Sent)
}

func TestDispatcher_CloseDrainsQueue(t *testing.T) {
	messenger := &recordingMessenger{}
	d := NewDispatcher(messenger, 1, 16, zap.NewNop())
	d.Start(context.Background())

	for i := 0; i < 10; i++ {
		assert.True(t, d.Enqueue(testReport("START")))
	}
	d.Close()

	assert.Len(t, messenger.sentReports(), 10)
}

func TestDispatcher_EnqueueAfterCloseIsDropped(t *testing.T) {
	messenger := &recordingMessenger{}
	d := NewDispatcher(messenger, 1, 8, zap.NewNop())
	d.Start(context.Background())

	assert.True(t, d.Enqueue(testReport("START")))
	d.Close()

	// A request that raced shutdown must get a drop, not a panic.
	assert.NotPanics(t, func() {
		assert.False(t, d.Enqueue(testReport("END")))
	})

	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Enqueued)
	assert.Equal(t, uint64(1), stats.Sent)
	assert.Equal(t, uint64(1), stats.Dropped)
}

func TestDispatcher_CloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(&recordingMessenger{}, 1, 8, zap.NewNop())
	d.Start(context.Background())

	assert.NotPanics(t, func() {
		d.Close()
		d.Close()
	})
}

func TestDispatcher_DefaultsOnBadSizing(t *testing.T) {
	d := NewDispatcher(&recordingMessenger{}, 0, -1, zap.NewNop())
	assert.Equal(t, 2, d.workers)
	assert.Equal(t, 64, cap(d.jobs))
}
