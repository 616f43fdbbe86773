package soundy

import "time"

// BufferEvent reports boundaries a track crossed while rendering. Deadline
// is the mixer clock time at which the frame that crossed them is due to be
// heard.
type BufferEvent struct {
	Track      TrackHandle
	Boundaries Boundaries
	Beat       float64
	Deadline   time.Duration
}

func (m *Mixer) recordEvent(h TrackHandle, b Boundaries, beat float64, frame int) {
	offset := time.Duration(float64(frame) / float64(m.sampleRate) * float64(time.Second))
	m.pending = append(m.pending, BufferEvent{
		Track:      h,
		Boundaries: b,
		Beat:       beat,
		Deadline:   m.clock + offset,
	})
}

// deliverDueEvents sends every pending event whose deadline has passed.
func (m *Mixer) deliverDueEvents() {
	kept := m.pending[:0]
	for _, ev := range m.pending {
		if ev.Deadline > m.clock {
			kept = append(kept, ev)
			continue
		}
		m.sendEvent(ev)
	}
	m.pending = kept
}

func (m *Mixer) sendEvent(ev BufferEvent) {
	m.eventChMu.Lock()
	ch := m.eventCh
	m.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// Channel full; drop event
		}
	}
}

// Watch returns a channel that receives a BufferEvent once the frame that
// crossed a loop, beat or bar boundary is due to be heard.
//
// The channel is buffered (cap 8); receive in a goroutine to keep up with
// Advance. Only the most recent Watch() channel receives events.
func (m *Mixer) Watch() <-chan BufferEvent {
	ch := make(chan BufferEvent, 8)
	m.eventChMu.Lock()
	m.eventCh = ch
	m.eventChMu.Unlock()
	return ch
}

// Clock returns the total time passed to Advance.
func (m *Mixer) Clock() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock
}
