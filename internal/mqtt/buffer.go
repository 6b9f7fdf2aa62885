package mqtt

import "go.uber.org/zap"

// bufferedMsg is a serialized message held for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer keeps the newest capacity messages in arrival order.
// Not safe for concurrent use; RealPublisher guards it with its mutex.
type ringBuffer struct {
	slots   []bufferedMsg
	next    int // slot the next push writes
	size    int
	dropped int // messages overwritten since the last drain
	log     *zap.Logger
}

func newRingBuffer(capacity int, log *zap.Logger) *ringBuffer {
	if log == nil {
		log = zap.NewNop()
	}
	return &ringBuffer{slots: make([]bufferedMsg, capacity), log: log}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	full := r.size == len(r.slots)
	if full {
		if r.dropped == 0 {
			r.log.Warn("mqtt buffer full, dropping oldest", zap.Int("capacity", len(r.slots)))
		}
		r.dropped++
	} else {
		r.size++
	}
	r.slots[r.next] = msg
	r.next = (r.next + 1) % len(r.slots)
}

// drainAll returns the held messages oldest first and empties the buffer.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.size == 0 {
		return nil
	}

	first := (r.next - r.size + len(r.slots)) % len(r.slots)
	out := make([]bufferedMsg, 0, r.size)
	for i := 0; i < r.size; i++ {
		out = append(out, r.slots[(first+i)%len(r.slots)])
	}

	if r.dropped > 0 {
		r.log.Warn("mqtt buffer dropped messages while offline", zap.Int("dropped", r.dropped))
	}
	clear(r.slots)
	r.next, r.size, r.dropped = 0, 0, 0
	return out
}

func (r *ringBuffer) len() int {
	return r.size
}
