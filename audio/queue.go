package audio

import "sync"

// pcmQueue is a thread-safe byte FIFO bridging the single-threaded playback
// tick (writer) and the oto player's refill goroutine (reader).
//
// On underrun Read yields silence instead of blocking, so the device never
// stalls; silence is not counted as delivered audio, which keeps the
// position accounting tied to real samples.
type pcmQueue struct {
	mu        sync.Mutex
	buf       []byte
	delivered int64
}

// Write appends PCM bytes to the queue.
func (q *pcmQueue) Write(p []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf = append(q.buf, p...)
}

// Read drains queued bytes into p, padding the remainder with silence when
// the queue runs dry. It never returns an error; the stream only ends when
// the player is closed.
func (q *pcmQueue) Read(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := copy(p, q.buf)
	q.buf = q.buf[n:]
	q.delivered += int64(n)

	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

// Pending returns the byte count queued but not yet handed to the device.
func (q *pcmQueue) Pending() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.buf))
}

// Delivered returns the total real (non-silence) bytes handed to the device.
func (q *pcmQueue) Delivered() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.delivered
}

// Reset drops all queued bytes and zeroes the delivered counter.
func (q *pcmQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf = nil
	q.delivered = 0
}
