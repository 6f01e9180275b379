package arbiter

import "github.com/jetsetilly/crowdcade/internal/button"

// queuedInput is one button waiting in the anarchy FIFO, tagged with the
// submitting user for telemetry only — the emulator never sees the user.
type queuedInput struct {
	button button.Button
	user   string
}

// anarchyQueue is the AnarchyState half of the tagged variant described in
// the design notes: free-for-all FIFO delivery with per-user and global
// throttles. Overflow policy is reject-the-newest: once at capacity, a
// newly accepted input is simply not queued, and earlier entries are never
// evicted to make room.
type anarchyQueue struct {
	items []queuedInput
}

// tryEnqueue appends b if the queue has room, returning whether it was
// queued. Throttling has already happened by the time this is called.
func (q *anarchyQueue) tryEnqueue(capacity int, b button.Button, user string) bool {
	if len(q.items) >= capacity {
		return false
	}
	q.items = append(q.items, queuedInput{button: b, user: user})
	return true
}

// pop removes and returns the head of the queue.
func (q *anarchyQueue) pop() (button.Button, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head.button, true
}

func (q *anarchyQueue) len() int {
	return len(q.items)
}
