package simulator

import (
	"sync"

	"github.com/E-Palms/ossim/simtime"
)

// emptySlot is the interrupt queue's sentinel for an unoccupied slot,
// matching the original EMPTY_QUEUE_VALUE constant.
const emptySlot = -1

// InterruptQueue is the bounded FIFO of pids whose simulated I/O has
// completed and are awaiting a Ready transition, shared by every
// process's I/O worker and the simulation driver (spec.md §4.5).
//
// Appends (from worker goroutines) and the shift-left performed on
// consumption are both serialized by mu; spec.md §5 notes the driver's
// own consumption never races a worker's append because a worker only
// ever appends, never shifts.
type InterruptQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	slots []int
}

// NewInterruptQueue allocates a queue sized to n, the process count —
// the maximum number of outstanding interrupts a run can ever have.
func NewInterruptQueue(n int) *InterruptQueue {
	slots := make([]int, n)
	for i := range slots {
		slots[i] = emptySlot
	}
	q := &InterruptQueue{slots: slots}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Add appends pid to the first empty slot and wakes any goroutine
// blocked in WaitNonEmpty. It is the only operation a spawned I/O
// worker ever performs.
func (q *InterruptQueue) Add(pid int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, v := range q.slots {
		if v == emptySlot {
			q.slots[i] = pid
			break
		}
	}
	q.cond.Broadcast()
}

// First returns the pid in the queue's first slot, or emptySlot if the
// queue is currently empty.
func (q *InterruptQueue) First() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.slots[0]
}

// WaitNonEmpty blocks until the first slot holds a pid, then returns it
// without consuming it. This replaces the original reference driver's
// literal busy-wait on queue[0] with a condition variable, per spec.md
// §9's suggestion that the two give identical observable behavior.
func (q *InterruptQueue) WaitNonEmpty() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.slots[0] == emptySlot {
		q.cond.Wait()
	}
	return q.slots[0]
}

// pop shifts every slot one position toward the front, leaving the last
// slot empty.
func (q *InterruptQueue) pop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := 0; i+1 < len(q.slots); i++ {
		q.slots[i] = q.slots[i+1]
	}
	if len(q.slots) > 0 {
		q.slots[len(q.slots)-1] = emptySlot
	}
}

// HandleInterrupt services the interrupt for p's completed I/O: it marks
// p Ready, discards the dev op that just completed, and pops the queue.
func (q *InterruptQueue) HandleInterrupt(p *Process) {
	p.State = Ready
	p.PopOp()
	q.pop()
}

// SpawnIOWorker starts the background task a preemptive dev op creates:
// it sleeps for ms simulated milliseconds, real wall-clock time, then
// enqueues p's pid. The worker never logs; the driver emits the
// interrupt's log line when it later consumes the queue entry, which is
// what keeps total log ordering intact (spec.md §5).
func SpawnIOWorker(wg *sync.WaitGroup, q *InterruptQueue, p *Process, ms int) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		simtime.Sleep(ms)
		q.Add(p.PID)
	}()
}
