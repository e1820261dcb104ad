package viewer

import "context"

// TaskQueue hands work from loader goroutines to the GL thread.
type TaskQueue struct {
	ctx   context.Context
	tasks chan func()
}

func NewTaskQueue(ctx context.Context, size int) *TaskQueue {
	return &TaskQueue{ctx: ctx, tasks: make(chan func(), size)}
}

// Dispatch queues fn. It gives up once the viewer shuts down.
func (q *TaskQueue) Dispatch(fn func()) {
	select {
	case q.tasks <- fn:
	case <-q.ctx.Done():
	}
}

// Drain runs every queued task on the calling goroutine and returns how many ran.
func (q *TaskQueue) Drain() int {
	n := 0
	for {
		select {
		case fn := <-q.tasks:
			fn()
			n++
		default:
			return n
		}
	}
}
