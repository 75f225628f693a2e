package executor

import (
	"context"
	"log"
	"sync"

	"github.com/jonathan/jobpilot/internal/types"
)

// Task is one queued submission. Done, when non-nil, receives the result
// exactly once.
type Task struct {
	User     *types.UserProfile
	Job      *types.JobPosting
	Packet   *types.PreparedJob
	Strategy string
	Done     chan TaskResult
}

// TaskResult pairs the Apply outcome with its error.
type TaskResult struct {
	Result *Result
	Err    error
}

// Pool runs submissions on a fixed set of workers. A submission never
// crosses workers: each task runs end to end on the worker that picked it
// up.
type Pool struct {
	executor *Executor
	tasks    chan Task
	wg       sync.WaitGroup
}

// NewPool starts workers draining the queue until ctx is cancelled.
func NewPool(ctx context.Context, exec *Executor, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		executor: exec,
		tasks:    make(chan Task, workers*4),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	return p
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			result, err := p.executor.Apply(ctx, task.User, task.Job, task.Packet, task.Strategy)
			if err != nil {
				log.Printf("[executor] queued submission failed for user %d job %s: %v",
					task.User.UserID, task.Job.ID, err)
			}
			if task.Done != nil {
				task.Done <- TaskResult{Result: result, Err: err}
			}
		}
	}
}

// Enqueue queues a task, blocking when the queue is full. It returns false
// once the pool context is cancelled.
func (p *Pool) Enqueue(ctx context.Context, task Task) bool {
	select {
	case p.tasks <- task:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close stops intake and waits for in-flight tasks to finish.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
