package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/citatum/internal/interfaces"
	"github.com/ternarybob/citatum/internal/models"
)

// Pool runs a fixed set of workers that drain the task queue. Every task
// runs through the idempotency manager: a duplicate registration means
// another delivery already handled the work, so the message is acked and
// skipped.
type Pool struct {
	queue        interfaces.QueueManager
	tasks        interfaces.TaskService
	executors    map[string]interfaces.TaskExecutor
	logger       arbor.ILogger
	numWorkers   int
	pollInterval time.Duration
	softTimeout  time.Duration
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
}

// Compile-time interface assertion
var _ interfaces.WorkerPool = (*Pool)(nil)

func NewPool(queue interfaces.QueueManager, tasks interfaces.TaskService, logger arbor.ILogger, numWorkers int, pollInterval, softTimeout time.Duration) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	if numWorkers <= 0 {
		numWorkers = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &Pool{
		queue:        queue,
		tasks:        tasks,
		executors:    make(map[string]interfaces.TaskExecutor),
		logger:       logger,
		numWorkers:   numWorkers,
		pollInterval: pollInterval,
		softTimeout:  softTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// RegisterExecutor registers an executor for a task type
func (p *Pool) RegisterExecutor(taskType string, executor interfaces.TaskExecutor) {
	p.executors[taskType] = executor
	p.logger.Info().
		Str("task_type", taskType).
		Msg("Executor registered")
}

// Start starts the worker pool
func (p *Pool) Start() {
	p.logger.Info().
		Int("num_workers", p.numWorkers).
		Msg("Starting worker pool")

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop stops the worker pool, waiting for in-flight tasks to finish
func (p *Pool) Stop() {
	p.logger.Info().Msg("Stopping worker pool...")
	p.cancel()
	p.wg.Wait()
	p.logger.Info().Msg("Worker pool stopped")
}

func (p *Pool) worker(workerID int) {
	defer p.wg.Done()

	p.logger.Debug().
		Int("worker_id", workerID).
		Msg("Worker started")

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug().
				Int("worker_id", workerID).
				Msg("Worker stopping")
			return
		default:
			if !p.processNext(workerID) {
				// Empty queue, back off before polling again
				select {
				case <-p.ctx.Done():
				case <-time.After(p.pollInterval):
				}
			}
		}
	}
}

// processNext handles one message. Returns false when the queue was empty.
func (p *Pool) processNext(workerID int) bool {
	msg, ack, err := p.queue.Receive(p.ctx)
	if err != nil {
		if !errors.Is(err, models.ErrNoMessage) && p.ctx.Err() == nil {
			p.logger.Error().Err(err).Msg("Failed to receive from queue")
		}
		return false
	}

	p.logger.Info().
		Int("worker_id", workerID).
		Str("task_id", msg.TaskID).
		Str("task_type", msg.Type).
		Msg("Processing task")

	executor, ok := p.executors[msg.Type]
	if !ok {
		p.logger.Error().
			Str("task_type", msg.Type).
			Str("task_id", msg.TaskID).
			Msg("No executor registered for task type")
		p.ackMessage(msg.TaskID, ack)
		return true
	}

	exec, err := p.tasks.Register(p.ctx, msg.Type, msg.Payload, msg.TaskID)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateTask) {
			prior, getErr := p.tasks.GetByExternalID(p.ctx, msg.TaskID)
			if getErr != nil {
				// Leave the message unacked so the visibility timeout
				// redelivers it once the store answers again
				p.logger.Error().
					Err(getErr).
					Str("task_id", msg.TaskID).
					Msg("Failed to load prior execution for redelivered task")
				return true
			}
			if prior.Terminal() {
				// First attempt finished, this delivery is a no-op
				p.logger.Info().
					Str("task_id", msg.TaskID).
					Str("status", prior.Status).
					Msg("Task already completed, skipping")
				p.ackMessage(msg.TaskID, ack)
				return true
			}
			// The earlier attempt died before recording a terminal
			// status; run the work again under the same execution
			p.logger.Warn().
				Str("task_id", msg.TaskID).
				Str("status", prior.Status).
				Msg("Redelivered task never completed, re-running")
			exec = prior
		} else {
			p.logger.Error().
				Err(err).
				Str("task_id", msg.TaskID).
				Msg("Failed to register task execution")
			p.ackMessage(msg.TaskID, ack)
			return true
		}
	}

	if err := p.tasks.MarkStarted(p.ctx, exec.ExecutionID); err != nil {
		p.logger.Warn().
			Err(err).
			Str("execution_id", exec.ExecutionID).
			Msg("Failed to mark task started")
	}

	result, runErr := p.runExecutor(executor, msg)

	if runErr != nil {
		p.logger.Error().
			Err(runErr).
			Str("task_id", msg.TaskID).
			Msg("Task failed")
		if err := p.tasks.MarkCompleted(p.ctx, exec.ExecutionID, models.TaskStatusFailure, nil, runErr.Error()); err != nil {
			p.logger.Error().Err(err).Str("execution_id", exec.ExecutionID).Msg("Failed to record task failure")
		}
	} else {
		p.logger.Info().
			Str("task_id", msg.TaskID).
			Msg("Task completed")
		if err := p.tasks.MarkCompleted(p.ctx, exec.ExecutionID, models.TaskStatusSuccess, result, ""); err != nil {
			p.logger.Error().Err(err).Str("execution_id", exec.ExecutionID).Msg("Failed to record task result")
		}
	}

	p.ackMessage(msg.TaskID, ack)
	return true
}

// runExecutor applies the soft timeout, which is kept shorter than the
// queue visibility timeout so a task cancels before its message reappears.
func (p *Pool) runExecutor(executor interfaces.TaskExecutor, msg *models.QueueMessage) (result any, err error) {
	ctx := p.ctx
	if p.softTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(p.ctx, p.softTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return executor(ctx, msg)
}

func (p *Pool) ackMessage(taskID string, ack func() error) {
	if err := ack(); err != nil {
		p.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("Failed to delete message from queue")
	}
}
