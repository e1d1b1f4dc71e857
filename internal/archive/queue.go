package archive

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrQueueClosed is returned by Queue.Store after Stop.
var ErrQueueClosed = errors.New("archive: queue is closed")

// QueueConfig tunes a Queue. Zero fields take defaults.
type QueueConfig struct {
	BufferSize int           // pending outputs before Store blocks, default 100
	Workers    int           // concurrent uploads, default 2
	MaxRetries int           // retries after the first attempt, default 3
	Backoff    time.Duration // base delay, multiplied by the attempt number, default 1s
}

// Queue is a Sink that hands outputs to background workers, so archiving
// never delays a command. Failed uploads are retried with linear backoff and
// dropped, with a log entry, once retries run out.
type Queue struct {
	next Sink
	cfg  QueueConfig
	log  zerolog.Logger

	jobs      chan *queuedOutput
	closeChan chan struct{}
	wg        sync.WaitGroup
	retries   sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
}

type queuedOutput struct {
	out     *Output
	attempt int
}

// NewQueue starts cfg.Workers workers writing to next.
func NewQueue(next Sink, cfg QueueConfig, log zerolog.Logger) *Queue {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 100
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}

	q := &Queue{
		next:      next,
		cfg:       cfg,
		log:       log,
		jobs:      make(chan *queuedOutput, cfg.BufferSize),
		closeChan: make(chan struct{}),
	}
	for i := 0; i < cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Store implements Sink. It enqueues out and returns the object name it
// will be written under.
func (q *Queue) Store(ctx context.Context, out *Output) (string, error) {
	if err := q.enqueue(ctx, &queuedOutput{out: out}); err != nil {
		return "", err
	}
	return ObjectName(out), nil
}

func (q *Queue) enqueue(ctx context.Context, item *queuedOutput) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return ErrQueueClosed
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.closeChan:
			// Drain what was accepted before Stop.
			for {
				select {
				case item := <-q.jobs:
					q.process(item, false)
				default:
					return
				}
			}
		case item := <-q.jobs:
			q.process(item, true)
		}
	}
}

// process uploads one output. Retries are only scheduled while the queue
// is open.
func (q *Queue) process(item *queuedOutput, canRetry bool) {
	// Uploads outlive the request that produced them.
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err := q.next.Store(ctx, item.out)
	if err == nil {
		return
	}

	log := q.log.With().Str("output_id", item.out.ID).Int("attempt", item.attempt+1).Logger()
	if !canRetry || item.attempt >= q.cfg.MaxRetries {
		log.Error().Err(err).Msg("dropping model output after failed archive attempts")
		return
	}

	log.Warn().Err(err).Msg("archive attempt failed, retrying")
	item.attempt++
	backoff := time.Duration(item.attempt) * q.cfg.Backoff

	q.retries.Add(1)
	time.AfterFunc(backoff, func() {
		defer q.retries.Done()
		if err := q.enqueue(context.Background(), item); err != nil {
			log.Error().Err(err).Msg("dropping model output, queue closed before retry")
		}
	})
}

// Stop rejects new outputs, uploads the ones already queued, and waits for
// the workers or ctx.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		q.retries.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the queue, waiting up to 30 seconds for queued uploads.
func (q *Queue) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return q.Stop(ctx)
}

var _ Sink = (*Queue)(nil)
