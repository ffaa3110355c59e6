package locker

import (
	"context"
	"sync"
	"time"

	"visa-locker/internal/common/errors"
	"visa-locker/internal/common/logger"
	"visa-locker/internal/common/metrics"
	"visa-locker/internal/portal"
	"visa-locker/internal/questionnaire/answers"
)

const (
	KindPersonal  = "personal"
	KindQuestions = "questions"
	KindProgress  = "progress"
)

// Notice reports an autosave that failed for good. Local state is kept.
type Notice struct {
	Kind  string
	Field string
	Err   error
	At    time.Time
}

type AutosaveConfig struct {
	QueueSize  int
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Timeout    time.Duration
}

var DefaultAutosaveConfig = AutosaveConfig{
	QueueSize:  64,
	MaxRetries: 3,
	BaseDelay:  500 * time.Millisecond,
	MaxDelay:   5 * time.Second,
	Timeout:    10 * time.Second,
}

type saveItem struct {
	kind    string
	field   string
	value   string
	updates map[string]interface{}
	pct     int
}

// Autosaver sends mutations to the portal from one background goroutine, in
// enqueue order. Pending personal saves coalesce per field and pending
// question batches merge, so each call carries the latest value.
type Autosaver struct {
	gateway portal.Gateway
	token   string
	cfg     AutosaveConfig
	logger  logger.Logger

	mu      sync.Mutex
	queue   []*saveItem
	busy    bool
	waiters []chan struct{}
	closed  bool

	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	notices chan Notice
}

func NewAutosaver(gateway portal.Gateway, token string, cfg AutosaveConfig, log logger.Logger) *Autosaver {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultAutosaveConfig.QueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAutosaveConfig.Timeout
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	a := &Autosaver{
		gateway: gateway,
		token:   token,
		cfg:     cfg,
		logger:  log.WithFields(map[string]interface{}{"component": "autosave"}),
		queue:   make([]*saveItem, 0, cfg.QueueSize),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		notices: make(chan Notice, cfg.QueueSize),
	}
	go a.run()
	return a
}

// Notices delivers terminal failures. Notices are dropped when nobody reads.
func (a *Autosaver) Notices() <-chan Notice {
	return a.notices
}

func (a *Autosaver) SavePersonal(_ context.Context, field, value string) {
	a.enqueue(&saveItem{kind: KindPersonal, field: field, value: value})
}

func (a *Autosaver) SaveAnswers(_ context.Context, updates map[string]interface{}) {
	if len(updates) == 0 {
		return
	}
	copied := make(map[string]interface{}, len(updates))
	for k, v := range updates {
		copied[k] = v
	}
	a.enqueue(&saveItem{kind: KindQuestions, updates: copied})
}

// SaveProgress queues a progress sync behind the pending saves.
func (a *Autosaver) SaveProgress(_ context.Context, pct int) {
	a.enqueue(&saveItem{kind: KindProgress, pct: pct})
}

func (a *Autosaver) enqueue(item *saveItem) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.logger.Warn("autosave after close dropped", map[string]interface{}{"kind": item.kind})
		return
	}
	if !a.coalesce(item) {
		a.queue = append(a.queue, item)
	}
	metrics.AutosaveQueueDepth.Set(float64(len(a.queue)))
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// coalesce folds item into a pending item of the same kind. Caller holds mu.
func (a *Autosaver) coalesce(item *saveItem) bool {
	for _, pending := range a.queue {
		if pending.kind != item.kind {
			continue
		}
		switch item.kind {
		case KindPersonal:
			if pending.field == item.field {
				pending.value = item.value
				return true
			}
		case KindQuestions:
			for k, v := range item.updates {
				pending.updates[k] = v
			}
			return true
		case KindProgress:
			pending.pct = item.pct
			return true
		}
	}
	return false
}

// Flush blocks until every queued save has been attempted.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	if len(a.queue) == 0 && !a.busy {
		a.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	a.waiters = append(a.waiters, ch)
	a.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker after the save in flight. Call Flush first to
// drain the queue.
func (a *Autosaver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	close(a.stop)
	<-a.done

	a.mu.Lock()
	if n := len(a.queue); n > 0 {
		a.logger.Warn("autosave closed with pending saves", map[string]interface{}{"pending": n})
	}
	a.releaseWaiters()
	a.mu.Unlock()
}

func (a *Autosaver) run() {
	defer close(a.done)
	for {
		select {
		case <-a.stop:
			return
		case <-a.wake:
		}

		for {
			a.mu.Lock()
			if len(a.queue) == 0 {
				a.busy = false
				a.releaseWaiters()
				a.mu.Unlock()
				break
			}
			item := a.queue[0]
			a.queue = a.queue[1:]
			a.busy = true
			metrics.AutosaveQueueDepth.Set(float64(len(a.queue)))
			a.mu.Unlock()

			a.send(item)

			select {
			case <-a.stop:
				a.mu.Lock()
				a.busy = false
				a.mu.Unlock()
				return
			default:
			}
		}
	}
}

// releaseWaiters wakes Flush callers. Caller holds mu.
func (a *Autosaver) releaseWaiters() {
	for _, ch := range a.waiters {
		close(ch)
	}
	a.waiters = nil
}

func (a *Autosaver) send(item *saveItem) {
	start := time.Now()
	err := a.withRetry(item)
	metrics.AutosaveDuration.WithLabelValues(item.kind).Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.AutosaveCalls.WithLabelValues(item.kind, "success").Inc()
		return
	}

	metrics.AutosaveCalls.WithLabelValues(item.kind, "failed").Inc()
	a.logger.Error("autosave failed", map[string]interface{}{
		"kind":  item.kind,
		"field": item.field,
		"error": err,
	})
	select {
	case a.notices <- Notice{Kind: item.kind, Field: item.field, Err: err, At: time.Now().UTC()}:
	default:
	}
}

func (a *Autosaver) call(item *saveItem) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Timeout)
	defer cancel()

	switch item.kind {
	case KindPersonal:
		return a.gateway.UpdatePersonal(ctx, a.token, item.field, item.value)
	case KindProgress:
		return a.gateway.UpdateProgress(ctx, a.token, item.pct)
	default:
		return a.gateway.UpdateQuestions(ctx, a.token, answers.ToPersisted(item.updates))
	}
}

func (a *Autosaver) withRetry(item *saveItem) error {
	var lastErr error
	for attempt := 0; attempt <= a.cfg.MaxRetries; attempt++ {
		lastErr = a.call(item)
		if lastErr == nil || !errors.IsRetryable(lastErr) || attempt == a.cfg.MaxRetries {
			return lastErr
		}
		metrics.AutosaveRetries.WithLabelValues(item.kind).Inc()

		delay := a.cfg.BaseDelay * time.Duration(1<<attempt)
		if a.cfg.MaxDelay > 0 && delay > a.cfg.MaxDelay {
			delay = a.cfg.MaxDelay
		}
		select {
		case <-time.After(delay):
		case <-a.stop:
			return lastErr
		}
	}
	return lastErr
}
