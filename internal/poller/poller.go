// Package poller запускает задачу периодически до остановки или отмены контекста.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrAlreadyRunning = errors.New("poller is already running")

type Poller struct {
	interval time.Duration
	fn       func(ctx context.Context) error
	onError  func(error)
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

type Option func(*Poller)

// WithOnError задает обработчик ошибок задачи. Ошибка не останавливает цикл.
func WithOnError(fn func(error)) Option {
	return func(p *Poller) { p.onError = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) { p.logger = logger }
}

func New(interval time.Duration, fn func(ctx context.Context) error, opts ...Option) *Poller {
	p := &Poller{
		interval: interval,
		fn:       fn,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start выполняет задачу сразу и затем на каждом тике.
// Не блокирует: цикл живет до Stop или отмены ctx.
func (p *Poller) Start(ctx context.Context) error {
	if p.interval <= 0 {
		return errors.New("poller interval must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.running = true

	go p.loop(ctx, done)
	return nil
}

// Stop останавливает цикл и ждет завершения текущего вызова задачи.
// Повторный вызов ничего не делает.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running сообщает, работает ли цикл сейчас
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		p.mu.Lock()
		p.running = false
		p.cancel = nil
		p.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.tick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := p.fn(ctx); err != nil {
		if p.onError != nil {
			p.onError(err)
			return
		}
		p.logger.Error("poll failed", "error", err)
	}
}
