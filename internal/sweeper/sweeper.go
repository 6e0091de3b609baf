package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shenikar/saferoute/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Expirer переводит истекшие активные инциденты в resolved одним условным UPDATE
type Expirer interface {
	ExpireActive(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper - периодическая задача истечения TTL инцидентов.
// Ошибка цикла логируется, следующий цикл выполняется по расписанию.
type Sweeper struct {
	expirer  Expirer
	interval time.Duration
	logger   *logrus.Logger
	now      func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func New(expirer Expirer, interval time.Duration, logger *logrus.Logger) *Sweeper {
	return &Sweeper{
		expirer:  expirer,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start запускает расписание; первый цикл выполняется сразу. Повторный вызов ничего не делает.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	s.logger.WithField("interval", s.interval).Info("Starting incident sweeper")
	go s.loop(ctx, s.done)
}

// Stop отменяет расписание и ждет завершения текущего цикла
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("Incident sweeper stopped")
}

// Run блокирует до отмены ctx; удобно для errgroup
func (s *Sweeper) Run(ctx context.Context) error {
	s.Start(ctx)
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.cycle(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.SweeperErrors.Inc()
			s.logger.WithField("panic", r).Error("Sweep cycle panicked")
		}
	}()

	expired, err := s.RunOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		metrics.SweeperErrors.Inc()
		s.logger.WithError(err).Error("Sweep cycle failed, retrying on next interval")
		return
	}
	if expired > 0 {
		s.logger.WithField("expired", expired).Info("Marked expired incidents as resolved")
	}
}

// RunOnce выполняет один цикл
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	expired, err := s.expirer.ExpireActive(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweeper: expire active incidents: %w", err)
	}
	metrics.SweeperExpired.Add(float64(expired))
	return expired, nil
}
