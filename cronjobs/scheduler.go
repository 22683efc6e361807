package cronjobs

import (
	"MedOffice/metrics"
	"MedOffice/services"
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	JobOverdueSweep  = "overdue_sweep"
	JobAlertDispatch = "alert_dispatch"

	defaultJobTimeout = 4 * time.Minute
)

// AlertJobs is the part of the alert service the scheduler triggers.
type AlertJobs interface {
	SweepOverdue(ctx context.Context, asOf time.Time) (*services.SweepResult, error)
	DispatchDue(ctx context.Context, asOf time.Time) (*services.DispatchResult, error)
}

type Config struct {
	SweepSchedule    string
	DispatchSchedule string
	Timeout          time.Duration
}

// Scheduler runs the periodic payment jobs. A run is skipped while the previous one is still going.
type Scheduler struct {
	cron    *cron.Cron
	alerts  AlertJobs
	metrics *metrics.Collector
	log     *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewScheduler(cfg Config, alerts AlertJobs, collector *metrics.Collector, log *zap.Logger) (*Scheduler, error) {
	cronLog := zapCronLogger{log: log.Sugar()}
	s := &Scheduler{
		cron:    cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		alerts:  alerts,
		metrics: collector,
		log:     log,
		timeout: cfg.Timeout,
		now:     time.Now,
	}
	if s.timeout <= 0 {
		s.timeout = defaultJobTimeout
	}

	if err := s.Register(JobOverdueSweep, cfg.SweepSchedule, s.RunSweep); err != nil {
		return nil, err
	}
	if err := s.Register(JobAlertDispatch, cfg.DispatchSchedule, s.RunDispatch); err != nil {
		return nil, err
	}
	return s, nil
}

// Register adds a named job. An empty spec leaves the job disabled.
func (s *Scheduler) Register(name, spec string, job func(ctx context.Context) error) error {
	if spec == "" {
		s.log.Info("cron job disabled", zap.String("job", name))
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.run(ctx, name, job)
	})
	if err != nil {
		return errors.Wrapf(err, "invalid schedule %q for job %s", spec, name)
	}
	s.log.Info("cron job registered", zap.String("job", name), zap.String("schedule", spec))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("cron jobs still running at shutdown")
	}
}

// RunSweep moves past due Pending payments to Overdue.
func (s *Scheduler) RunSweep(ctx context.Context) error {
	result, err := s.alerts.SweepOverdue(ctx, s.now())
	if err != nil {
		return err
	}
	s.log.Info("overdue sweep finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("transitioned", result.Transitioned),
		zap.Strings("failed", result.Failed),
	)
	return nil
}

// RunDispatch delivers the alerts that are due.
func (s *Scheduler) RunDispatch(ctx context.Context) error {
	result, err := s.alerts.DispatchDue(ctx, s.now())
	if err != nil {
		return err
	}
	s.log.Info("alert dispatch finished",
		zap.Int("attempted", result.Attempted),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)
	return nil
}

func (s *Scheduler) run(ctx context.Context, name string, job func(ctx context.Context) error) {
	start := time.Now()
	err := job(ctx)
	s.metrics.RecordJobRun(name, err)
	if err != nil {
		s.log.Error("cron job failed", zap.String("job", name), zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	s.log.Debug("cron job done", zap.String("job", name), zap.Duration("took", time.Since(start)))
}

// zapCronLogger adapts zap to cron.Logger.
type zapCronLogger struct {
	log *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
