// internal/app/system/workers/alertdispatch.go
package workers

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/kinshealth/internal/app/store/queries/jobmatch"
	"github.com/dalemusser/kinshealth/internal/app/system/messaging"
	"github.com/dalemusser/kinshealth/internal/app/system/metrics"
	"github.com/dalemusser/kinshealth/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrQueueFull is returned when the dispatcher cannot accept more work.
var ErrQueueFull = errors.New("alert queue is full")

// ErrStopped is returned after Stop.
var ErrStopped = errors.New("alert dispatcher is stopped")

// AlertSource loads what the dispatcher needs to address alerts.
type AlertSource interface {
	Job(ctx context.Context, id primitive.ObjectID) (*models.Job, error)
	JobRecipients(ctx context.Context, job models.Job) ([]jobmatch.Recipient, error)
	Caregiver(ctx context.Context, userID string) (*models.User, error)
	SampleProvider(ctx context.Context) (*models.User, error)
}

// AlertConfig holds the template ids and the fan-out cap.
type AlertConfig struct {
	JobAlertTemplate       string
	CaregiverAlertTemplate string
	FanoutCap              int
	QueueSize              int
	TaskTimeout            time.Duration
}

// Summary reports one fan-out.
type Summary struct {
	Recipients int `json:"recipients"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
}

type task struct {
	jobID       primitive.ObjectID
	caregiverID string
}

// AlertDispatcher is a background worker that sends alert emails from a
// buffered queue, one message at a time.
type AlertDispatcher struct {
	src     AlertSource
	email   messaging.Emailer
	metrics *metrics.Metrics
	cfg     AlertConfig
	log     *zap.Logger

	queue  chan task
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	rng     *rand.Rand
}

// NewAlertDispatcher creates a dispatcher. Call Start before enqueueing.
func NewAlertDispatcher(src AlertSource, email messaging.Emailer, m *metrics.Metrics, cfg AlertConfig, logger *zap.Logger) *AlertDispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.FanoutCap <= 0 {
		cfg.FanoutCap = 1000
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 10 * time.Minute
	}
	return &AlertDispatcher{
		src:     src,
		email:   email,
		metrics: m,
		cfg:     cfg,
		log:     logger,
		queue:   make(chan task, cfg.QueueSize),
		stopCh:  make(chan struct{}),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start begins the background send loop.
func (d *AlertDispatcher) Start() {
	d.wg.Add(1)
	go d.run()
	d.log.Info("alert dispatcher started",
		zap.Int("queue_size", d.cfg.QueueSize),
		zap.Int("fanout_cap", d.cfg.FanoutCap))
}

// Stop signals the worker to stop and waits for the task in flight.
// Queued tasks are dropped.
func (d *AlertDispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.stopCh)
	d.mu.Unlock()
	d.wg.Wait()
	d.log.Info("alert dispatcher stopped", zap.Int("dropped", len(d.queue)))
}

// EnqueueJobAlert queues a fan-out for a newly published job.
func (d *AlertDispatcher) EnqueueJobAlert(jobID primitive.ObjectID) error {
	return d.enqueue(task{jobID: jobID})
}

// EnqueueCaregiverAlert queues a new-caregiver notice to one provider.
func (d *AlertDispatcher) EnqueueCaregiverAlert(caregiverID string) error {
	return d.enqueue(task{caregiverID: caregiverID})
}

func (d *AlertDispatcher) enqueue(t task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}
	select {
	case d.queue <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *AlertDispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopCh:
			return
		case t := <-d.queue:
			d.process(t)
		}
	}
}

func (d *AlertDispatcher) process(t task) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.TaskTimeout)
	defer cancel()
	go func() {
		select {
		case <-d.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if t.caregiverID != "" {
		if err := d.SendCaregiverAlert(ctx, t.caregiverID); err != nil {
			d.log.Warn("caregiver alert failed", zap.String("caregiver_id", t.caregiverID), zap.Error(err))
		}
		return
	}
	sum, err := d.SendJobAlerts(ctx, t.jobID)
	if err != nil {
		d.log.Warn("job alert fan-out failed", zap.String("job_id", t.jobID.Hex()), zap.Error(err))
		return
	}
	d.log.Info("job alert fan-out finished",
		zap.String("job_id", t.jobID.Hex()),
		zap.Int("recipients", sum.Recipients),
		zap.Int("sent", sum.Sent),
		zap.Int("failed", sum.Failed))
}

// SendJobAlerts emails caregivers near the job. Recipients are shuffled and
// capped before sending; each send is independent and failures only count.
func (d *AlertDispatcher) SendJobAlerts(ctx context.Context, jobID primitive.ObjectID) (Summary, error) {
	job, err := d.src.Job(ctx, jobID)
	if err != nil {
		return Summary{}, err
	}
	recips, err := d.src.JobRecipients(ctx, *job)
	if err != nil {
		return Summary{}, err
	}
	d.mu.Lock()
	recips = jobmatch.ShuffleCap(d.rng, recips, d.cfg.FanoutCap)
	d.mu.Unlock()

	sum := Summary{Recipients: len(recips)}
	for _, rc := range recips {
		if ctx.Err() != nil {
			break
		}
		err := d.email.SendEmail(ctx, messaging.Email{
			To:         rc.Email,
			TemplateID: d.cfg.JobAlertTemplate,
			Data: map[string]any{
				"name":         rc.Name,
				"distance":     rc.Miles,
				"job_id":       job.ID.Hex(),
				"job_title":    job.Title,
				"city":         job.City,
				"compensation": job.Compensation,
				"schedule":     job.Schedule,
			},
		})
		if err != nil {
			sum.Failed++
			d.metrics.AlertSent(metrics.ChannelEmail, metrics.OutcomeFailed)
			d.log.Debug("job alert email failed", zap.String("user_id", rc.UserID), zap.Error(err))
			continue
		}
		sum.Sent++
		d.metrics.AlertSent(metrics.ChannelEmail, metrics.OutcomeSent)
	}
	return sum, nil
}

// SendCaregiverAlert tells one randomly chosen provider about a caregiver.
func (d *AlertDispatcher) SendCaregiverAlert(ctx context.Context, caregiverID string) error {
	cg, err := d.src.Caregiver(ctx, caregiverID)
	if err != nil {
		return err
	}
	prov, err := d.src.SampleProvider(ctx)
	if err != nil {
		return err
	}
	to := prov.Email
	if s, ok := prov.Settings["email"].(string); ok && s != "" {
		to = s
	}
	err = d.email.SendEmail(ctx, messaging.Email{
		To:         to,
		TemplateID: d.cfg.CaregiverAlertTemplate,
		Data: map[string]any{
			"provider_name":  prov.DisplayName(),
			"caregiver_id":   cg.UserID,
			"caregiver_name": cg.DisplayName(),
			"city":           cg.City,
			"licenses":       strings.Join(cg.Licenses, ", "),
		},
	})
	if err != nil {
		d.metrics.AlertSent(metrics.ChannelEmail, metrics.OutcomeFailed)
		return err
	}
	d.metrics.AlertSent(metrics.ChannelEmail, metrics.OutcomeSent)
	return nil
}
