package jobs

import (
	"context"
	"errors"
	"github.com/ariefcatur/go-realtime-store/internal/activity"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"time"
)

const TaskExpireSweep = "invoice:expire_sweep"

type Expirer interface {
	ExpireDue(ctx context.Context) ([]string, error)
}

type Auditor interface {
	Log(ctx context.Context, e activity.Entry)
}

// ExpirySweepJob moves overdue invoices to EXPIRED. Each run is one UPDATE, so
// overlapping runs or a run racing a payment cannot expire an invoice twice.
type ExpirySweepJob struct {
	Invoices Expirer
	Audit    Auditor
	Log      logrus.FieldLogger
	Metrics  *Metrics
}

func NewExpireSweepTask() *asynq.Task {
	return asynq.NewTask(TaskExpireSweep, nil)
}

// Cron returns the periodic registration. A missed sweep is simply picked up
// by the next one, so the task is never retried.
func (j *ExpirySweepJob) Cron(spec string) CronRegistration {
	return CronRegistration{
		Spec: spec,
		Task: NewExpireSweepTask(),
		Options: []asynq.Option{
			asynq.MaxRetry(0),
			asynq.Timeout(30 * time.Second),
			asynq.Queue(QueueDefault),
		},
	}
}

func (j *ExpirySweepJob) Handle(ctx context.Context, _ *asynq.Task) error {
	_, err := j.Sweep(ctx)
	return err
}

// Sweep runs one expiry pass and returns the codes it expired.
func (j *ExpirySweepJob) Sweep(ctx context.Context) (codes []string, err error) {
	if j == nil || j.Invoices == nil {
		return nil, errors.New("expiry sweep: handler not configured")
	}
	tracker := j.Metrics.Track(TaskExpireSweep)
	defer func() { err = tracker.End(err) }()

	codes, err = j.Invoices.ExpireDue(ctx)
	if err != nil {
		j.logger().WithError(err).Error("expiry sweep failed")
		return nil, err
	}
	if len(codes) == 0 {
		return codes, nil
	}

	for _, code := range codes {
		if j.Audit != nil {
			j.Audit.Log(ctx, activity.System.Entry(activity.ActionAutoExpire, activity.TargetInvoice, code,
				"Invoice expired otomatis"))
		}
	}
	j.Metrics.AddExpired(len(codes))
	j.logger().WithField("count", len(codes)).Info("expiry sweep done")
	return codes, nil
}

func (j *ExpirySweepJob) logger() logrus.FieldLogger {
	if j.Log != nil {
		return j.Log.WithField("job", TaskExpireSweep)
	}
	return logrus.WithField("job", TaskExpireSweep)
}
