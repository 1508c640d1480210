package activity

import (
	"context"
	"github.com/sirupsen/logrus"
	"time"
)

// Sink persists entries. *Repo is the production sink.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// Recorder is the append-only audit trail used by the catalog and the invoice
// engine. A failed write is logged and dropped; it never fails the caller.
type Recorder struct {
	sink Sink
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewRecorder(sink Sink, log logrus.FieldLogger) *Recorder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recorder{sink: sink, log: log, now: time.Now}
}

func (r *Recorder) Log(ctx context.Context, e Entry) {
	if r == nil || r.sink == nil {
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	if err := r.sink.Record(ctx, e); err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"action": e.ActionType,
			"target": e.TargetType + ":" + e.TargetValue,
		}).Warn("activity log write failed")
	}
}
