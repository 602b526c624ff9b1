package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDispatchTimeout bounds each side effect of a dispatch.
const DefaultDispatchTimeout = 10 * time.Second

// Outcome reports the result of both side effects of one dispatch.
type Outcome struct {
	NotifierErr error
	RecorderErr error
	RecordID    string
}

// OK reports whether both side effects succeeded.
func (o Outcome) OK() bool {
	return o.NotifierErr == nil && o.RecorderErr == nil
}

// Fanout runs the Notifier and the Recorder concurrently for a FailedPayment.
type Fanout struct {
	notifier Notifier
	recorder Recorder
	timeout  time.Duration
	logger   *zap.Logger
}

// NewFanout creates a Fanout. A non-positive timeout uses DefaultDispatchTimeout.
func NewFanout(notifier Notifier, recorder Recorder, timeout time.Duration, logger *zap.Logger) *Fanout {
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{
		notifier: notifier,
		recorder: recorder,
		timeout:  timeout,
		logger:   logger,
	}
}

// Dispatch returns once both side effects finish or their timeouts expire.
// The side effects are detached from ctx cancellation so a disconnecting
// client does not abort them; each failure is logged and never affects the other.
func (f *Fanout) Dispatch(ctx context.Context, payment FailedPayment) Outcome {
	base := context.WithoutCancel(ctx)
	var (
		wg  sync.WaitGroup
		out Outcome
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, out.NotifierErr = f.run(base, "notifier", ErrNotifierFailed, func(c context.Context) (string, error) {
			return "", f.notifier.Notify(c, payment)
		})
	}()
	go func() {
		defer wg.Done()
		out.RecordID, out.RecorderErr = f.run(base, "recorder", ErrRecorderFailed, func(c context.Context) (string, error) {
			return f.recorder.Record(c, payment)
		})
	}()
	wg.Wait()

	if out.NotifierErr != nil {
		f.logger.Error("failed to send failure alert",
			zap.String("payment_id", payment.PaymentID),
			zap.Error(out.NotifierErr))
	}
	if out.RecorderErr != nil {
		f.logger.Error("failed to record failed payment",
			zap.String("payment_id", payment.PaymentID),
			zap.Error(out.RecorderErr))
	}
	return out
}

// run executes task under its own timeout. A task that ignores its context
// is abandoned when the timeout fires.
func (f *Fanout) run(base context.Context, name string, sentinel error, task func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(base, f.timeout)
	defer cancel()

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: %s panicked: %v", sentinel, name, r)}
			}
		}()
		id, err := task(ctx)
		done <- result{id: id, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		return res.id, nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %s timed out after %s: %w", sentinel, name, f.timeout, ctx.Err())
	}
}
