// Package notify delivers stored notifications to channels outside the
// database after the writing unit of work has committed. Delivery is best
// effort: failures are logged and never reach the caller.
package notify

import (
	"context"
	"sync"
	"time"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/logger"
)

// Channel is one external delivery mechanism.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, recipient *domain.User, n domain.Notification) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id int32) (*domain.User, error)
}

// Notifier accepts committed notifications for delivery.
type Notifier interface {
	Enqueue(notes ...domain.Notification)
}

type Dispatcher struct {
	users    UserLookup
	channels []Channel
	queue    chan domain.Notification
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(users UserLookup, queueSize int, channels ...Channel) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Dispatcher{
		users:    users,
		channels: channels,
		queue:    make(chan domain.Notification, queueSize),
		timeout:  10 * time.Second,
	}
}

// Enqueue never blocks. When the queue is full the notification stays in the
// in-app inbox only.
func (d *Dispatcher) Enqueue(notes ...domain.Notification) {
	if len(d.channels) == 0 {
		return
	}
	for _, n := range notes {
		select {
		case d.queue <- n:
		default:
			logger.Warn("Notification queue full, dropping external delivery", "notificationID", n.ID, "userID", n.UserID)
		}
	}
}

// Start launches the delivery worker. It delivers queued notifications until
// ctx is cancelled, then drains what is left. Wait returns only after that
// drain, even when called right after Start.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.queue:
			// Cancellation stops the loop, not a delivery already picked up.
			d.Deliver(context.WithoutCancel(ctx), n)
		case <-ctx.Done():
			for {
				select {
				case n := <-d.queue:
					d.Deliver(context.Background(), n)
				default:
					return
				}
			}
		}
	}
}

// Wait blocks until the worker started by Start has drained the queue.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Deliver sends n through every channel synchronously.
func (d *Dispatcher) Deliver(ctx context.Context, n domain.Notification) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	user, err := d.users.GetByID(ctx, n.UserID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load notification recipient", "userID", n.UserID, "error", err)
		return
	}

	for _, ch := range d.channels {
		logger.ExternalServiceCall(ch.Name(), "Deliver", "notificationID", n.ID, "userID", n.UserID)
		err := ch.Deliver(ctx, user, n)
		logger.ExternalServiceResult(ch.Name(), "Deliver", err, "notificationID", n.ID)
	}
}
