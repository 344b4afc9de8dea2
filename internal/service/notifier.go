package service

import (
	"sync"

	"github.com/yakubov45/TechStore-sub000/internal/domain"

	"go.uber.org/zap"
)

// OrderNotifier receives post-commit order events. Implementations must not
// block order placement and must never surface delivery failures to it.
type OrderNotifier interface {
	NotifyOrderCreated(order *domain.Order)
}

// OrderSender delivers one confirmation message. The real implementation
// talks to the messaging collaborator (email/SMS); tests stub it.
type OrderSender interface {
	SendOrderConfirmation(order *domain.Order) error
}

// AsyncNotifier queues order-created events on a buffered channel and
// delivers them from a single background goroutine. Order placement only
// enqueues; a full queue drops the event with a log line rather than
// blocking the transaction.
type AsyncNotifier struct {
	events chan *domain.Order
	sender OrderSender
	logger *zap.Logger
	done   chan struct{}
	once   sync.Once
}

// NewAsyncNotifier creates and starts an AsyncNotifier.
func NewAsyncNotifier(sender OrderSender, queueSize int, logger *zap.Logger) *AsyncNotifier {
	if queueSize <= 0 {
		queueSize = 64
	}
	n := &AsyncNotifier{
		events: make(chan *domain.Order, queueSize),
		sender: sender,
		logger: logger,
		done:   make(chan struct{}),
	}
	go n.run()
	return n
}

// NotifyOrderCreated enqueues the event without blocking.
func (n *AsyncNotifier) NotifyOrderCreated(order *domain.Order) {
	select {
	case n.events <- order:
	default:
		n.logger.Warn("Notification queue full, dropping order confirmation",
			zap.String("order_id", order.ID.String()),
		)
	}
}

// Close stops the dispatcher after draining queued events.
func (n *AsyncNotifier) Close() {
	n.once.Do(func() {
		close(n.events)
		<-n.done
	})
}

func (n *AsyncNotifier) run() {
	defer close(n.done)
	for order := range n.events {
		if err := n.sender.SendOrderConfirmation(order); err != nil {
			n.logger.Error("Failed to send order confirmation",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
		}
	}
}

// LogSender is the default OrderSender: it just records that a confirmation
// would have been sent. The real email/SMS collaborator is external to this
// service.
type LogSender struct {
	Logger *zap.Logger
}

// SendOrderConfirmation logs the confirmation event.
func (s *LogSender) SendOrderConfirmation(order *domain.Order) error {
	s.Logger.Info("Order confirmation dispatched",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", order.UserID.String()),
		zap.String("total", order.Total.String()),
	)
	return nil
}
