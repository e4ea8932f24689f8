package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"carwash-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool sends "car ready" notifications for finished washes.
type WorkerPool struct {
	size    int
	jobs    chan string
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool. Jobs are wash tickets.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan string, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case ticket := <-wp.jobs:
			log.Printf("Worker %d processing wash %s", id, ticket)
			wp.notifyWashFinished(ctx, ticket)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a finished wash. It never blocks the caller: when the queue
// is full the notification is dropped and logged.
func (wp *WorkerPool) Dispatch(ticket string) {
	select {
	case wp.jobs <- ticket:
	default:
		log.Printf("Notification queue full; dropping notification for wash %s", ticket)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

// notifyWashFinished notifies only the subscriptions watching ticket, then
// forgets the watches since a ticket finishes once.
func (wp *WorkerPool) notifyWashFinished(ctx context.Context, ticket string) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN ticket_watches tw ON tw.endpoint = push_subscriptions.endpoint").
		Where("tw.ticket = ?", ticket).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for wash %s: %v", ticket, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for wash %s", len(subscriptions), ticket)

	message := fmt.Sprintf("Your car is ready! (ticket %s)", shortTicket(ticket))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}

	if err := wp.db.WithContext(ctx).Where("ticket = ?", ticket).Delete(&model.TicketWatch{}).Error; err != nil {
		log.Printf("Failed to clear watches for wash %s: %v", ticket, err)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		err := wp.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("endpoint = ?", sub.Endpoint).Delete(&model.TicketWatch{}).Error; err != nil {
				return err
			}
			return tx.Delete(&sub).Error
		})
		if err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}

// shortTicket keeps the first block of a UUID ticket, which is what customers read off the receipt.
func shortTicket(ticket string) string {
	if len(ticket) > 8 {
		return ticket[:8]
	}
	return ticket
}
