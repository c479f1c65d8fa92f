package alert

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"hotel-ops-backend/internal/model"
)

// Sender abstracts the web push transport for testing.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender sends through the webpush library.
type WebPushSender struct{}

// Send implements Sender.
func (WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Event is one operator-facing alert: a room turned dirty, a guest turned
// angry. Broadcast to every subscribed browser.
type Event struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Pool fans alert events out to push subscriptions through a fixed set of
// workers. It implements sim.Notifier; Notify never blocks the engine, events
// are dropped with a log line when the buffer is full.
type Pool struct {
	size    int
	jobs    chan Event
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewPool creates an alert pool with the given worker count.
func NewPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *Pool {
	return &Pool{
		size:    size,
		jobs:    make(chan Event, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		go p.worker(ctx, i)
	}
}

// Notify implements sim.Notifier.
func (p *Pool) Notify(event, message string) {
	select {
	case p.jobs <- Event{Kind: event, Message: message}:
	default:
		log.Printf("Alert buffer full, dropping %s alert", event)
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	for {
		select {
		case ev := <-p.jobs:
			p.broadcast(ctx, ev)
		case <-ctx.Done():
			log.Printf("Alert worker %d shutting down", id)
			return
		}
	}
}

// broadcast sends one event to every subscription, pruning the expired ones.
func (p *Pool) broadcast(ctx context.Context, ev Event) {
	var subscriptions []model.PushSubscription
	if err := p.db.WithContext(ctx).Find(&subscriptions).Error; err != nil {
		log.Printf("Error fetching subscriptions: %v", err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Error encoding alert payload: %v", err)
		return
	}

	for _, sub := range subscriptions {
		p.send(ctx, sub, payload)
	}
}

func (p *Pool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := p.sender.Send(payload, wpSub, p.webpush)
	if err != nil {
		log.Printf("Error sending alert to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription %s is expired. Deleting.", sub.Endpoint)
		if err := p.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
