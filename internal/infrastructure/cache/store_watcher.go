package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lib/pq"
)

// StoreChangedChannel is notified by the store table trigger
const StoreChangedChannel = "eav_store_changed"

// Invalidator drops cached data
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// StoreWatcher clears cached store lists whenever the store table changes.
// It uses PostgreSQL LISTEN/NOTIFY; cache TTLs cover notifications lost while reconnecting.
type StoreWatcher struct {
	mu          sync.Mutex
	target      Invalidator
	onReconnect []Invalidator
	connStr     string
	listener    *pq.Listener
	stopCh      chan struct{}
	stopped     bool
	done        chan struct{}
}

// NewStoreWatcher creates a StoreWatcher invalidating target.
// connStr is the PostgreSQL connection string used for LISTEN.
// onReconnect are additionally invalidated after the listener connection was re-established.
func NewStoreWatcher(connStr string, target Invalidator, onReconnect ...Invalidator) *StoreWatcher {
	return &StoreWatcher{
		target:      target,
		onReconnect: onReconnect,
		connStr:     connStr,
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start begins listening for store changes
func (w *StoreWatcher) Start() error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("StoreWatcher listener error: %v", err)
		}
	}

	w.listener = pq.NewListener(w.connStr, 10*time.Second, time.Minute, reportProblem)
	if err := w.listener.Listen(StoreChangedChannel); err != nil {
		w.listener.Close()
		return fmt.Errorf("failed to listen on %s: %w", StoreChangedChannel, err)
	}

	go w.run(w.listener.Notify, w.listener.Ping)
	return nil
}

// Stop stops listening. It is safe to call more than once.
func (w *StoreWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()

	if w.listener == nil {
		return nil
	}
	<-w.done
	return w.listener.Close()
}

// run invalidates the target on every notification until Stop is called
func (w *StoreWatcher) run(notify <-chan *pq.Notification, ping func() error) {
	defer close(w.done)
	for {
		select {
		case <-w.stopCh:
			return
		case n := <-notify:
			targets := []Invalidator{w.target}
			if n != nil {
				log.Printf("Store list changed (%s), clearing cache", n.Extra)
			} else {
				// nil means the connection was re-established; changes may have been missed
				log.Println("Store listener reconnected, clearing caches")
				targets = append(targets, w.onReconnect...)
			}
			for _, target := range targets {
				if err := target.Invalidate(context.Background()); err != nil {
					log.Printf("StoreWatcher invalidate error: %v", err)
				}
			}
		case <-time.After(90 * time.Second):
			go func() {
				if err := ping(); err != nil {
					log.Printf("StoreWatcher ping error: %v", err)
				}
			}()
		}
	}
}
