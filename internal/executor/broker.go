package executor

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
)

// ErrBrokerBusy is returned when another execution already owns the interrupt.
var ErrBrokerBusy = errors.New("interrupt broker already owned")

// Broker hands the process-wide interrupt signal to at most one execution.
// When nobody owns it, interrupts go to the idle handler.
type Broker struct {
	mu    sync.Mutex
	owner chan struct{}
	idle  func()
}

// NewBroker creates a Broker. idle may be nil.
func NewBroker(idle func()) *Broker {
	return &Broker{idle: idle}
}

// SetIdle replaces the handler used when no execution owns the broker.
func (b *Broker) SetIdle(idle func()) {
	b.mu.Lock()
	b.idle = idle
	b.mu.Unlock()
}

// Lease is exclusive ownership of the interrupt signal.
type Lease struct {
	// C receives one value per delivered interrupt.
	C <-chan struct{}

	b    *Broker
	ch   chan struct{}
	once sync.Once
}

// Acquire takes ownership. The lease must be released on every exit path.
func (b *Broker) Acquire() (*Lease, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.owner != nil {
		return nil, ErrBrokerBusy
	}
	ch := make(chan struct{}, 1)
	b.owner = ch
	return &Lease{C: ch, b: b, ch: ch}, nil
}

// Release gives ownership back. Safe to call more than once.
func (l *Lease) Release() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		l.b.mu.Lock()
		if l.b.owner == l.ch {
			l.b.owner = nil
		}
		l.b.mu.Unlock()
	})
}

// Busy reports whether an execution currently owns the broker.
func (b *Broker) Busy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.owner != nil
}

// Deliver routes one interrupt. It returns true if an owner received it.
// Deliveries to an owner that has not consumed the previous one are dropped.
func (b *Broker) Deliver() bool {
	b.mu.Lock()
	owner, idle := b.owner, b.idle
	if owner != nil {
		select {
		case owner <- struct{}{}:
		default:
		}
		b.mu.Unlock()
		return true
	}
	b.mu.Unlock()

	if idle != nil {
		idle()
	}
	return false
}

// Listen relays OS interrupts to Deliver until ctx is done.
func (b *Broker) Listen(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			b.Deliver()
		}
	}
}
