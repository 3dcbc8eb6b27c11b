package email

import (
	"context"
	"fmt"
	"time"

	"github.com/darasahq/darasa/core"
)

// Dispatcher is the outbox worker: the only background goroutine in the
// process. It sweeps pending email logs on a fixed interval and hands them to
// the Service for delivery.
type Dispatcher struct {
	svc      *Service
	logger   core.Logger
	interval time.Duration

	kick chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewDispatcher(svc *Service, logger core.Logger) *Dispatcher {
	return &Dispatcher{
		svc:      svc,
		logger:   logger,
		interval: core.Conf.Email.DispatchInterval,
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. It returns immediately; call Stop to shut
// the loop down and wait for an in-flight sweep to finish.
func (d *Dispatcher) Start() {
	go d.run()
}

func (d *Dispatcher) run() {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-d.kick:
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), d.interval)
		if err := d.svc.DispatchDue(ctx); err != nil {
			d.logger.Error(fmt.Sprintf("email: outbox sweep: %v", err))
		}
		cancel()
	}
}

// Kick requests an immediate sweep without waiting for the next tick. Safe to
// call from any goroutine; a sweep already scheduled absorbs the request.
func (d *Dispatcher) Kick() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) Stop() {
	close(d.stop)
	<-d.done
}
