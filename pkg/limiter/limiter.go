package limiter

import (
	"context"

	"go.uber.org/atomic"
)

// ConcurrencyLimiter hands out a fixed number of tickets. It is used to
// bound how many interaction follow-ups talk to discord at once.
type ConcurrencyLimiter struct {
	name       string
	tickets    chan int
	inProgress *atomic.Int32
}

// NewConcurrencyLimiter allocates a limiter with limit tickets. A limit
// below one is raised to one.
func NewConcurrencyLimiter(name string, limit int) *ConcurrencyLimiter {
	if limit < 1 {
		limit = 1
	}

	c := &ConcurrencyLimiter{
		name:       name,
		tickets:    make(chan int, limit),
		inProgress: atomic.NewInt32(0),
	}

	for i := 0; i < limit; i++ {
		c.tickets <- i
	}

	return c
}

// Wait blocks until a ticket is free or ctx is done. Callers must pass the
// ticket back to FreeTicket.
func (c *ConcurrencyLimiter) Wait(ctx context.Context) (ticket int, err error) {
	select {
	case ticket = <-c.tickets:
		c.inProgress.Inc()

		return ticket, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// FreeTicket puts the ticket back into the queue.
func (c *ConcurrencyLimiter) FreeTicket(ticket int) {
	c.inProgress.Dec()
	c.tickets <- ticket
}

// InProgress returns how many tickets are in use.
func (c *ConcurrencyLimiter) InProgress() int32 {
	return c.inProgress.Load()
}

// Limit returns the number of tickets.
func (c *ConcurrencyLimiter) Limit() int {
	return cap(c.tickets)
}

func (c *ConcurrencyLimiter) Name() string {
	return c.name
}
