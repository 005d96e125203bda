// Package ratelimit throttles outgoing page fetches per host.
package ratelimit

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	mu       sync.Mutex
	lastSeen time.Time
}

func (e *entry) touch(now time.Time) {
	e.mu.Lock()
	e.lastSeen = now
	e.mu.Unlock()
}

func (e *entry) idleSince(now time.Time) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return now.Sub(e.lastSeen)
}

// Limiter keeps one token bucket per host so that a crawl spread over
// several wikis does not let one host starve the others.
type Limiter struct {
	rate  rate.Limit
	burst int
	hosts sync.Map // map[string]*entry

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Limiter that allows r requests per second per host with the
// given burst size. A non-positive r disables throttling. A background
// goroutine evicts idle hosts; call Stop to release it.
func New(r float64, burst int) *Limiter {
	lim := rate.Limit(r)
	if r <= 0 {
		lim = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	l := &Limiter{
		rate:  lim,
		burst: burst,
		stop:  make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *Limiter) get(host string) *entry {
	now := time.Now()
	v, _ := l.hosts.LoadOrStore(host, &entry{
		limiter:  rate.NewLimiter(l.rate, l.burst),
		lastSeen: now,
	})
	e := v.(*entry)
	e.touch(now)
	return e
}

// Wait blocks until a request to host is permitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	return l.get(host).limiter.Wait(ctx)
}

// Stop terminates the background cleanup goroutine. It is safe to call more
// than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

const staleAfter = 5 * time.Minute

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.hosts.Range(func(key, value any) bool {
				if value.(*entry).idleSince(now) > staleAfter {
					l.hosts.Delete(key)
				}
				return true
			})
		}
	}
}

// HostOf returns the host portion of rawURL, or rawURL itself when it does
// not parse.
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
