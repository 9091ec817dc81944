package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
)

func newTrackingSession() *chromeSession {
	return &chromeSession{
		inflight:  make(map[network.RequestID]struct{}),
		lastEvent: time.Now(),
	}
}

func TestOnEventRedirectsDoNotLeak(t *testing.T) {
	s := newTrackingSession()

	for _, id := range []network.RequestID{"1", "2", "3"} {
		s.onEvent(&network.EventRequestWillBeSent{RequestID: id})
		// two redirect hops per request, each reusing the request id
		s.onEvent(&network.EventRequestWillBeSent{RequestID: id, RedirectResponse: &network.Response{Status: 301}})
		s.onEvent(&network.EventRequestWillBeSent{RequestID: id, RedirectResponse: &network.Response{Status: 302}})
	}
	if active, _ := s.activity(); active != 3 {
		t.Fatalf("in flight = %d, want 3", active)
	}

	s.onEvent(&network.EventLoadingFinished{RequestID: "1"})
	s.onEvent(&network.EventLoadingFailed{RequestID: "2"})
	s.onEvent(&network.EventLoadingFinished{RequestID: "3"})
	if active, _ := s.activity(); active != 0 {
		t.Fatalf("in flight = %d after every request finished", active)
	}
}

func TestOnEventIgnoresUnknownCompletions(t *testing.T) {
	s := newTrackingSession()
	s.onEvent(&network.EventLoadingFinished{RequestID: "never-started"})
	s.onEvent(&network.EventRequestWillBeSent{RequestID: "a"})
	if active, _ := s.activity(); active != 1 {
		t.Fatalf("in flight = %d, want 1", active)
	}
}

func TestWaitNetworkIdleWithRedirectedRequests(t *testing.T) {
	s := newTrackingSession()
	s.cfg.MaxInflight = 2
	s.cfg.NetworkIdle = 10 * time.Millisecond
	for _, id := range []network.RequestID{"1", "2", "3"} {
		s.onEvent(&network.EventRequestWillBeSent{RequestID: id})
		s.onEvent(&network.EventRequestWillBeSent{RequestID: id, RedirectResponse: &network.Response{Status: 301}})
		s.onEvent(&network.EventLoadingFinished{RequestID: id})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.waitNetworkIdle(ctx); err != nil {
		t.Fatalf("waitNetworkIdle: %v", err)
	}
}

func TestScrollBudget(t *testing.T) {
	interval := 100 * time.Millisecond
	if got := scrollBudget(context.Background(), interval); got != maxScrollSteps*interval {
		t.Fatalf("budget without deadline = %v", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	got := scrollBudget(ctx, interval)
	if got > 15*time.Second || got < 14*time.Second {
		t.Fatalf("budget under a 20s deadline = %v, want about 15s", got)
	}

	short, cancelShort := context.WithTimeout(context.Background(), time.Second)
	defer cancelShort()
	if got := scrollBudget(short, interval); got != interval {
		t.Fatalf("budget under an exhausted deadline = %v, want one interval", got)
	}
}
