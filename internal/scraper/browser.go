package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"image-extract-scraper/internal/config"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const (
	// maxScrollSteps bounds scrolling on infinite-scroll pages
	maxScrollSteps = 500
	// scrollMargin is left on the caller's deadline for the steps after scrolling
	scrollMargin = 5 * time.Second
)

// BrowserSession is one exclusively owned browser tab. Close releases the browser
// process and must run on every exit path.
type BrowserSession interface {
	// Navigate loads url and waits for network activity to quiesce
	Navigate(ctx context.Context, url string) error
	ScrollToBottom(ctx context.Context) error
	Evaluate(ctx context.Context, script string, out any) error
	Snapshot(ctx context.Context) (html string, finalURL string, err error)
	Close() error
}

// BrowserLauncher starts browser sessions
type BrowserLauncher interface {
	Launch(ctx context.Context) (BrowserSession, error)
}

// ChromeLauncher launches headless Chrome through chromedp
type ChromeLauncher struct {
	cfg  config.BrowserConfig
	opts BrowserOptions
}

func NewChromeLauncher(cfg config.BrowserConfig, userAgent string) *ChromeLauncher {
	return &ChromeLauncher{
		cfg:  cfg,
		opts: BrowserOptionsFromConfig(cfg, userAgent),
	}
}

// Launch starts a browser bound to ctx and opens one tab with ad and tracker URLs blocked
func (l *ChromeLauncher) Launch(ctx context.Context) (BrowserSession, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, BuildChromeOptions(l.opts)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		ctx:         tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		cfg:         l.cfg,
		inflight:    make(map[network.RequestID]struct{}),
		lastEvent:   time.Now(),
	}
	chromedp.ListenTarget(tabCtx, s.onEvent)

	// The browser process lives as long as the context of the first Run, so that Run
	// must not carry a timeout.
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	setupCtx, cancel := s.bind(ctx, l.cfg.NavigationTimeout)
	defer cancel()
	err := chromedp.Run(setupCtx,
		network.Enable(),
		network.SetBlockedURLS(BlockedURLPatterns(l.cfg.BlockedDomains)),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	return s, nil
}

type chromeSession struct {
	ctx         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	cfg         config.BrowserConfig
	closeOnce   sync.Once

	mu        sync.Mutex
	inflight  map[network.RequestID]struct{}
	lastEvent time.Time
}

// onEvent tracks open requests by id. A redirect hop reuses the id of the request it
// continues, so it neither opens nor closes anything.
func (s *chromeSession) onEvent(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		s.mu.Lock()
		if e.RedirectResponse == nil {
			s.inflight[e.RequestID] = struct{}{}
		}
		s.lastEvent = time.Now()
		s.mu.Unlock()
	case *network.EventLoadingFinished:
		s.finish(e.RequestID)
	case *network.EventLoadingFailed:
		s.finish(e.RequestID)
	}
}

func (s *chromeSession) finish(id network.RequestID) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.lastEvent = time.Now()
	s.mu.Unlock()
}

func (s *chromeSession) activity() (int, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight), time.Since(s.lastEvent)
}

// bind derives a tab context with a timeout that is also cancelled when caller is done
func (s *chromeSession) bind(caller context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	go func() {
		select {
		case <-caller.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()
	return runCtx, cancel
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.bind(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	return chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.ActionFunc(s.waitNetworkIdle),
	)
}

// waitNetworkIdle returns once at most MaxInflight requests have been open for NetworkIdle
func (s *chromeSession) waitNetworkIdle(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		active, quiet := s.activity()
		if active <= s.cfg.MaxInflight && quiet >= s.cfg.NetworkIdle {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for network idle (%d in flight): %w", active, ctx.Err())
		case <-ticker.C:
		}
	}
}

// ScrollToBottom scrolls until the page end or the step cap. When the caller's deadline
// leaves less time than that, scrolling stops early and keeps what has loaded so far.
func (s *chromeSession) ScrollToBottom(ctx context.Context) error {
	budget := scrollBudget(ctx, s.cfg.ScrollInterval)
	runCtx, cancel := s.bind(ctx, budget+scrollMargin)
	defer cancel()

	script := fmt.Sprintf(`new Promise((resolve) => {
	const started = Date.now();
	let total = 0;
	let steps = 0;
	const timer = setInterval(() => {
		const height = document.body ? document.body.scrollHeight : 0;
		window.scrollBy(0, %d);
		total += %d;
		steps++;
		if (total >= height || steps >= %d || Date.now() - started >= %d) {
			clearInterval(timer);
			resolve(total);
		}
	}, %d);
})`, s.cfg.ScrollStep, s.cfg.ScrollStep, maxScrollSteps, budget.Milliseconds(), s.cfg.ScrollInterval.Milliseconds())

	var scrolled float64
	return chromedp.Run(runCtx, chromedp.Evaluate(script, &scrolled, awaitPromise))
}

func (s *chromeSession) Evaluate(ctx context.Context, script string, out any) error {
	runCtx, cancel := s.bind(ctx, s.cfg.NavigationTimeout)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.Evaluate(script, out))
}

func (s *chromeSession) Snapshot(ctx context.Context) (string, string, error) {
	runCtx, cancel := s.bind(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	var html, finalURL string
	err := chromedp.Run(runCtx,
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, finalURL, err
}

// Close shuts the browser down gracefully, then releases the allocator. Safe to call twice.
func (s *chromeSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = chromedp.Cancel(s.ctx)
		s.tabCancel()
		s.allocCancel()
	})
	return err
}

// scrollBudget is the time a full scroll takes at interval, cut down to what the
// caller's deadline allows after scrollMargin.
func scrollBudget(ctx context.Context, interval time.Duration) time.Duration {
	budget := time.Duration(maxScrollSteps) * interval
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline) - scrollMargin; left < budget {
			budget = left
		}
	}
	if budget < interval {
		budget = interval
	}
	return budget
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}
