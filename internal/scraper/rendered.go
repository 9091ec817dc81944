package scraper

import (
	"context"
	"time"

	"image-extract-scraper/internal/config"
	"image-extract-scraper/internal/models"

	"github.com/rs/zerolog/log"
)

// renderedAcquirer drives one browser session per call and degrades to a plain fetch on failure
type renderedAcquirer struct {
	launcher BrowserLauncher
	cfg      config.BrowserConfig
	fallback Strategy
	sleep    func(ctx context.Context, d time.Duration) error
}

// RenderedStrategy loads the page in a browser, scrolls to trigger lazy loaders and
// snapshots the hydrated DOM. On failure it runs fallback once and tags its outcome.
func RenderedStrategy(launcher BrowserLauncher, cfg config.BrowserConfig, fallback Strategy) Strategy {
	r := &renderedAcquirer{
		launcher: launcher,
		cfg:      cfg,
		fallback: fallback,
		sleep:    sleepContext,
	}
	return Strategy{Name: StrategyRendered, Run: r.run}
}

func (r *renderedAcquirer) run(ctx context.Context, target string) (Outcome, error) {
	outcome, step, err := r.acquire(ctx, target)
	if err == nil {
		return outcome, nil
	}

	log.Warn().Err(err).Str("step", step).Str("target", target).Msg("rendered acquisition failed, trying simple fetch")

	fb, fbErr := r.fallback.Run(ctx, target)
	if fbErr != nil {
		return Outcome{}, &models.RenderError{Step: step, Err: err, FallbackErr: fbErr}
	}
	fb.FallbackUsed = true
	return fb, nil
}

// acquire owns the session for its whole duration; the deferred Close runs before any fallback.
func (r *renderedAcquirer) acquire(ctx context.Context, target string) (Outcome, string, error) {
	session, err := r.launcher.Launch(ctx)
	if err != nil {
		return Outcome{}, "launch", err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Debug().Err(cerr).Msg("browser close reported an error")
		}
	}()

	if err := session.Navigate(ctx, target); err != nil {
		return Outcome{}, "navigate", err
	}
	if err := r.sleep(ctx, r.cfg.SettleDelay); err != nil {
		return Outcome{}, "settle", err
	}
	if err := session.ScrollToBottom(ctx); err != nil {
		return Outcome{}, "scroll", err
	}
	if err := r.sleep(ctx, r.cfg.PostScrollDelay); err != nil {
		return Outcome{}, "image wait", err
	}

	var stamped int
	if err := session.Evaluate(ctx, stampScript, &stamped); err != nil {
		return Outcome{}, "stamp styles", err
	}
	html, finalURL, err := session.Snapshot(ctx)
	if err != nil {
		return Outcome{}, "snapshot", err
	}
	// references resolve against the page the browser ended up on after redirects
	base := target
	if finalURL != "" {
		base = finalURL
	}

	doc, err := NewLiveDocument(html)
	if err != nil {
		return Outcome{}, "parse", err
	}
	return Outcome{Doc: doc, HTML: html, BaseURL: base}, "", nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
