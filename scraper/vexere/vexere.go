// Package vexere drives a headless browser through vexere.com searches and
// turns trip cards plus their rating modals into raw trip rows.
package vexere

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sony/gobreaker/v2"

	"vexere-pipeline/config"
	"vexere-pipeline/models"
	"vexere-pipeline/utils"
)

const (
	baseURL = "https://vexere.com/"

	ratingButtonSelector = ".ant-btn.bus-rating-button"
	loadMoreSelector     = ".load-more.ant-btn-primary"
	overallRatingSel     = ".overall-rating"
)

type routeFunc func(ctx, browserCtx context.Context, route config.Route) ([]*models.RawTrip, error)

// Crawler orchestrates the vexere crawl across routes.
type Crawler struct {
	cfg     config.CrawlConfig
	logger  *utils.Logger
	pool    *utils.WorkerPool
	seen    *utils.KeySet
	retry   *utils.RetryConfig
	breaker *gobreaker.CircuitBreaker[[]*models.RawTrip]
	now     func() time.Time

	// swapped in tests
	newBrowser  func(ctx context.Context) (context.Context, context.CancelFunc)
	crawlRoute  routeFunc
	showMoreGap time.Duration

	mu    sync.Mutex
	trips []*models.RawTrip
}

// New creates a ready-to-use vexere Crawler.
func New(cfg config.CrawlConfig, logger *utils.Logger) *Crawler {
	c := &Crawler{
		cfg:    cfg,
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		seen:   utils.NewKeySet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		now:         time.Now,
		showMoreGap: 800 * time.Millisecond,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]*models.RawTrip](gobreaker.Settings{
		Name: "vexere-routes",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("[vexere] Circuit breaker %s: %s → %s", name, from, to)
		},
	})
	c.newBrowser = c.startBrowser
	c.crawlRoute = c.crawlRouteInBrowser
	return c
}

// Crawl collects raw trips for every route. Route failures are logged and
// counted by the circuit breaker; once it opens the remaining routes are
// skipped. An error is returned only when nothing at all was collected.
func (c *Crawler) Crawl(ctx context.Context, routes []config.Route, runID string) ([]*models.RawTrip, error) {
	c.logger.Info("[vexere] Starting crawl — %d routes, departure in %d days",
		len(routes), c.cfg.DaysOffset)

	browserCtx, cancel := c.newBrowser(ctx)
	defer cancel()

	// each crawl dedupes on its own; a scheduled crawler is reused
	c.mu.Lock()
	c.trips = make([]*models.RawTrip, 0)
	c.seen = utils.NewKeySet()
	c.mu.Unlock()

	var (
		errMu    sync.Mutex
		failures []error
	)
	for _, route := range routes {
		route := route
		c.pool.Submit(ctx, func(ctx context.Context) {
			trips, err := c.breaker.Execute(func() ([]*models.RawTrip, error) {
				return c.crawlRoute(ctx, browserCtx, route)
			})
			if err != nil {
				if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
					c.logger.Warn("[vexere] Skipping %s: circuit open", route)
				} else {
					c.logger.Error("[vexere] Route %s failed: %v", route, err)
				}
				errMu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", route, err))
				errMu.Unlock()
				return
			}
			added := c.collect(trips, runID)
			c.logger.Info("[vexere] Route %s done — %d trips (%d new)", route, len(trips), added)
		})
	}
	c.pool.Wait()
	if n := c.pool.Skipped(); n > 0 {
		c.logger.Warn("[vexere] %d routes not started: %v", n, ctx.Err())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Info("[vexere] Crawl complete — total raw trips: %d", len(c.trips))

	if len(c.trips) == 0 && len(failures) > 0 {
		return nil, fmt.Errorf("vexere: crawl: every route failed: %w", errors.Join(failures...))
	}
	if err := ctx.Err(); err != nil && len(c.trips) == 0 {
		return nil, fmt.Errorf("vexere: crawl: %w", err)
	}
	return c.trips, nil
}

func (c *Crawler) collect(trips []*models.RawTrip, runID string) int {
	scrapedAt := c.now()
	added := 0

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range trips {
		if !c.seen.Add(t.Key()) {
			c.logger.Debug("[vexere] Skipping duplicate: %s", t.Key())
			continue
		}
		t.RunID = runID
		if t.ScrapedAt.IsZero() {
			t.ScrapedAt = scrapedAt
		}
		c.trips = append(c.trips, t)
		added++
	}
	return added
}

func (c *Crawler) startBrowser(ctx context.Context) (context.Context, context.CancelFunc) {
	chromeBin := findChromeBinary(c.cfg.ChromeBin)
	c.logger.Info("[vexere] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1366, 900),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	return browserCtx, func() {
		cancelBrowser()
		cancelAlloc()
	}
}

// crawlRouteInBrowser runs one search in a fresh tab and parses every trip
// whose rating modal opens.
func (c *Crawler) crawlRouteInBrowser(ctx, browserCtx context.Context, route config.Route) ([]*models.RawTrip, error) {
	var trips []*models.RawTrip

	err := c.retry.Do(ctx, "route "+route.String(), func() error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()
		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.cfg.PageTimeout)
		defer cancelTimeout()
		stop := context.AfterFunc(ctx, cancel)
		defer stop()

		if err := c.search(tabCtx, route); err != nil {
			return err
		}
		c.showMore(tabCtx)

		var err error
		trips, err = c.parseTrips(tabCtx)
		return err
	})
	return trips, err
}

// search fills the route form, picks the departure day and submits.
func (c *Crawler) search(ctx context.Context, route config.Route) error {
	day, monthSection := targetDate(c.now(), c.cfg.DaysOffset)

	var picked bool
	err := chromedp.Run(ctx,
		chromedp.Navigate(baseURL),
		chromedp.WaitVisible("#from_input", chromedp.ByQuery),
		chromedp.Clear("#from_input", chromedp.ByQuery),
		chromedp.SendKeys("#from_input", route.From, chromedp.ByQuery),
		chromedp.Clear("#to_input", chromedp.ByQuery),
		chromedp.SendKeys("#to_input", route.To, chromedp.ByQuery),
		chromedp.Click(".departure-date-select", chromedp.ByQuery),
		// month section ids start with a digit, which an #id selector rejects
		chromedp.WaitVisible(`[id="`+monthSection+`"]`, chromedp.ByQuery),
		chromedp.Evaluate(`
			(function() {
				var section = document.getElementById(`+strconv.Quote(monthSection)+`);
				if (!section) return false;
				var days = section.querySelectorAll('p.day');
				for (var i = 0; i < days.length; i++) {
					if (days[i].innerText.trim() === `+strconv.Quote(day)+`) {
						days[i].click();
						return true;
					}
				}
				return false;
			})()
		`, &picked),
	)
	if err != nil {
		return fmt.Errorf("fill search form: %w", err)
	}
	if !picked {
		return utils.Unrecoverable(fmt.Errorf("day %s not found in calendar section %s", day, monthSection))
	}
	c.logger.Info("[vexere] Selected %s | %s-%s", route, day, monthSection)

	if err := chromedp.Run(ctx, chromedp.Click(".button-search", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click search: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.ElementTimeout)
	defer cancel()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(ratingButtonSelector, chromedp.ByQuery)); err != nil {
		c.logger.Warn("[vexere] No trips listed for %s", route)
	}
	return nil
}

// showMore clicks "Xem thêm chuyến" until the button disappears or the
// configured number of clicks is reached.
func (c *Crawler) showMore(ctx context.Context) {
	for i := 0; i < c.cfg.ShowMoreClicks; i++ {
		var clicked bool
		err := chromedp.Run(ctx,
			chromedp.Evaluate(`
				(function() {
					var b = document.querySelector(`+strconv.Quote(loadMoreSelector)+`);
					if (!b) return false;
					b.scrollIntoView({block: 'center'});
					b.click();
					return true;
				})()
			`, &clicked),
			chromedp.Sleep(c.showMoreGap),
		)
		if err != nil || !clicked {
			break
		}
		c.logger.Debug("[vexere] Clicked show more (%d/%d)", i+1, c.cfg.ShowMoreClicks)
	}
}

// parseTrips opens each rating modal in turn and parses the card with it.
// A trip that fails is logged and skipped.
func (c *Crawler) parseTrips(ctx context.Context) ([]*models.RawTrip, error) {
	var total int
	if err := chromedp.Run(ctx, chromedp.Evaluate(
		`document.querySelectorAll(`+strconv.Quote(ratingButtonSelector)+`).length`, &total)); err != nil {
		return nil, fmt.Errorf("count rating buttons: %w", err)
	}
	c.logger.Debug("[vexere] Rating buttons: %d", total)

	var trips []*models.RawTrip
	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			return trips, ctx.Err()
		}
		trip, err := c.parseOne(ctx, i)
		if err != nil {
			c.logger.Warn("[vexere] Trip %d/%d skipped: %v", i+1, total, err)
			continue
		}
		trips = append(trips, trip)
	}
	return trips, nil
}

func (c *Crawler) parseOne(ctx context.Context, i int) (*models.RawTrip, error) {
	button := fmt.Sprintf(`document.querySelectorAll(%s)[%d]`, strconv.Quote(ratingButtonSelector), i)

	var clicked bool
	var containerHTML, pageHTML string

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.ElementTimeout)
	defer cancel()
	err := chromedp.Run(waitCtx,
		chromedp.Evaluate(`(function(){ var b = `+button+`; if (!b) return false; b.scrollIntoView({block: 'center'}); b.click(); return true; })()`, &clicked),
		chromedp.WaitVisible(overallRatingSel, chromedp.ByQuery),
		chromedp.Evaluate(`(function(){ var b = `+button+`; var c = b && b.closest('.bus-item, .container'); return c ? c.outerHTML : ''; })()`, &containerHTML),
		chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open rating modal: %w", err)
	}
	if !clicked {
		return nil, fmt.Errorf("rating button %d vanished", i)
	}

	trip, parseErr := ParseTrip(containerHTML, pageHTML)

	// close the modal before moving on, even when parsing failed
	closeCtx, cancelClose := context.WithTimeout(ctx, c.cfg.ElementTimeout)
	defer cancelClose()
	if err := chromedp.Run(closeCtx,
		chromedp.Evaluate(`(function(){ var b = `+button+`; if (b) b.click(); return true; })()`, nil),
		chromedp.WaitNotPresent(overallRatingSel, chromedp.ByQuery),
	); err != nil {
		c.logger.Debug("[vexere] Could not close rating modal %d: %v", i+1, err)
	}

	if parseErr != nil {
		return nil, parseErr
	}
	return trip, nil
}

// targetDate returns the calendar day label and the month section id
// ("MM-YYYY") for now + offset days.
func targetDate(now time.Time, offset int) (day, monthSection string) {
	t := now.AddDate(0, 0, offset)
	return strconv.Itoa(t.Day()), fmt.Sprintf("%02d-%d", int(t.Month()), t.Year())
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
