package export

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"
)

const defaultCaptureTimeout = 30 * time.Second

// ChromiumSurface captures the /render pages with a headless Chromium. The browser
// tab is started on first use and kept until Close.
type ChromiumSurface struct {
	baseURL string
	timeout time.Duration

	mu      sync.Mutex
	layout  Layout
	tab     context.Context
	closeFn context.CancelFunc

	newTab func() (context.Context, context.CancelFunc)
	run    func(ctx context.Context, actions ...chromedp.Action) error
}

func NewChromiumSurface(baseURL string, layout Layout, timeout time.Duration) *ChromiumSurface {
	if timeout <= 0 {
		timeout = defaultCaptureTimeout
	}
	return &ChromiumSurface{
		baseURL: baseURL,
		layout:  layout,
		timeout: timeout,
		newTab: func() (context.Context, context.CancelFunc) {
			return chromedp.NewContext(context.Background())
		},
		run: chromedp.Run,
	}
}

func (s *ChromiumSurface) Layout() Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

func (s *ChromiumSurface) SetLayout(l Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout = l
}

// URL is the render page address for target.
func (s *ChromiumSurface) URL(target Target) string {
	q := url.Values{}
	q.Set("date", target.Date.String())
	q.Set("months", strconv.Itoa(target.Months))
	q.Set("capture", "1")
	return fmt.Sprintf("%s/render/%s?%s", s.baseURL, url.PathEscape(target.View), q.Encode())
}

// browser returns the shared tab, starting Chromium when there is none. The browser
// is allocated on the tab context itself: a Run with a deadline would own the process
// and kill it when the deadline is cancelled.
func (s *ChromiumSurface) browser() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tab != nil && s.tab.Err() == nil {
		return s.tab, nil
	}
	tab, closeFn := s.newTab()
	if err := s.run(tab); err != nil {
		closeFn()
		return nil, fmt.Errorf("could not start headless browser: %w", err)
	}
	s.tab, s.closeFn = tab, closeFn
	log.Info("headless browser tab opened for exports")
	return tab, nil
}

// discard closes tab if it is still the shared one, so the next capture starts afresh.
func (s *ChromiumSurface) discard(tab context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tab == tab && s.closeFn != nil {
		s.closeFn()
		s.closeFn, s.tab = nil, nil
	}
}

// Capture waits until the page marks itself ready and returns a full page PNG.
func (s *ChromiumSurface) Capture(ctx context.Context, target Target) ([]byte, error) {
	tab, err := s.browser()
	if err != nil {
		return nil, err
	}
	layout := s.Layout()
	runCtx, cancel := context.WithTimeout(tab, s.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(layout.Width), int64(layout.Height), chromedp.EmulateScale(layout.Scale)),
		chromedp.Navigate(s.URL(target)),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	}
	if err := s.run(runCtx, tasks); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warnf("capture of %s failed, restarting the browser tab: %v", target.View, err)
		s.discard(tab)
		return nil, fmt.Errorf("chromedp run failed: %w", err)
	}
	return png, nil
}

func (s *ChromiumSurface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closeFn != nil {
		s.closeFn()
		s.closeFn, s.tab = nil, nil
	}
}
