package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Handle is an exclusively owned browser process plus its automation session.
// All methods block until the operation finishes or its deadline expires.
// Close terminates the process; a Handle must be closed exactly once.
type Handle interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// Evaluate runs a JavaScript function expression such as "() => 1"
	// and returns its JSON-decoded result.
	Evaluate(ctx context.Context, js string) (any, error)

	// WaitElement waits up to timeout for selector to match an element.
	WaitElement(ctx context.Context, selector string, timeout time.Duration) error

	// Fill clears the input matched by selector and types value into it.
	Fill(ctx context.Context, selector, value string) error

	// ScriptClick clicks the element matched by selector from script,
	// bypassing overlays that would intercept a real mouse click.
	ScriptClick(ctx context.Context, selector string) error

	// Close terminates the browser process.
	Close() error
}

// rodHandle is the Handle backed by a launched Chromium.
type rodHandle struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page

	pageLoadTimeout time.Duration
	elementTimeout  time.Duration

	mu       sync.Mutex
	released bool
}

var _ Handle = (*rodHandle)(nil)

func (h *rodHandle) livePage(ctx context.Context) (*rod.Page, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, ErrHandleReleased
	}
	return h.page.Context(ctx), nil
}

// Navigate implements Handle.
func (h *rodHandle) Navigate(ctx context.Context, url string) error {
	page, err := h.livePage(ctx)
	if err != nil {
		return err
	}

	page = page.Timeout(h.pageLoadTimeout)
	defer page.CancelTimeout()

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("page did not finish loading: %w", err)
	}
	return nil
}

// Evaluate implements Handle.
func (h *rodHandle) Evaluate(ctx context.Context, js string) (any, error) {
	page, err := h.livePage(ctx)
	if err != nil {
		return nil, err
	}

	res, err := page.Eval(js)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate script: %w", err)
	}
	return res.Value.Val(), nil
}

// WaitElement implements Handle.
func (h *rodHandle) WaitElement(ctx context.Context, selector string, timeout time.Duration) error {
	page, err := h.livePage(ctx)
	if err != nil {
		return err
	}

	page = page.Timeout(timeout)
	defer page.CancelTimeout()

	if _, err := page.Element(selector); err != nil {
		return fmt.Errorf("element %s not found: %w", selector, err)
	}
	return nil
}

// Fill implements Handle.
func (h *rodHandle) Fill(ctx context.Context, selector, value string) error {
	el, err := h.element(ctx, selector)
	if err != nil {
		return err
	}

	if _, err := el.Eval(`() => { this.value = "" }`); err != nil {
		return fmt.Errorf("failed to clear %s: %w", selector, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("failed to type into %s: %w", selector, err)
	}
	return nil
}

// ScriptClick implements Handle.
func (h *rodHandle) ScriptClick(ctx context.Context, selector string) error {
	el, err := h.element(ctx, selector)
	if err != nil {
		return err
	}

	if _, err := el.Eval(`() => this.click()`); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

func (h *rodHandle) element(ctx context.Context, selector string) (*rod.Element, error) {
	page, err := h.livePage(ctx)
	if err != nil {
		return nil, err
	}

	lookup := page.Timeout(h.elementTimeout)
	el, err := lookup.Element(selector)
	lookup.CancelTimeout()
	if err != nil {
		return nil, fmt.Errorf("element %s not found: %w", selector, err)
	}
	// The lookup deadline must not bound the interaction.
	return el.Context(ctx), nil
}

// Close implements Handle. It closes the DevTools session, kills the process
// and removes the temporary profile directory.
func (h *rodHandle) Close() error {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return ErrHandleReleased
	}
	h.released = true
	h.mu.Unlock()

	var errs []error
	if h.browser != nil {
		b := h.browser.Timeout(closeTimeout)
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
		b.CancelTimeout()
	}
	if h.launcher != nil {
		h.launcher.Kill()
		h.launcher.Cleanup()
	}
	return errors.Join(errs...)
}
