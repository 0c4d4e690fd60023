// Package session holds the process-wide window system state: the window
// class registry, the single-window guard and the display mode controller.
// Construct one per process with New and release it with Teardown; tests
// build isolated instances.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/winbridge/internal/displaymode"
	"github.com/1broseidon/winbridge/internal/host"
)

// ErrAlreadyOpen is returned when a window is opened while another is live.
var ErrAlreadyOpen = errors.New("a window is already open")

// ErrTornDown is returned for use of a context after Teardown.
var ErrTornDown = errors.New("session torn down")

// Context is the process-wide window system state.
type Context struct {
	mu sync.Mutex

	host     host.Host
	logger   *slog.Logger
	displays *displaymode.Controller

	classes  map[string]int
	open     bool
	tornDown bool
}

// New creates a context over h. A nil logger discards output.
func New(h host.Host, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Context{
		host:     h,
		logger:   logger,
		displays: displaymode.NewController(h, logger.With("component", "displaymode")),
		classes:  make(map[string]int),
	}
}

// Host returns the window system binding.
func (c *Context) Host() host.Host {
	return c.host
}

// Logger returns the session logger.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// Displays returns the display mode controller shared by every window.
func (c *Context) Displays() *displaymode.Controller {
	return c.displays
}

// Acquire claims the single window slot.
func (c *Context) Acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tornDown {
		return ErrTornDown
	}
	if c.open {
		return ErrAlreadyOpen
	}
	c.open = true
	return nil
}

// Release frees the window slot claimed by Acquire.
func (c *Context) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
}

// RetainClass registers the window class with the host on first use and
// counts one more window of that class.
func (c *Context) RetainClass(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tornDown {
		return ErrTornDown
	}
	if c.classes[name] == 0 {
		if err := c.host.RegisterClass(name); err != nil {
			return fmt.Errorf("failed to register window class %q: %w", name, err)
		}
		c.logger.Debug("window class registered", "class", name)
	}
	c.classes[name]++
	return nil
}

// ReleaseClass drops one window of the class and unregisters it from the
// host when none remain.
func (c *Context) ReleaseClass(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	count, ok := c.classes[name]
	if !ok || count == 0 {
		return nil
	}
	count--
	c.classes[name] = count
	if count > 0 {
		return nil
	}

	delete(c.classes, name)
	if err := c.host.UnregisterClass(name); err != nil {
		return fmt.Errorf("failed to unregister window class %q: %w", name, err)
	}
	c.logger.Debug("window class unregistered", "class", name)
	return nil
}

// ClassRefs reports how many windows currently hold the class.
func (c *Context) ClassRefs(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classes[name]
}

// Teardown restores any captured display mode and unregisters classes that
// are still registered. Safe to call more than once.
func (c *Context) Teardown() error {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return nil
	}
	c.tornDown = true
	classes := make([]string, 0, len(c.classes))
	for name := range c.classes {
		classes = append(classes, name)
	}
	c.classes = make(map[string]int)
	c.mu.Unlock()

	var errs []error
	if err := c.displays.Restore(); err != nil {
		errs = append(errs, err)
	}
	for _, name := range classes {
		if err := c.host.UnregisterClass(name); err != nil {
			c.logger.Warn("window class left registered", "class", name, "error", err)
		}
	}
	return errors.Join(errs...)
}
