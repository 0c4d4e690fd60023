package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/winbridge/internal/bridge"
	"github.com/1broseidon/winbridge/internal/event"
	"github.com/1broseidon/winbridge/internal/host"
	"github.com/1broseidon/winbridge/internal/session"
	"github.com/1broseidon/winbridge/internal/window"
	"github.com/1broseidon/winbridge/internal/x11"
)

// X keysyms the demo loop reacts to.
const (
	keyEscape host.Key = 0xff1b
	keyF10    host.Key = 0xffc7
	keyF11    host.Key = 0xffc8
)

const frameInterval = 16 * time.Millisecond

func runWindow(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/winbridge/config.yaml)")
	fullscreen := fs.Bool("fullscreen", false, "Start in fullscreen")
	state := fs.String("state", "", "Initial state: windowed, maximized, minimized, fullscreen")
	frames := fs.Int("frames", 0, "Exit after this many frames (0 runs until the window is closed)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *fullscreen {
		cfg.Fullscreen = true
	}
	var initial window.State
	if *state != "" {
		var ok bool
		if initial, ok = window.ParseState(*state); !ok {
			fmt.Fprintf(os.Stderr, "unknown state %q\n", *state)
			return 2
		}
	}

	logger := newLogger(os.Stderr, cfg.Level())

	xh, err := x11.Connect(logger)
	if err != nil {
		logger.Error("failed to connect to display", "error", err)
		return 1
	}
	defer xh.Close()

	ctx := session.New(xh, logger)
	defer func() {
		if err := ctx.Teardown(); err != nil {
			logger.Warn("teardown incomplete", "error", err)
		}
	}()

	b, err := bridge.Open(ctx, cfg)
	if err != nil {
		logger.Error("failed to open window", "error", err, "fatal", bridge.IsFatal(err))
		return 1
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("close incomplete", "error", err)
		}
	}()

	if initial.Live() {
		if err := b.SetState(initial); err != nil {
			logger.Warn("initial state not applied", "state", initial.String(), "error", err)
		}
	}

	// Signals are handled on this goroutine so Close runs on the window's
	// thread and restores the display mode.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for frame := 0; *frames == 0 || frame < *frames; frame++ {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				reloadTitle(b, *path, logger)
				continue
			}
			logger.Info("signal received, shutting down", "signal", sig.String())
			return 0
		default:
		}

		events, err := b.WaitEvents(frameInterval)
		if err != nil {
			if errors.Is(err, x11.ErrDisconnected) || bridge.IsFatal(err) {
				logger.Error("event loop stopped", "error", err)
				return 1
			}
			logger.Warn("event poll failed", "error", err)
			continue
		}
		if quit := handleEvents(b, events, logger); quit {
			return 0
		}
		if err := b.Present(); err != nil {
			logger.Warn("present failed", "error", err)
		}
	}
	return 0
}

// handleEvents logs every event and applies the demo key bindings. It
// reports whether the user asked to close the window.
func handleEvents(b *bridge.Bridge, events []event.Event, logger *slog.Logger) bool {
	for _, ev := range events {
		logger.Debug("event", "event", event.Describe(ev))

		switch e := ev.(type) {
		case event.Close:
			logger.Info("close requested")
			return true
		case event.Resize:
			logger.Info("client resized", "width", e.Width, "height", e.Height)
		case event.KeyDown:
			if e.Repeat {
				continue
			}
			if target, ok := keyTarget(e.Code, b.State()); ok {
				if err := b.SetState(target); err != nil {
					logger.Warn("state change refused", "target", target.String(), "error", err,
						"recoverable", bridge.IsRecoverable(err))
				}
			}
		}
	}
	return false
}

// keyTarget maps a key press to a state transition: F11 toggles fullscreen,
// F10 toggles maximized and Escape returns to windowed.
func keyTarget(code host.Key, current window.State) (window.State, bool) {
	switch code {
	case keyF11:
		if current == window.StateFullscreen {
			return window.StateWindowed, true
		}
		return window.StateFullscreen, true
	case keyF10:
		if current == window.StateMaximized {
			return window.StateWindowed, true
		}
		return window.StateMaximized, true
	case keyEscape:
		if current != window.StateWindowed {
			return window.StateWindowed, true
		}
	}
	return window.StateUninitialized, false
}

func reloadTitle(b *bridge.Bridge, path string, logger *slog.Logger) {
	cfg, err := loadConfig(path)
	if err != nil {
		logger.Warn("config reload failed", "error", err)
		return
	}
	if err := b.SetTitle(cfg.Title); err != nil {
		logger.Warn("title update failed", "error", err)
		return
	}
	logger.Info("config reloaded", "title", cfg.Title)
}
