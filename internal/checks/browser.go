package checks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultChromePath is the executable started by ChromeLauncher.
	DefaultChromePath = "google-chrome"
	// DefaultBrowserReadyTimeout bounds the wait for the DevTools endpoint.
	DefaultBrowserReadyTimeout = 30 * time.Second

	readyPollInterval = 100 * time.Millisecond
)

// Browser is a running browser instance that accepts DevTools connections.
// Close must be called exactly once the caller is done with it; it is safe to
// call more than once.
type Browser interface {
	DebugPort() int
	Close() error
}

// BrowserLauncher starts disposable browser instances.
type BrowserLauncher interface {
	Launch(ctx context.Context) (Browser, error)
}

// ChromeLauncher starts headless Chrome with a throwaway profile directory
// and a remote-debugging port.
type ChromeLauncher struct {
	// Path of the Chrome executable. Defaults to DefaultChromePath.
	Path string
	// Flags are placed before the launcher's own switches.
	Flags []string
	// ReadyTimeout defaults to DefaultBrowserReadyTimeout.
	ReadyTimeout time.Duration
	Logger       *slog.Logger
}

var _ BrowserLauncher = (*ChromeLauncher)(nil)

func (l *ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	path := l.Path
	if path == "" {
		path = DefaultChromePath
	}
	timeout := l.ReadyTimeout
	if timeout <= 0 {
		timeout = DefaultBrowserReadyTimeout
	}

	profileDir, err := os.MkdirTemp("", "siteaudit-chrome-*")
	if err != nil {
		return nil, fmt.Errorf("creating browser profile: %w", err)
	}

	port, err := freePort()
	if err != nil {
		os.RemoveAll(profileDir) //nolint:errcheck
		return nil, fmt.Errorf("reserving debugging port: %w", err)
	}

	args := append([]string{}, l.Flags...)
	args = append(args,
		"--headless=new",
		fmt.Sprintf("--remote-debugging-port=%d", port),
		"--user-data-dir="+profileDir,
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-gpu",
		"about:blank",
	)

	cmd := exec.Command(path, args...)
	b := &chromeProcess{
		cmd:        cmd,
		port:       port,
		profileDir: profileDir,
		exited:     make(chan struct{}),
	}
	cmd.Stderr = &b.stderr

	if err := cmd.Start(); err != nil {
		os.RemoveAll(profileDir) //nolint:errcheck
		return nil, fmt.Errorf("starting %s: %w", path, err)
	}
	go func() {
		b.waitErr = cmd.Wait()
		close(b.exited)
	}()

	logger.Debug("browser started", "path", path, "pid", cmd.Process.Pid, "port", port)

	if err := b.waitReady(ctx, timeout); err != nil {
		if closeErr := b.Close(); closeErr != nil {
			logger.Warn("failed to clean up browser", "error", closeErr)
		}
		return nil, err
	}
	return b, nil
}

// chromeProcess is a started Chrome owned by the launcher's caller.
type chromeProcess struct {
	cmd        *exec.Cmd
	port       int
	profileDir string

	// stderr may only be read after exited is closed.
	stderr  bytes.Buffer
	exited  chan struct{}
	waitErr error

	closeOnce sync.Once
	closeErr  error
}

func (b *chromeProcess) DebugPort() int { return b.port }

// Close kills the browser, waits for it to exit and removes its profile.
func (b *chromeProcess) Close() error {
	b.closeOnce.Do(func() {
		select {
		case <-b.exited:
		default:
			if err := b.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				b.closeErr = fmt.Errorf("killing browser: %w", err)
			}
			<-b.exited
		}
		if err := os.RemoveAll(b.profileDir); err != nil {
			b.closeErr = errors.Join(b.closeErr, fmt.Errorf("removing browser profile: %w", err))
		}
	})
	return b.closeErr
}

// waitReady polls the DevTools version endpoint until it answers.
func (b *chromeProcess) waitReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &http.Client{Timeout: time.Second}
	endpoint := fmt.Sprintf("http://127.0.0.1:%d/json/version", b.port)

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		if resp, err := client.Do(req); err == nil {
			resp.Body.Close() //nolint:errcheck
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-b.exited:
			msg := strings.TrimSpace(b.stderr.String())
			return fmt.Errorf("browser exited before it was ready: %v; stderr: %s", b.waitErr, msg)
		case <-ctx.Done():
			return fmt.Errorf("waiting for browser debugging port %d: %w", b.port, ctx.Err())
		case <-ticker.C:
		}
	}
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close() //nolint:errcheck
	return l.Addr().(*net.TCPAddr).Port, nil
}
