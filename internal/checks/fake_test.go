package checks

import (
	"context"
	"sync"
)

// fakeRunner returns scripted results in order and records every command.
type fakeRunner struct {
	mu       sync.Mutex
	results  []*CommandResult
	err      error
	commands []Command
}

func (f *fakeRunner) Run(_ context.Context, cmd Command) (*CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return &CommandResult{}, nil
	}
	res := f.results[0]
	f.results = f.results[1:]
	return res, nil
}

type fakeBrowser struct {
	port   int
	closed int
}

func (b *fakeBrowser) DebugPort() int { return b.port }

func (b *fakeBrowser) Close() error {
	b.closed++
	return nil
}

type fakeLauncher struct {
	browser *fakeBrowser
	err     error
}

func (l *fakeLauncher) Launch(context.Context) (Browser, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.browser, nil
}
