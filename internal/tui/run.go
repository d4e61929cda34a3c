package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/royaltodo/internal/controller"
)

// snapshotPump hands the latest snapshot to the program without ever
// blocking the controller. Intermediate snapshots are coalesced.
type snapshotPump struct {
	mu     sync.Mutex
	latest controller.Snapshot
	ready  chan struct{}
}

func newSnapshotPump() *snapshotPump {
	return &snapshotPump{ready: make(chan struct{}, 1)}
}

func (p *snapshotPump) put(s controller.Snapshot) {
	p.mu.Lock()
	p.latest = s
	p.mu.Unlock()
	select {
	case p.ready <- struct{}{}:
	default:
	}
}

func (p *snapshotPump) take() controller.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest
}

// Run starts the full-screen program and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, ctrl *controller.Controller, opts Options, progOpts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progOpts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, progOpts...)
	p := tea.NewProgram(New(ctx, ctrl, opts), progOpts...)

	pump := newSnapshotPump()
	unsubscribe := ctrl.Subscribe(pump.put)
	defer unsubscribe()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-pump.ready:
				p.Send(snapshotMsg(pump.take()))
			}
		}
	}()
	go func() {
		defer wg.Done()
		notices := ctrl.Notifications()
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-notices:
				p.Send(noticeMsg(n))
			}
		}
	}()

	_, err := p.Run()
	cancel()
	wg.Wait()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
