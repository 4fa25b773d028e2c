package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/watch"
)

// Watch redraws all codes every refresh interval until the user presses
// Enter. Changes made to the store file by other processes are reloaded.
func (a *App) Watch(ctx context.Context, _ []string) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if w, err := watch.NewFile(a.keeper.StorePath(), watch.WithLogger(a.log)); err != nil {
		a.log.Warn(ctx, "store file watcher unavailable", "error", err)
	} else {
		defer w.Close()
		go func() {
			_ = w.Run(ctx, func() {
				if a.keeper.Reload(ctx) {
					a.log.Info(ctx, "store reloaded after external change")
				}
			})
		}()
	}

	stop := make(chan struct{})
	go func() {
		_, _ = a.reader.ReadString('\n')
		close(stop)
	}()

	a.println("Watching codes, press Enter to stop.")
	interval := a.refresh
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_ = a.List(ctx, nil)

		select {
		case <-ctx.Done():
			return nil
		case <-stop:
			return nil
		case <-ticker.C:
		}
	}
}
