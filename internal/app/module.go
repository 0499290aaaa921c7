package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/shandysiswandi/filebridge/internal/transfer"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.transfer.enabled") {
		closer, err := transfer.New(transfer.Dependency{
			Config:    a.config,
			Router:    a.router,
			Goroutine: a.goroutine,
			Context:   a.ctx,
			ID:        a.uuid,
		})
		if err != nil {
			slog.Error("failed to init module transfer", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			if a.closerFn == nil {
				a.closerFn = map[string]func(context.Context) error{}
			}
			a.closerFn["Transfer"] = closer
		}
	}
}
