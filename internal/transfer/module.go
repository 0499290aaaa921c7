package transfer

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/filebridge/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/filebridge/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/filebridge/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/filebridge/internal/pkg/pkguid"
	"github.com/shandysiswandi/filebridge/internal/transfer/gateway"
	"github.com/shandysiswandi/filebridge/internal/transfer/inbound"
	"github.com/shandysiswandi/filebridge/internal/transfer/scheduler"
	"github.com/shandysiswandi/filebridge/internal/transfer/store"
	"github.com/shandysiswandi/filebridge/internal/transfer/usecase"
)

type Dependency struct {
	Config    pkgconfig.Config
	Goroutine *pkgroutine.Manager
	Router    *pkgrouter.Router
	Context   context.Context
	ID        pkguid.StringID
}

func New(dep Dependency) (func(context.Context) error, error) {
	storage, err := store.NewBadgerStore(dep.Config.GetString("modules.transfer.store.path"))
	if err != nil {
		return nil, err
	}

	blob, err := gateway.NewLocalBlobStore(dep.Config.GetString("modules.transfer.blob.path"))
	if err != nil {
		_ = storage.Close()
		return nil, err
	}

	callback := gateway.NewHTTPCallbackClient(dep.Config.GetDuration("modules.transfer.callback.timeout"))

	id := dep.ID
	if sf, err := pkguid.NewSnowflakeString(); err == nil {
		id = sf
	} else {
		slog.Warn("falling back to uuid task ids", "error", err)
	}
	if id == nil {
		id = pkguid.NewUUID()
	}

	uc := usecase.New(usecase.Dependency{
		Store:    storage,
		Blob:     blob,
		Callback: callback,
		Runner:   dep.Goroutine,
		ID:       id,
		RootCtx:  dep.Context,
	})

	sched, err := scheduler.New(dep.Context, uc, scheduler.Config{
		PendingSpec: dep.Config.GetString("modules.transfer.scheduler.pending"),
		ExpirySpec:  dep.Config.GetString("modules.transfer.scheduler.expiry"),
		Retention:   dep.Config.GetDuration("modules.transfer.scheduler.retention"),
	})
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	sched.Start()

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return func(ctx context.Context) error {
		if err := sched.Stop(ctx); err != nil {
			return err
		}
		return storage.Close()
	}, nil
}
