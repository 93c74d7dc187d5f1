package modules

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/memohai/valentines/internal/boot"
	"github.com/memohai/valentines/internal/config"
	"github.com/memohai/valentines/internal/conversation"
	"github.com/memohai/valentines/internal/members"
	"github.com/memohai/valentines/internal/router"
	"github.com/memohai/valentines/internal/valentines"
)

var CoreModule = fx.Module(
	"core",
	fx.Provide(
		members.NewService,
		provideValentines,
		conversation.NewMachine,
		provideRouter,
	),
)

func provideValentines(log *slog.Logger, store valentines.Store, cfg config.Config) *valentines.Service {
	return valentines.NewService(log, store, cfg.Valentines.ListLimit)
}

func provideRouter(log *slog.Logger, directory *members.Service, store *valentines.Service, machine *conversation.Machine, rc *boot.RuntimeConfig, cfg config.Config) *router.Router {
	return router.New(log, directory, store, machine, router.Options{
		CommunityName: cfg.Valentines.CommunityName,
		Location:      rc.Location,
		TimeFormat:    cfg.Valentines.TimeFormat,
		ListLimit:     store.ListLimit(),
	})
}
