// Command lessonbot runs the school schedule Telegram bot.
package main

import (
	"context"
	"log"

	"github.com/m3rciful/lessonbot/core/bootstrap"
	corecmd "github.com/m3rciful/lessonbot/core/cmd"
	coreconfig "github.com/m3rciful/lessonbot/core/config"
	"github.com/m3rciful/lessonbot/core/health"
	"github.com/m3rciful/lessonbot/internal/bot"
	"github.com/m3rciful/lessonbot/internal/ingest"
	"github.com/m3rciful/lessonbot/internal/schedule"
	"github.com/m3rciful/lessonbot/internal/session"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		EnvFiles:          []string{".env"},
		LoadConfig: func(path string, optional bool) (corecmd.ConfigCarrier, error) {
			return coreconfig.Load(path, optional)
		},
		Bootstrap: build,
		Services: func(cc corecmd.ConfigCarrier) []corecmd.Service {
			cfg := cc.CoreConfig()
			if cfg.Health.Disabled {
				return nil
			}
			return []corecmd.Service{{Name: "health", Run: health.New(cfg.Health).Run}}
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}

func build(ctx context.Context, cc corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg := cc.CoreConfig()
	res, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}

	admins := session.NewAllowList(cfg.Telegram.AdminIDs)
	sessions := session.NewManager(res.Datasets, admins, cfg.Schedule.Classes)
	resolver := schedule.NewResolver(res.Datasets, cfg.Schedule.Location(), nil)
	uploads := ingest.NewMachine(res.Datasets)

	return bot.NewApp(cfg, bot.NewDispatcher(sessions, resolver, uploads), sessions, res), nil
}
