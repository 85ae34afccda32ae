package main

import (
	"bitwise74/share-api/app"
	"bitwise74/share-api/config"
	"bitwise74/share-api/db"
	"bitwise74/share-api/internal"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	defer zap.L().Sync()

	conn, err := db.New(cfg.Database)
	if err != nil {
		panic(err)
	}

	d, err := app.NewDeps(cfg, conn, app.DialAccount)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch pickMode(*config.Reclaim, cfg.Reclaim.Schedule) {
	case modeReclaimOnce:
		if _, err := d.Reclaimer.Run(ctx); err != nil {
			zap.L().Fatal("Reclamation failed", zap.Error(err))
		}
	case modeSchedule:
		if err := runSchedule(ctx, d); err != nil {
			zap.L().Fatal("Reclamation scheduler failed", zap.Error(err))
		}
	default:
		zap.L().Info("Server starting", zap.Int("port", cfg.Host.Port))

		if err := app.NewRouter(d).Run(fmt.Sprintf(":%d", cfg.Host.Port)); err != nil {
			panic(err)
		}
	}
}

type runMode int

const (
	modeServe runMode = iota
	modeReclaimOnce
	modeSchedule
)

// pickMode decides what the process does. A schedule can come from
// config.toml or the environment, so the skipped HTTP server is logged
func pickMode(reclaimOnce bool, schedule string) runMode {
	switch {
	case reclaimOnce:
		return modeReclaimOnce
	case schedule != "":
		zap.L().Warn("Reclaim schedule is set, running as a reclamation scheduler. The HTTP server will not be started",
			zap.String("schedule", schedule))
		return modeSchedule
	}

	return modeServe
}

// runSchedule keeps running reclamation on the configured cron expression until
// ctx is cancelled. A run still in progress makes the next tick a no-op
func runSchedule(ctx context.Context, d *internal.Deps) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))

	_, err := c.AddFunc(d.Config.Reclaim.Schedule, func() {
		if _, err := d.Reclaimer.Run(ctx); err != nil {
			zap.L().Error("Scheduled reclamation failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reclaim schedule %q, %w", d.Config.Reclaim.Schedule, err)
	}

	zap.L().Info("Reclamation scheduler started", zap.String("schedule", d.Config.Reclaim.Schedule))

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	return nil
}
