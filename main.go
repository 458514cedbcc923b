package main

import (
	"context"
	"kuliahbot/app/client/telegram"
	"kuliahbot/app/config"
	"kuliahbot/app/service/clock"
	"kuliahbot/app/service/engine"
	"kuliahbot/app/service/identity"
	"kuliahbot/app/service/queue"
	"kuliahbot/app/service/reminder"
	"kuliahbot/app/service/session"
	"kuliahbot/app/service/status"
	"kuliahbot/app/util/mylog"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer func() {
		if err := di.Shutdown(); err != nil {
			slog.Error("Shutdown failed", "error", err)
		}
	}()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, clock.New)
	do.Provide(di, queue.New)
	do.Provide(di, identity.New)
	do.Provide(di, reminder.NewStore)
	do.Provide(di, telegram.NewClient)
	do.Provide(di, func(i *do.Injector) (reminder.Notifier, error) {
		return do.Invoke[*telegram.Client](i)
	})
	do.Provide(di, func(i *do.Injector) (engine.Sender, error) {
		return do.Invoke[*telegram.Client](i)
	})
	do.Provide(di, reminder.New)
	do.Provide(di, session.New)
	do.Provide(di, engine.New)
	do.Provide(di, status.New)

	telegramClient, err := do.Invoke[*telegram.Client](di)
	if err != nil {
		log.Fatalf("telegram client init failed: %v", err)
	}
	engineSvc := do.MustInvoke[*engine.Service](di)
	statusSvc := do.MustInvoke[*status.Service](di)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	g, ctx := errgroup.WithContext(appCtx)
	g.Go(func() error {
		return telegramClient.Run(ctx)
	})
	g.Go(func() error {
		return engineSvc.Run(ctx)
	})
	g.Go(func() error {
		return statusSvc.Run(ctx)
	})

	if err = g.Wait(); err != nil {
		slog.Error("Service stopped with error", "error", err)
	}
}
