package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/truemediaorg/catbot/listener"
	"github.com/truemediaorg/catbot/service"
	"github.com/truemediaorg/catbot/stream"
	"golang.org/x/sync/errgroup"
)

func listen() {
	/*
		Graceful shutdown is possible with errgroup + signal.NotifyContext
		NotifyContext returns a context that will close on OS signals to terminate the process
		errgroup uses that context, and also closes it in case a goroutine errors out
	*/
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer done()

	cfg := loadConfig(ctx)
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if cfg.TestModeEnabled {
		log.Info("TEST MODE ENABLED")
	}

	logger := log.StandardLogger()
	g, gCtx := errgroup.WithContext(ctx)

	twitterService, err := service.NewTwitterService(gCtx, cfg, logger.WithField("component", "twitter"))
	if err != nil {
		log.Fatalf("error connecting to X: %v", err)
	}
	giphyService := service.NewGiphyService(cfg, logger.WithField("component", "giphy"))

	catListener := listener.NewListener(twitterService, giphyService, twitterService.Me(), cfg, logger.WithField("component", "listener"))
	source := service.NewTwitterStreamSource(twitterService, cfg, logger.WithField("component", "stream"))

	healthchecker := service.NewHealthchecker(cfg.HealthcheckPort)

	g.Go(func() error {
		defer log.Info("exiting listener")
		return stream.Run(gCtx, source, catListener, logger.WithField("component", "driver"))
	})

	// For deployed instances, provide a basic healthcheck endpoint to show it's online
	g.Go(func() error {
		if err := healthchecker.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	// ...and shut down the server if the bot needs to terminate
	g.Go(func() error {
		<-gCtx.Done()
		defer log.Info("exiting healthchecker")
		return healthchecker.Server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		log.Errorf("caught error: %v", err)
	}
}
