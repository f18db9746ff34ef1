package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/backend"
	"vincit.fi/media-preview/backend/library"
	"vincit.fi/media-preview/common"
	"vincit.fi/media-preview/common/logger"
)

func main() {
	params, err := common.ParseParams()
	if err != nil {
		log.Fatal(err)
	}
	logger.Initialize(logger.StringToLogLevel(params.GetLogLevel()))

	if params.GetRootPath() == "" {
		fmt.Fprintln(os.Stderr, "Usage: media-preview [flags] <directory>")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if params.GetMetricsAddr() != "" {
		startMetricsServer(params.GetMetricsAddr())
	}

	if err := run(ctx, params); err != nil {
		logger.Error.Fatal(err)
	}
}

func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		logger.Info.Printf("Serving metrics on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error.Printf("Metrics server stopped: %s", err)
		}
	}()
}

func run(ctx context.Context, params *common.Params) error {
	stores, err := backend.InitializeStores(ctx, params)
	if err != nil {
		return err
	}
	defer stores.Close()

	brokers := backend.InitializeDefaultEventBrokers()
	services, err := backend.InitializeServices(ctx, params, stores, brokers)
	if err != nil {
		return err
	}
	defer services.Close()

	brokers.Broker.Subscribe(api.ProcessStatusUpdated, func(command *api.UpdateProgressCommand) {
		logger.Debug.Printf("%s %d/%d", command.Name, command.Current, command.Total)
	})
	brokers.Broker.Subscribe(api.ShowError, func(command *api.ErrorCommand) {
		fmt.Fprintln(os.Stderr, command.Message)
	})

	progressReporter := api.NewSenderProgressReporter(brokers.Broker)
	imageLibrary := library.NewLibrary(services.PathFetcher, services.Loader, services.Style, services.MaxFailures, progressReporter)
	if err := imageLibrary.InitializeFromDirectory(params.GetRootPath()); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, params.GetTimeout())
	defer cancel()
	for imageLibrary.RequestPreviews(); !imageLibrary.Done(); imageLibrary.RequestPreviews() {
		if _, err := brokers.Runner.Wait(waitCtx); err != nil {
			logger.Warn.Printf("Stopped waiting for previews: %s", err)
			break
		}
	}

	for _, entry := range imageLibrary.Entries() {
		fmt.Printf("%-9s %-11s %s\n", entry.Kind, entry.Preview.State(), entry.Path)
	}
	return nil
}
