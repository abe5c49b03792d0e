package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restopos/internal/config"
	"restopos/internal/dto"
	"restopos/internal/infra"
	"restopos/internal/model"
	"restopos/internal/repository"
	"restopos/internal/router"
	"restopos/internal/service"
	"restopos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Composition root: workers are wired here so the pool has full access
	// to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sunatClient := infra.NewSUNATClient(cfg.SUNATSidecarURL)
	sunatCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	printerClient := infra.NewPrinterClient(cfg.PrinterBridgeURL)
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)

	comprobanteRepo := repository.NewComprobanteRepository(db)
	cierreRepo := repository.NewCierreRepository(db)
	pagoRepo := repository.NewPagoRepository(db)

	resumirCierre := func(pagos []model.Pago) ([]dto.ResumenMetodo, []dto.ResumenUsuario) {
		return service.PorMetodo(pagos), service.PorUsuario(pagos, nil, nil)
	}

	handlers := worker.WorkerHandlers{
		Impresion:   worker.NewImpresionWorker(printerClient, cierreRepo, pagoRepo, rdb),
		Facturacion: worker.NewFacturacionWorker(sunatClient, sunatCB, comprobanteRepo, cfg.RUCEmisor),
		Email: worker.NewEmailWorker(mailer, cierreRepo, resumirCierre, rdb,
			cfg.RazonSocial, cfg.PDFStoragePath, cfg.ReportEmail),
	}
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, handlers)

	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		ComprobanteRepo: comprobanteRepo,
		Dispatcher:      dispatcher,
		CB:              sunatCB,
		RDB:             rdb,
	})

	r := router.New(cfg, db, rdb, sunatCB, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("restopos backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
