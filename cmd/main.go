package main

//
//  @title           mtmengine API
//  @version         1.0
//  @description     Exposure and mark-to-market engine for physical and paper biodiesel trades.
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/mtmengine
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        exposure
//  @tag.description Monthly exposure table
//
//  @tag.name        mtm
//  @tag.description Mark-to-market valuations
//
//  @tag.name        prices
//  @tag.description Price series and instruments
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"

	"github.com/guttosm/mtmengine/config"
	_ "github.com/guttosm/mtmengine/docs" // swagger docs
	"github.com/guttosm/mtmengine/internal/app"
	"github.com/guttosm/mtmengine/internal/domain/dto"
	"github.com/guttosm/mtmengine/internal/domain/models"
	"github.com/guttosm/mtmengine/internal/logger"
	"github.com/guttosm/mtmengine/internal/period"
)

// startServer starts the HTTP server in its own goroutine.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown waits for SIGINT/SIGTERM, drains the server and runs
// cleanup.
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// parseToday reads a YYYY-MM-DD flag value; empty means the current UTC date.
func parseToday(s string) (time.Time, error) {
	if s == "" {
		return period.TruncateToDate(time.Now().UTC()), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --today %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// runExposure prints the exposure table for the horizon starting at start.
func runExposure(ctx context.Context, svc *app.Services, start string, today time.Time, out io.Writer) error {
	var first period.MonthCode
	if start != "" {
		m, err := period.ParseMonthCode(start)
		if err != nil {
			return err
		}
		first = m
	}
	res, err := svc.Exposure.ComputeExposure(ctx, first, today)
	if err != nil {
		return err
	}
	resp := dto.ExposureResponse{
		From:            res.Horizon.First().String(),
		To:              res.Horizon.Last().String(),
		Months:          res.Report.Monthly,
		GrandTotals:     res.Report.Grand,
		GroupTotals:     res.Report.Group,
		SkippedLegCount: res.Report.SkippedLegCount,
		SkippedLegs:     res.Report.Skipped,
		TradesPerMonth:  res.TradesPerMonth,
	}
	for _, p := range res.Products {
		resp.Products = append(resp.Products, p.String())
	}
	return writeJSON(out, resp)
}

// runMTM prints one leg's valuation, or the whole book when leg is empty.
func runMTM(ctx context.Context, svc *app.Services, leg, kind string, today time.Time, out io.Writer) error {
	if leg == "" {
		book, err := svc.Valuation.ValueBook(ctx, today)
		if err != nil {
			return err
		}
		return writeJSON(out, dto.NewBookValuationResponse(*book, today))
	}
	v, err := svc.Valuation.ValueLeg(ctx, models.LegKind(kind), leg, today)
	if err != nil {
		return err
	}
	return writeJSON(out, dto.NewValuationResponse(*v))
}

// main is the entry point of mtmengine.
//
// Modes (selected via --mode flag):
//   - api:      Starts the REST API (default).
//   - exposure: Prints the exposure table as JSON and exits.
//   - mtm:      Prints a leg valuation (--leg, --kind) or the whole book as JSON and exits.
func main() {
	ctx := context.Background()

	config.LoadConfig()
	logger.Init()

	mode := flag.String("mode", "api", "Mode: api, exposure or mtm")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	start := flag.String("start", "", "First month of the exposure horizon (YYYY-MM)")
	todayFlag := flag.String("today", "", "As-of date (YYYY-MM-DD), defaults to today")
	leg := flag.String("leg", "", "Leg id to value in mtm mode; empty values the whole book")
	kind := flag.String("kind", string(models.KindPhysical), "Leg kind in mtm mode: physical or paper")
	flag.Parse()

	today, err := parseToday(*todayFlag)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("invalid flags")
	}

	switch *mode {
	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	case "exposure", "mtm":
		svc, err := app.InitializeServices()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}
		defer svc.Close()

		if *mode == "exposure" {
			err = runExposure(ctx, svc, *start, today, os.Stdout)
		} else {
			err = runMTM(ctx, svc, *leg, *kind, today, os.Stdout)
		}
		if err != nil {
			svc.Close()
			logger.L().Fatal().Err(err).Str("mode", *mode).Msg("run failed")
		}

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
