package main

import (
	"context"
	"log/slog"
	"os"

	"fbs-backend/lib/restyutil"
	"fbs-backend/lib/serviceutil"
	"fbs-backend/lib/telemetry"
	servicefbs "fbs-backend/services/fbs"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
		servicefbs.SetRestyInstrumentOutput(
			restyutil.NewFilesystemOutput(".dev/resty/webhook"),
		)
	}

	err := telemetry.SetupFromEnv(ctx, "fbs-server")
	if os.IsNotExist(err) {
		slog.Warn("no telemetry.json5 found, otlp export disabled")
		return
	}
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)
}
