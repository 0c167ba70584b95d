package main

import (
	"flag"
	"net/http"

	"fbs-backend/lib/configutil"
	"fbs-backend/lib/serviceutil"
	"fbs-backend/lib/sqliteutil"
	servicefbs "fbs-backend/services/fbs"
	"fbs-backend/services/fbs/db"
)

type CredentialsConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Config struct {
	Port        int               `json:"port"`
	AccessToken string            `json:"access_token"`
	Database    string            `json:"database"`
	Credentials CredentialsConfig `json:"credentials"`
	Service     servicefbs.Config `json:"service"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.Database == "" {
		cfg.Database = "scrapes.db"
	}

	database, err := sqliteutil.OpenDB(db.Schema, cfg.Database)
	if err != nil {
		serviceutil.Fatal("open db", err)
	}
	defer database.Close()

	service := servicefbs.NewService(database, cfg.Service)

	mux := http.NewServeMux()
	RegisterHandlers(mux, cfg, service)

	go serviceutil.StartHttpServer(cfg.Port, mux)
	<-ctx.Done()
}
