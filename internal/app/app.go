package app

import (
	"fmt"

	apphttp "github.com/yungbote/jobscribe-backend/internal/http"
	"github.com/yungbote/jobscribe-backend/internal/platform/envutil"
	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
)

type App struct {
	Log    *logger.Logger
	Server *apphttp.Server
	Cfg    Config
}

func New() (*App, error) {
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	clientset, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	serviceset := wireServices(log, cfg, clientset)
	server := wireServer(log, cfg, clientset, serviceset)

	return &App{
		Log:    log,
		Server: server,
		Cfg:    cfg,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server starting", "addr", a.Cfg.HTTPAddr)
	return a.Server.Run(a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
