package app

import (
	"figure-stand/internal/config"
	"figure-stand/internal/logger"
	"figure-stand/internal/pipeline"
	"figure-stand/internal/processing/pedestal"
)

const (
	AppName    = "Figure Stand"
	AppVersion = "1.0.0"
)

// Application wires configuration, logging, the pedestal catalog and the
// pipeline coordinator. Both the CLI and the GUI start from one.
type Application struct {
	Config      *config.Config
	Logger      *logger.ZerologAdapter
	Catalog     *pedestal.Catalog
	Coordinator *pipeline.Coordinator
	lifecycle   *Lifecycle
}

// NewApplication loads configPath (empty for defaults) and builds every
// component. levelOverride, when non-empty, wins over the configured level.
func NewApplication(configPath, levelOverride string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := logger.LevelFromEnv(cfg.LogLevel)
	if levelOverride != "" {
		level = logger.ParseLevel(levelOverride)
	}
	log := logger.NewConsoleLogger(level)

	log.Info("Application", "starting application", map[string]interface{}{
		"version":   AppVersion,
		"config":    configPath,
		"asset_dir": cfg.Pedestal.AssetDir,
	})

	catalog := pedestal.NewCatalog(cfg.Pedestal.AssetDir, cfg.Pedestal.Catalog, log)
	coordinator := pipeline.NewCoordinator(pipeline.OptionsFromConfig(cfg), catalog, log)

	lifecycle := NewLifecycle(log)
	lifecycle.Register("coordinator", coordinator.Close)
	lifecycle.Register("pedestal catalog", catalog.Close)

	return &Application{
		Config:      cfg,
		Logger:      log,
		Catalog:     catalog,
		Coordinator: coordinator,
		lifecycle:   lifecycle,
	}, nil
}

func (a *Application) Shutdown() {
	a.lifecycle.Shutdown()
}
