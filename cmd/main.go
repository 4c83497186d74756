package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solarwatch/internal/forest"
	"solarwatch/internal/handlers"
	"solarwatch/internal/hub"
	"solarwatch/internal/logger"
	"solarwatch/internal/notifier"
	"solarwatch/internal/repository"
	"solarwatch/internal/repository/db"
	"solarwatch/internal/server"
	"solarwatch/internal/service"

	"github.com/spf13/viper"
)

func main() {
	// init logger
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log.level"))

	// open DB
	database, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(database)
	bus := hub.New(log)
	channel, closeChannel := openNotifier(log)
	defer closeChannel()

	services := service.NewService(service.Deps{
		Repos:    repos,
		Bus:      bus,
		Notifier: channel,
		Model:    loadModel(log),
		Cooldown: viper.GetDuration("alerts.cooldown"),
		Log:      log,
	})
	if err := services.Alerts.LoadPersisted(context.Background()); err != nil {
		log.Warnw("failed to restore alert config", "err", err)
	}

	apiHandler := handlers.NewHandler(services, bus, log)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "solarwatch.db")
		dbPath = "solarwatch.db"
	}
	return db.InitDB(dbPath)
}

// loadModel reads the exported classifier. A missing model is not fatal: the
// API stays up and reports the condition per request.
func loadModel(log *logger.Logger) *forest.Model {
	path := viper.GetString("model.path")
	if path == "" {
		path = "models/fault_model.json"
	}
	model, err := forest.Load(path)
	if err != nil {
		log.Warnw("classifier model unavailable", "path", path, "err", err)
		return nil
	}
	log.Infow("classifier model loaded", "path", path, "trees", len(model.Trees))
	return model
}

// openNotifier selects the alert channel: MQTT when a broker is configured,
// otherwise the local log-only fallback.
func openNotifier(log *logger.Logger) (notifier.Notifier, func()) {
	broker := viper.GetString("mqtt.broker")
	if broker == "" {
		log.Infow("mqtt.broker not set; alerts will be logged locally")
		return notifier.NewLogOnly(log), func() {}
	}
	clientID := viper.GetString("mqtt.client_id")
	if clientID == "" {
		clientID = "solarwatch"
	}
	topicPrefix := viper.GetString("mqtt.topic_prefix")
	if topicPrefix == "" {
		topicPrefix = "solarwatch/alerts"
	}
	m, err := notifier.NewMQTT(broker, clientID, topicPrefix)
	if err != nil {
		log.Errorw("mqtt unavailable; falling back to log-only alerts", "broker", broker, "err", err)
		return notifier.NewLogOnly(log), func() {}
	}
	log.Infow("mqtt alert channel ready", "broker", broker, "topic_prefix", topicPrefix)
	return m, m.Close
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
