package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "water_tank/docs"
	"water_tank/internal/dashboard"
	"water_tank/internal/display"
	"water_tank/internal/handlers"
	"water_tank/internal/logger"
	"water_tank/internal/metrics"
	"water_tank/internal/models"
	"water_tank/internal/pubsub"
	"water_tank/internal/repository"
	"water_tank/internal/repository/db"
	"water_tank/internal/server"
	"water_tank/internal/service"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "WATER_TANK"
	connectTimeout    = 10 * time.Second
	settingsLoadRetry = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// load config.yml
	cfgErr := loadConfig()

	// init logger
	log := logger.GetWithFormat(viper.GetString("log.level"), viper.GetString("log.format"))
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	// open DB
	conn, dialect, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init database", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close database", "err", cerr)
		}
	}()

	metrics.Init()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// dashboard side: server-rendered board fed by snapshot messages
	board := display.NewBoard(display.NewHub())
	dash := dashboard.New(dashboard.NewState(), board, log.Named("dashboard"))

	// broker side
	broker := brokerConfig()
	backend, dashClient, publisher := connectBroker(ctx, broker, dash, log)
	if backend != nil {
		defer backend.Close()
	}
	if dashClient != nil {
		defer dashClient.Close()
	}

	// wire dependencies
	repos := repository.NewRepository(conn, dialect)
	services := service.NewService(service.Deps{
		Repos:     repos,
		Publisher: publisher,
		Broker:    broker,
		Defaults:  defaultSettings(),
		Log:       log,

		EventsTopic: viper.GetString("mqtt.events_topic"),
	})

	seedTanks(ctx, services, log)

	if backend != nil {
		if err := services.Subscribe(ctx, backend, broker.RequestTopic, viper.GetStringSlice("mqtt.extra_sensor_topics")); err != nil {
			log.Errorw("sensor subscriptions failed", "err", err)
		}
	}

	startDashboard(ctx, services, dash, log)
	go services.Monitor.Run(ctx, viper.GetDuration("monitor.interval"))

	// start HTTP server
	srv := &server.Server{Options: server.Options{
		ReadHeaderTimeout: viper.GetDuration("http.read_header_timeout"),
		IdleTimeout:       viper.GetDuration("http.idle_timeout"),
	}}
	apiHandler := handlers.NewHandler(services, board, log.Named("http"))
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("port", "8080")
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("log.format", logger.ConsoleFormat)
	viper.SetDefault("db.driver", db.DriverSQLite)
	viper.SetDefault("db.path", "water_tank.db")
	viper.SetDefault("mqtt.broker_port", 1883)
	viper.SetDefault("mqtt.broker_ws_port", 9001)
	viper.SetDefault("mqtt.client_id_prefix", "water_tank")
	viper.SetDefault("mqtt.data_publish_topic", "WaterTankData")
	viper.SetDefault("mqtt.request_topic", "WaterTankDataRequest")
	viper.SetDefault("mqtt.events_topic", "WaterTankEvents")
	viper.SetDefault("mqtt.publish_timeout", 10*time.Second)
	viper.SetDefault("settings.max_sensor_no_signal_time", 10)
	viper.SetDefault("settings.max_sensor_log_records", 1000)
	viper.SetDefault("settings.sensor_log_enabled", true)
	viper.SetDefault("dashboard.refresh_interval", dashboard.DefaultRefreshInterval)

	var notFound viper.ConfigFileNotFoundError
	if err := viper.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}

// openDB initializes the database using configuration.
func openDB(log *logger.Logger) (*sql.DB, repository.Dialect, error) {
	cfg := db.Config{
		Driver: viper.GetString("db.driver"),
		Path:   viper.GetString("db.path"),
		DSN:    viper.GetString("db.dsn"),
	}
	log.Infow("opening database", "driver", cfg.Driver)
	conn, err := db.Open(cfg)
	if err != nil {
		return nil, "", err
	}
	return conn, repository.DialectFor(cfg.Driver), nil
}

func brokerConfig() service.BrokerConfig {
	return service.BrokerConfig{
		Host:         viper.GetString("mqtt.broker_host"),
		Port:         viper.GetInt("mqtt.broker_port"),
		WSPort:       viper.GetInt("mqtt.broker_ws_port"),
		DataTopic:    viper.GetString("mqtt.data_publish_topic"),
		RequestTopic: viper.GetString("mqtt.request_topic"),
	}
}

func defaultSettings() models.Settings {
	return models.Settings{
		MaxSensorNoSignalTime: viper.GetInt("settings.max_sensor_no_signal_time"),
		MaxSensorLogRecords:   viper.GetInt("settings.max_sensor_log_records"),
		SensorLogEnabled:      viper.GetBool("settings.sensor_log_enabled"),
	}
}

// connectBroker returns the backend and dashboard clients and the snapshot publisher.
// Without a broker host, snapshots are handed straight to the dashboard.
func connectBroker(ctx context.Context, broker service.BrokerConfig, dash *dashboard.Dashboard, log *logger.Logger) (*pubsub.Client, *pubsub.Client, service.Publisher) {
	if broker.Host == "" {
		log.Infow("mqtt.broker_host not set; dashboard fed in-process")
		loopback := service.PublisherFunc(func(_ context.Context, topic string, _ byte, _ bool, payload []byte) error {
			if topic != broker.DataTopic {
				return nil
			}
			return dash.HandleMessage(payload)
		})
		return nil, nil, loopback
	}

	cfg := pubsub.Config{
		BrokerHost:     broker.Host,
		BrokerPort:     broker.Port,
		Username:       viper.GetString("mqtt.username"),
		Password:       viper.GetString("mqtt.password"),
		ClientIDPrefix: viper.GetString("mqtt.client_id_prefix"),
		ConnectTimeout: connectTimeout,
		PublishTimeout: viper.GetDuration("mqtt.publish_timeout"),
	}
	backend := pubsub.NewClient(cfg, log.Named("mqtt_backend"))

	dashCfg := cfg
	dashCfg.ClientIDPrefix = cfg.ClientIDPrefix + "_dashboard"
	dashClient := pubsub.NewClient(dashCfg, log.Named("mqtt_dashboard"))

	for _, c := range []*pubsub.Client{backend, dashClient} {
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		if err := c.Connect(cctx); err != nil {
			// paho keeps retrying; subscriptions are restored on connect
			log.Warnw("mqtt connect pending", "client_id", c.ClientID(), "err", err)
		}
		cancel()
	}

	err := dashClient.Subscribe(ctx, broker.DataTopic, pubsub.QoSAtLeastOnce, func(_ string, payload []byte) {
		_ = dash.HandleMessage(payload)
	})
	if err != nil {
		log.Errorw("dashboard subscription failed", "topic", broker.DataTopic, "err", err)
	}
	return backend, dashClient, backend
}

func seedTanks(ctx context.Context, services *service.Service, log *logger.Logger) {
	path := viper.GetString("seed.tanks_file")
	if path == "" {
		return
	}
	tanks, err := service.LoadSeedFile(path)
	if err != nil {
		log.Errorw("failed to read seed file", "path", path, "err", err)
		return
	}
	created, err := service.Seed(ctx, services.Tanks, tanks)
	if err != nil {
		log.Errorw("failed to seed tanks", "path", path, "err", err)
		return
	}
	log.Infow("seeded tanks", "path", path, "created", created, "total", len(tanks))
}

// startDashboard renders the stored tanks, loads the settings in the background
// and starts the refresher. Rows appear once settings are in.
func startDashboard(ctx context.Context, services *service.Service, dash *dashboard.Dashboard, log *logger.Logger) {
	snap, err := services.Tanks.Snapshot(ctx)
	if err != nil {
		log.Errorw("initial snapshot failed", "err", err)
	} else {
		dash.Load(snap)
	}

	go func() {
		for {
			st, err := services.Settings.Get(ctx)
			if err == nil {
				dash.State().LoadSettings(st)
				return
			}
			log.Errorw("dashboard settings load failed", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(settingsLoadRetry):
			}
		}
	}()

	go dash.Run(ctx, viper.GetDuration("dashboard.refresh_interval"))
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
