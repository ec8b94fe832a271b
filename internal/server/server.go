// FilePath: internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itsatony/hydrohub/api"
	"github.com/itsatony/hydrohub/internal/config"
	"github.com/itsatony/hydrohub/internal/database"
	"github.com/itsatony/hydrohub/internal/hubservice"
	"github.com/itsatony/hydrohub/internal/models"
	"github.com/itsatony/hydrohub/internal/monitoring"
	"github.com/itsatony/hydrohub/internal/mqtt"
	"github.com/itsatony/hydrohub/internal/realtime"
	"github.com/itsatony/hydrohub/internal/repository/files"
	"github.com/itsatony/hydrohub/internal/repository/sqldb"
	"github.com/itsatony/hydrohub/internal/simulator"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	db         database.DB
	hubservice *hubservice.HubService
	monitoring *monitoring.Service
	hub        *realtime.Hub
	redis      *redis.Client
	mqtt       *mqtt.Link
	simulator  *simulator.Simulator
	cancel     context.CancelFunc
	version    string
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config: cfg,
		srv:    srv,
	}
}

// SetVersion overrides the version reported by /health
func (s *Server) SetVersion(version string) {
	s.version = version
}

// Start begins listening for requests
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if err := s.initialize(ctx); err != nil {
		cancel()
		return err
	}
	s.startBackground(ctx)

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// initialize opens storage and builds every component; nothing runs yet
func (s *Server) initialize(ctx context.Context) error {
	db, err := database.Open(s.config.Database)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	s.db = db
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}

	svc, err := initializeHubService(s.config, db)
	if err != nil {
		return err
	}
	s.hubservice = svc

	s.monitoring = monitoring.NewService(monitoring.Config{
		MetricsPath: s.config.Monitoring.MetricsPath,
	})
	s.hub = realtime.NewHub(realtime.HubOptions{
		SendBuffer: s.config.Realtime.SendBuffer,
		OnDrop:     func() { s.monitoring.RecordDropped(1) },
	})
	s.monitoring.RegisterGauge("realtime_connections", "Open realtime connections.", func() float64 {
		return float64(s.hub.ConnectionCount())
	})

	if s.config.MQTT.Enabled {
		s.mqtt = mqtt.NewLink(s.config.MQTT, s.hubservice, s.hub)
	}
	if s.config.Simulator.Enabled {
		s.simulator = simulator.New(simulator.Config{
			Interval:       s.config.Simulator.Interval,
			CameraInterval: s.config.Simulator.CameraInterval,
		}, s.hubservice, s.hub, s.monitoring, nil)
	}

	if err := s.setupEventHandlers(); err != nil {
		return err
	}

	ws := realtime.NewHandler(s.hub, s.config.Realtime.PingPeriod)
	s.srv.Handler = api.NewRouter(s.hubservice, api.RouterOptions{
		CORSOrigins:   s.config.Server.CORSOrigins,
		MaxUploadSize: s.config.FileStore.MaxFileSize,
		Health:        s.handleHealth(),
		Realtime:      ws,
		MetricsPath:   s.monitoring.Path(),
		Metrics:       s.monitoring.Handler(),
	})
	return nil
}

// startBackground connects the optional transports and starts the simulator
func (s *Server) startBackground(ctx context.Context) {
	if s.config.Realtime.RedisEnabled {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     s.config.Redis.Addr(),
			Password: s.config.Redis.Password,
			DB:       s.config.Redis.DB,
		})
		relay := realtime.NewRedisRelay(s.redis, s.config.Realtime.RedisChannel, s.hub, func() { s.monitoring.RecordDropped(1) })
		if err := relay.Run(ctx); err != nil {
			nuts.L.Errorf("[Server] Redis relay unavailable, broadcasting locally only: %v", err)
		}
	}

	if s.mqtt != nil {
		if err := s.mqtt.Connect(); err != nil {
			nuts.L.Errorf("[Server] MQTT link unavailable: %v", err)
			s.mqtt = nil
		}
	}

	if s.simulator != nil {
		go s.simulator.Run(ctx)
	}
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	s.close()

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

func (s *Server) close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if s.redis != nil {
		s.redis.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// handleHealth reports liveness together with database reachability
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		if err := s.db.Ping(ctx); err != nil {
			nuts.L.Errorf("[Server] Health check failed: %v", err)
			status, code = "unavailable", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		version := s.version
		if version == "" {
			version = nuts.GetVersion()
		}
		json.NewEncoder(w).Encode(map[string]string{"status": status, "version": version})
	}
}

func (s *Server) setupEventHandlers() error {
	handlers := map[string]func(payload interface{}){
		hubservice.EventRelayUpdated: func(payload interface{}) {
			status, ok := payload.(*models.RelayStatus)
			if !ok {
				return
			}
			s.hub.BroadcastRoom(status.UnitID, realtime.EventRelayUpdate, status)
			s.monitoring.RecordEvent("relay_update", map[string]string{"unit_id": status.UnitID})
			if s.mqtt != nil {
				s.mqtt.PublishRelays(status)
			}
		},
		hubservice.EventScheduleUpdated: func(payload interface{}) {
			update, ok := payload.(*hubservice.ScheduleUpdate)
			if !ok {
				return
			}
			s.monitoring.RecordEvent("schedule_update", map[string]string{"unit_id": update.UnitID})
			if s.mqtt != nil {
				s.mqtt.PublishSchedule(update.UnitID, update.Schedule)
			}
		},
		hubservice.EventACScheduleUpdated: func(payload interface{}) {
			schedule, ok := payload.(models.ACSchedule)
			if !ok {
				return
			}
			s.monitoring.RecordEvent("ac_schedule_update", nil)
			if s.mqtt != nil {
				s.mqtt.PublishACSchedule(schedule)
			}
		},
		hubservice.EventCameraIngested: func(payload interface{}) {
			if img, ok := payload.(*models.CameraImage); ok {
				s.monitoring.RecordEvent("camera_image", map[string]string{"camera_id": img.CameraID})
			}
		},
		hubservice.EventSensorsIngested: func(payload interface{}) {
			s.monitoring.RecordEvent("sensor_reading", nil)
		},
	}

	for event, handler := range handlers {
		if err := s.hubservice.OnEvent(event, "server", handler); err != nil {
			return err
		}
	}
	return nil
}

// initializeHubService creates the repositories and the hub service on top of db
func initializeHubService(cfg *config.Config, db database.DB) (*hubservice.HubService, error) {
	store, err := files.NewFileRepository(files.FileConfig{
		BasePath:    cfg.FileStore.BasePath,
		MaxFileSize: cfg.FileStore.MaxFileSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file repository: %w", err)
	}

	loc, err := cfg.Export.Location()
	if err != nil {
		return nil, err
	}

	svc := hubservice.New(hubservice.Repositories{
		Units:      sqldb.NewUnitRepository(db),
		SensorData: sqldb.NewSensorDataRepository(db),
		Relays:     sqldb.NewRelayRepository(db),
		Schedules:  sqldb.NewScheduleRepository(db),
		Cameras:    sqldb.NewCameraRepository(db),
		Images:     store,
	}, hubservice.Options{
		AllowedExtensions: cfg.FileStore.AllowedExtensions,
		Location:          loc,
	})
	return svc, svc.Validate()
}
