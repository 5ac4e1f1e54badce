// Command plant-bridge relays device telemetry from MQTT to websocket
// clients, gates actuator commands behind authentication, and runs the
// threshold automation engine.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sweeney/plant-bridge/internal/auth"
	"github.com/sweeney/plant-bridge/internal/automation"
	"github.com/sweeney/plant-bridge/internal/broker"
	"github.com/sweeney/plant-bridge/internal/config"
	"github.com/sweeney/plant-bridge/internal/history"
	"github.com/sweeney/plant-bridge/internal/hub"
	"github.com/sweeney/plant-bridge/internal/settings"
	"github.com/sweeney/plant-bridge/internal/status"
	"github.com/sweeney/plant-bridge/internal/telemetry"
	"github.com/sweeney/plant-bridge/internal/throttle"
	"github.com/sweeney/plant-bridge/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to config file (environment variables only when empty)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("fatal", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	mgr := settings.NewManager(settings.NewFileStore(cfg.SettingsPath), logger)
	ring := history.NewRing(cfg.HistorySize)
	tr := throttle.New(cfg.ThrottleInterval())
	tracker := status.NewTracker(time.Now(), status.Config{
		Broker:         cfg.Broker,
		TelemetryTopic: cfg.TelemetryTopic,
		CommandTopic:   cfg.CommandTopic,
		HTTPAddr:       cfg.HTTPAddr,
		ThrottleMs:     cfg.ThrottleInterval().Milliseconds(),
	})

	var gate auth.Validator
	if cfg.IdentityURL != "" {
		gate = auth.NewHTTPValidator(cfg.IdentityURL)
	} else {
		gate = auth.NewStaticValidator(map[string]string{cfg.StaticToken: cfg.StaticUsername})
	}

	// Broker callbacks run on the paho client's goroutines; they feed the
	// event loop through channels so every sample is fully processed
	// (broadcast, then automation) before the next one is looked at.
	samples := make(chan telemetry.Sample, 16)
	transitions := make(chan bool, 4)

	link, err := broker.NewMQTTLink(broker.Options{
		Broker:         cfg.Broker,
		ClientID:       cfg.ClientID,
		TelemetryTopic: cfg.TelemetryTopic,
		RetryInterval:  cfg.RetryInterval(),
		OnSample:       func(s telemetry.Sample) { samples <- s },
		OnStatus:       func(up bool) { transitions <- up },
	}, logger)
	if err != nil {
		return err
	}
	defer link.Close()

	engine := automation.New(automation.DefaultRules(), mgr, link, cfg.CommandTopic, logger)
	engine.OnCommand = func(telemetry.DeviceKey, bool) { tracker.AutoCommand() }

	h := hub.New(hub.Config{
		Link:         link,
		CommandTopic: cfg.CommandTopic,
		Gate:         gate,
		Settings:     mgr,
		Engine:       engine,
		Tracker:      tracker,
	}, logger)
	defer h.Close()

	srv := web.New(web.Config{
		Addr:     cfg.HTTPAddr,
		Settings: mgr,
		Gate:     gate,
		Hub:      h,
		History:  ring,
		Tracker:  tracker,
	}, logger)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", zap.Error(err))
		}
	}()
	defer srv.Shutdown(context.Background())
	logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))

	if cfg.HeartbeatSchedule != "" {
		c := cron.New()
		_, err := c.AddFunc(cfg.HeartbeatSchedule, func() {
			payload := status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT")
			if err := link.Publish(cfg.StatusTopic, payload); err != nil {
				logger.Warn("heartbeat publish failed", zap.Error(err))
			}
		})
		if err != nil {
			return err
		}
		c.Start()
		defer c.Stop()
	}

	if err := link.Publish(cfg.StatusTopic, status.FormatStatusEvent(tracker.Snapshot(), "STARTUP")); err != nil {
		logger.Warn("startup publish failed", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("started",
		zap.String("broker", cfg.Broker),
		zap.String("telemetry_topic", cfg.TelemetryTopic),
		zap.Duration("throttle", cfg.ThrottleInterval()))

	runLoop(loopDeps{
		throttle: tr,
		tracker:  tracker,
		history:  ring,
		hub:      h,
		engine:   engine,
		log:      logger,
		now:      time.Now,
	}, samples, transitions, sigCh)

	if err := link.Publish(cfg.StatusTopic, status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN")); err != nil {
		logger.Warn("shutdown publish failed", zap.Error(err))
	}
	return nil
}

// broadcaster is the slice of the hub the event loop needs.
type broadcaster interface {
	Broadcast(telemetry.Sample)
	SetBrokerStatus(bool)
}

// observer is the slice of the automation engine the event loop needs.
type observer interface {
	Observe(telemetry.Sample)
}

type loopDeps struct {
	throttle *throttle.Throttle
	tracker  *status.Tracker
	history  *history.Ring
	hub      broadcaster
	engine   observer
	log      *zap.Logger
	now      func() time.Time
}

// runLoop is the bridge's event loop: one goroutine owns admission,
// broadcast, and automation, so the engine always evaluates the sample
// that was just broadcast, in the same order. Returns when a signal
// arrives.
func runLoop(deps loopDeps, samples <-chan telemetry.Sample, transitions <-chan bool, sig <-chan os.Signal) {
	for {
		select {
		case s := <-sig:
			deps.log.Info("shutting down", zap.String("signal", s.String()))
			return

		case up := <-transitions:
			deps.hub.SetBrokerStatus(up)

		case sample := <-samples:
			now := deps.now()
			if !deps.throttle.Admit(now) {
				deps.tracker.SampleDropped()
				continue
			}
			deps.tracker.SampleAdmitted()
			sample.Timestamp = now
			deps.history.Push(sample)
			deps.hub.Broadcast(sample)
			deps.engine.Observe(sample)
		}
	}
}
