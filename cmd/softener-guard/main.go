// Command softener-guard watches a water softener's backwash and power-cycles
// the softener when the backwash does not stop on its own.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sweeney/softener-guard/internal/config"
	"github.com/sweeney/softener-guard/internal/control"
	"github.com/sweeney/softener-guard/internal/gpio"
	"github.com/sweeney/softener-guard/internal/lifecycle"
	"github.com/sweeney/softener-guard/internal/logging"
	"github.com/sweeney/softener-guard/internal/logic"
	"github.com/sweeney/softener-guard/internal/mqtt"
	"github.com/sweeney/softener-guard/internal/notify"
	"github.com/sweeney/softener-guard/internal/record"
	"github.com/sweeney/softener-guard/internal/status"
	"github.com/sweeney/softener-guard/internal/web"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		return lifecycle.ExitOK
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "softener-guard: %v\n", err)
		return lifecycle.ExitFault
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "softener-guard: %v\n", err)
		return lifecycle.ExitFault
	}
	defer logger.Sync()

	pins, err := gpio.NewRealPins(cfg.Chip, cfg.SensorPin, cfg.RelayPin)
	if err != nil {
		logger.Error("init gpio", zap.Error(err))
		return lifecycle.ExitHardware
	}

	if cfg.PrintState {
		defer pins.Close()
		flowing, err := pins.Read()
		if err != nil {
			logger.Error("read flow sensor", zap.Error(err))
			return lifecycle.ExitHardware
		}
		fmt.Printf("Flow: %s\n", logic.SensorStateOf(flowing))
		return lifecycle.ExitOK
	}

	notifier := buildNotifier(cfg, logger)

	recorder, closeRecorder := openRecorder(cfg.DBPath, logger)
	defer closeRecorder()

	var publisher mqtt.Publisher = mqtt.Discard{}
	if cfg.Broker != "" {
		publisher = mqtt.NewRealPublisher(cfg.Broker, "softener-guard-"+uuid.NewString(), logger)
	}
	defer publisher.Close()
	conn, _ := publisher.(mqtt.ConnectionStatus)

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	reporter := control.NewEventReporter(cfg.Hostname, notifier, recorder, publisher, tracker, cfg.NotifyTimeout, logger)

	clock := control.SystemClock{}
	probe := control.NewProbe(control.NewSampler(pins, clock), cfg.Window, cfg.Poll, cfg.MinFlow, logger)
	sequencer := control.NewSequencer(pins, probe, clock, reporter, control.SequencerConfig{
		PowerOffHold: cfg.PowerOffHold,
		RestartWait:  cfg.Overrun,
		MaxRetries:   cfg.MaxRetries,
	}, logger)
	supervisor := control.NewSupervisor(probe, sequencer, clock, reporter, control.Thresholds{
		Overrun:     cfg.Overrun,
		MinBackwash: cfg.MinBackwash,
	}, tracker, logger)

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case s := <-sigCh:
			logger.Info("signal received, shutting down", zap.String("signal", lifecycle.SignalName(s)))
			cancel(&lifecycle.SignalError{Signal: s})
		case <-ctx.Done():
		}
	}()

	var srv *web.Server
	if cfg.HTTPAddr != "" {
		srv = web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("http server error", zap.Error(err))
			}
		}()
		logger.Info("http status server listening", zap.String("addr", cfg.HTTPAddr))
	}

	loop := func() error {
		refreshMQTT(tracker, conn)
		reporter.Report(ctx, logic.Event{Timestamp: time.Now(), Type: logic.EventStartup})
		logger.Info("started",
			zap.String("hostname", cfg.Hostname),
			zap.Duration("window", cfg.Window),
			zap.Duration("poll", cfg.Poll),
			zap.Duration("min_flow", cfg.MinFlow),
			zap.Duration("overrun", cfg.Overrun),
			zap.Int("max_retries", cfg.MaxRetries),
			zap.String("broker", cfg.Broker))

		return runLoop(ctx, supervisor, reporter, clock, cfg.ReportHour, tracker, conn, logger)
	}
	return guard(loop, func(reason lifecycle.Reason) {
		shutdown(pins, reporter, tracker, conn, srv, reason, logger)
	}, logger)
}

// guard runs loop and then stop, whether loop returns or panics, and
// returns the exit status for the way loop ended.
func guard(loop func() error, stop func(lifecycle.Reason), log *zap.Logger) (code int) {
	reason := lifecycle.Reason{Kind: lifecycle.KindUnknown}
	defer func() {
		if v := recover(); v != nil {
			log.Error("panic in control loop", zap.Any("panic", v), zap.Stack("stack"))
			reason = lifecycle.FromPanic(v)
		}
		stop(reason)
		code = reason.ExitCode()
	}()

	reason = lifecycle.FromError(loop())
	return reason.ExitCode()
}

// stepper is the part of the supervisor the loop drives.
type stepper interface {
	Step(ctx context.Context) (control.Transition, error)
}

// runLoop steps the supervisor until it fails, halts or ctx is cancelled.
// The daily heartbeat is checked once per iteration. On cancellation the
// cancel cause is returned.
func runLoop(ctx context.Context, sup stepper, reporter control.Reporter, clock control.Clock, reportHour int, tracker *status.Tracker, conn mqtt.ConnectionStatus, log *zap.Logger) error {
	var hb logic.HeartbeatState

	for {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}

		now := clock.Now()
		var fire bool
		fire, hb = logic.ShouldReport(now, reportHour, hb)
		if fire {
			if tracker != nil {
				tracker.SetHeartbeat(now)
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
			}
			reporter.Report(ctx, logic.Event{Timestamp: now, Type: logic.EventHeartbeat})
		}

		tr, err := sup.Step(ctx)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return context.Cause(ctx)
			}
			return err
		}
		if tr.From != tr.To {
			log.Debug("transition",
				zap.String("from", string(tr.From)),
				zap.String("to", string(tr.To)),
				zap.String("signal", string(tr.Signal)))
		}

		refreshMQTT(tracker, conn)
	}
}

func refreshMQTT(tracker *status.Tracker, conn mqtt.ConnectionStatus) {
	if tracker == nil || conn == nil {
		return
	}
	tracker.SetMQTTConnected(conn.IsConnected())
	tracker.SetMQTTBuffered(conn.Buffered())
}

// shutdown releases the hardware first, then reports why the process ends.
func shutdown(pins gpio.Relay, reporter control.Reporter, tracker *status.Tracker, conn mqtt.ConnectionStatus, srv *web.Server, reason lifecycle.Reason, log *zap.Logger) {
	if err := pins.Close(); err != nil {
		log.Error("release gpio", zap.Error(err))
	}

	refreshMQTT(tracker, conn)
	reporter.Report(context.Background(), logic.Event{
		Timestamp: time.Now(),
		Type:      logic.EventShutdown,
		Reason:    reason.Message(),
	})

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warn("http server shutdown", zap.Error(err))
		}
	}

	log.Info("stopped",
		zap.String("kind", string(reason.Kind)),
		zap.Int("exit_code", reason.ExitCode()),
		zap.String("reason", reason.Message()))
}

func buildNotifier(cfg config.Config, log *zap.Logger) notify.Notifier {
	var ns notify.Multi
	if cfg.PushoverToken != "" {
		ns = append(ns, notify.NewPushover(cfg.PushoverToken, cfg.PushoverUser, ""))
	}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, "", cfg.NotifyTimeout)
		if err != nil {
			log.Warn("telegram disabled", zap.Error(err))
		} else {
			// An unreachable API at boot is not fatal; each alert retries.
			if err := tg.Authorize(); err != nil {
				log.Warn("telegram not reachable yet", zap.Error(err))
			} else {
				log.Info("telegram notifications enabled", zap.String("bot", tg.BotName()))
			}
			ns = append(ns, tg)
		}
	}
	if len(ns) == 0 {
		log.Warn("no notification channel configured")
		return notify.Discard{}
	}
	return ns
}

// openRecorder opens the SQLite log. A database that cannot be opened is
// logged and replaced by Discard: the record is not worth stopping supervision for.
func openRecorder(path string, log *zap.Logger) (record.Recorder, func()) {
	if path == "" {
		return record.Discard{}, func() {}
	}
	db, err := record.OpenSQLite(path)
	if err != nil {
		log.Warn("event log disabled", zap.String("path", path), zap.Error(err))
		return record.Discard{}, func() {}
	}
	return db, func() {
		if err := db.Close(); err != nil {
			log.Warn("close event log", zap.Error(err))
		}
	}
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		Hostname:      cfg.Hostname,
		WindowMs:      cfg.Window.Milliseconds(),
		PollMs:        cfg.Poll.Milliseconds(),
		MinFlowMs:     cfg.MinFlow.Milliseconds(),
		OverrunMs:     cfg.Overrun.Milliseconds(),
		MinBackwashMs: cfg.MinBackwash.Milliseconds(),
		MaxRetries:    cfg.MaxRetries,
		ReportHour:    cfg.ReportHour,
		Broker:        cfg.Broker,
		HTTPAddr:      cfg.HTTPAddr,
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
