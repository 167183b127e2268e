package cmdlets

import (
	"context"
	nhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rtkfield/basestation/pkg/config"
	"github.com/rtkfield/basestation/pkg/coordinator"
	"github.com/rtkfield/basestation/pkg/eventstream"
	"github.com/rtkfield/basestation/pkg/gnss"
	"github.com/rtkfield/basestation/pkg/mdns"
	"github.com/rtkfield/basestation/pkg/metrics"
	"github.com/rtkfield/basestation/pkg/mqttpusher"
	"github.com/rtkfield/basestation/pkg/mqttserver"
	"github.com/rtkfield/basestation/pkg/telemetry"
	"github.com/rtkfield/basestation/pkg/watchdog"
	"github.com/rtkfield/basestation/pkg/web"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard",
		Long:  serveCmdLongDocs,
		Run:   serveCmdRun,
	}

	serveCmdLongDocs = `The dashboard is a long-lived server process that watches the correction service, relays its telemetry, and lets an operator switch the station between fixed and survey-in modes.  The serve command starts that process and leaves it running.`
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

// receiverSource builds the telemetry source the config selects and
// starts its stream.  The returned stop function tears it down.
func receiverSource(cfg *config.Config) (gnss.Source, func()) {
	switch cfg.Receiver.Kind {
	case config.ReceiverNMEATCP:
		src := gnss.NewNMEASource(
			gnss.WithNMEALogger(appLogger),
			gnss.WithNMEADialer(gnss.TCPDialer(cfg.Receiver.Address, time.Second*5)),
		)
		src.Connect()
		return src, src.Stop
	case config.ReceiverNMEASerial:
		src := gnss.NewNMEASource(
			gnss.WithNMEALogger(appLogger),
			gnss.WithNMEADialer(gnss.SerialDialer(cfg.Receiver.SerialPort, cfg.Receiver.BaudRate)),
		)
		src.Connect()
		return src, src.Stop
	default:
		mon := gnss.NewMonitor(
			gnss.WithMonitorLogger(appLogger),
			gnss.WithMonitorAddress(cfg.Receiver.Address),
		)
		mon.Connect()
		return mon, mon.Stop
	}
}

func serveCmdRun(c *cobra.Command, args []string) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	initLogger("basestation")

	cfg := loadConfig()

	cfgStore := stationStore(cfg)
	locStore := locationStore(cfg)
	sup := serviceSupervisor(cfg)

	es := eventstream.New(appLogger)
	appLogger.Debug("EventStream Init")

	src, stopSrc := receiverSource(cfg)
	defer stopSrc()
	appLogger.Debug("Receiver Init", "kind", cfg.Receiver.Kind)

	m := metrics.New(metrics.WithLogger(appLogger))

	dog := watchdog.New(
		watchdog.WithLogger(appLogger),
		watchdog.WithName("telemetry"),
		watchdog.WithFoodDuration(time.Duration(cfg.Telemetry.IntervalSeconds)*time.Second*30),
		watchdog.WithHandFunction(func() {
			es.PublishLogLine("telemetry feed has gone quiet")
		}),
	)
	defer dog.Stop()

	tlm := telemetry.New(
		telemetry.WithLogger(appLogger),
		telemetry.WithSource(src),
		telemetry.WithInterval(time.Duration(cfg.Telemetry.IntervalSeconds)*time.Second),
		telemetry.WithFailureLimit(cfg.Telemetry.FailureLimit),
		telemetry.WithSink(es),
		telemetry.WithSink(m),
		telemetry.WithSink(telemetry.SinkFunc(func(s telemetry.Snapshot) {
			if !s.Stale {
				dog.Feed()
			}
		})),
	)
	appLogger.Debug("Telemetry Init")

	coord, err := coordinator.New(
		coordinator.WithLogger(appLogger),
		coordinator.WithConfigStore(cfgStore),
		coordinator.WithLocationStore(locStore),
		coordinator.WithSupervisor(sup),
		coordinator.WithPositionSource(tlm),
		coordinator.WithEventStreamer(es),
	)
	if err != nil {
		appLogger.Error("Error during coordinator initialization", "error", err)
		os.Exit(1)
	}
	if err := coord.Reload(); err != nil {
		appLogger.Warn("Could not read station config, has the service been set up?", "error", err)
	}
	m.UpdateModeState(coord.State())
	appLogger.Debug("Coordinator Init")

	w, err := web.NewServer(
		web.WithLogger(appLogger),
		web.WithCoordinator(coord),
		web.WithLocationStore(locStore),
		web.WithTelemetrySource(tlm),
		web.WithSupervisor(sup),
		web.WithEventStreamHandler(es.Handler),
		web.WithPrometheusRegistry(m.Registry()),
	)
	if err != nil {
		appLogger.Error("Error during webserver initialization", "error", err)
		os.Exit(1)
	}
	appLogger.Debug("HTTP Init")

	tlm.Run()
	defer tlm.Stop()

	var broker *mqttserver.Server
	if cfg.MQTT.Enabled && cfg.MQTT.EmbeddedBroker {
		broker, err = mqttserver.NewServer(mqttserver.WithLogger(appLogger))
		if err != nil {
			appLogger.Error("Error during broker initialization", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := broker.Serve(cfg.MQTT.BrokerBind); err != nil {
				appLogger.Error("Error serving mqtt", "error", err)
			}
		}()
		appLogger.Debug("Broker Init")
	}

	var pusher *mqttpusher.Pusher
	if cfg.MQTT.Enabled {
		interval := time.Duration(cfg.MQTT.PushIntervalSeconds) * time.Second
		if interval <= 0 {
			interval = time.Second * 5
		}
		pusher, err = mqttpusher.New(
			mqttpusher.WithLogger(appLogger),
			mqttpusher.WithMQTTServer(cfg.MQTT.Broker),
			mqttpusher.WithTelemetrySource(tlm),
			mqttpusher.WithStateSource(coord),
			mqttpusher.WithPushInterval(interval),
		)
		if err != nil {
			appLogger.Error("Error during pusher initialization", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := pusher.Connect(); err == nil {
				pusher.StartStationPusher()
			}
		}()
		appLogger.Debug("Pusher Init")
	}

	if cfg.AnnounceMDNS {
		ms, err := mdns.NewServer(cfg.Bind)
		if err != nil {
			appLogger.Warn("Could not announce over mDNS", "error", err)
		} else {
			defer ms.Shutdown()
			appLogger.Debug("mDNS Init")
		}
	}

	go func() {
		if err := w.Serve(cfg.Bind); err != nil && err != nhttp.ErrServerClosed {
			appLogger.Error("Error initializing", "error", err)
			quit <- syscall.SIGINT
		}
	}()
	appLogger.Info("Startup Complete!")

	<-quit
	appLogger.Info("Shutting down...")
	if pusher != nil {
		pusher.Stop()
	}
	if broker != nil {
		broker.Shutdown()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.Shutdown(ctx); err != nil {
		appLogger.Error("Error during shutdown", "error", err)
		os.Exit(2)
	}
	appLogger.Info("Goodbye!")
}
