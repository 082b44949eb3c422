package main

import (
	"context"
	"encoding/json"
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/puppetx/api"
	"github.com/matt-g-everett/puppetx/metrics"
	"github.com/matt-g-everett/puppetx/motion"
	"github.com/matt-g-everett/puppetx/preview"
	"github.com/matt-g-everett/puppetx/stream"
	"github.com/rs/zerolog"
)

type app struct {
	Config     stream.Config
	Log        zerolog.Logger
	Client     mqtt.Client
	Streamer   *stream.Streamer
	Scheduler  *stream.TickerScheduler
	Controller *stream.Controller
	Metrics    *metrics.Metrics
}

func newApp(config stream.Config, logger zerolog.Logger) *app {
	a := new(app)
	a.Config = config
	a.Log = logger
	a.Metrics = metrics.New()
	return a
}

func (a *app) handleOnConnect(client mqtt.Client) {
	a.Log.Info().Str("broker", a.Config.Mqtt.URL).Msg("connected")
	err := a.Streamer.Subscribe(client, a.Config.Mqtt.Topics.Commands, a.Controller)
	if err != nil {
		a.Log.Error().Err(err).Msg("could not subscribe to commands")
	}
}

func (a *app) connect() {
	options := mqtt.NewClientOptions().
		AddBroker(a.Config.Mqtt.URL).
		SetClientID(a.Config.Mqtt.ClientID).
		SetUsername(a.Config.Mqtt.Username).
		SetPassword(a.Config.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetAutoReconnect(true).
		SetOnConnectHandler(a.handleOnConnect)
	a.Client = mqtt.NewClient(options)

	a.Streamer = stream.NewStreamer(a.Config, a.Client, a.Log)
	a.Scheduler = stream.NewTickerScheduler(a.Config.Playback.HostRateHz)
	player := stream.NewPlayer(a.Scheduler, a.Log)
	a.Controller = stream.NewController(player, a.Streamer, a.Config.Playback.TransitionFrames, a.Metrics, a.Log)

	if token := a.Client.Connect(); token.Wait() && token.Error() != nil {
		a.Log.Fatal().Err(token.Error()).Msg("could not connect to broker")
	}
}

func (a *app) run(ctx context.Context) {
	go a.Scheduler.Run(ctx)

	server := api.NewApi(a.Controller, a.Metrics, a.Log, a.Config.HTTP.StaticDir)
	if err := server.Serve(ctx, a.Config.HTTP.Addr); err != nil {
		a.Log.Error().Err(err).Msg("http server failed")
	}

	a.Controller.Close()
	a.Client.Disconnect(250)
	a.Log.Info().Msg("stopped")
}

func newLogger(config stream.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if config.Log.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// renderPreview writes a contact sheet of one preset applied to the
// landmarks in landmarksPath.
func renderPreview(logger zerolog.Logger, preset, landmarksPath, outPath string) error {
	target, id, _ := strings.Cut(preset, "/")
	data, err := os.ReadFile(landmarksPath)
	if err != nil {
		return err
	}

	req := stream.Request{Target: motion.Target(target), ID: id}
	if err := json.Unmarshal(data, &req.Landmarks); err != nil {
		return err
	}
	seq, err := req.Generate()
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	logger.Info().Str("preset", preset).Int("frames", seq.Len()).Str("out", outPath).Msg("rendering preview")
	return preview.Encode(out, seq, 128, 4)
}

func main() {
	// Parse command line parameters
	configPath := flag.String("config", "config.yaml", "YAML config file.")
	previewPath := flag.String("preview", "", "Write a PNG contact sheet here and exit.")
	preset := flag.String("preset", "face/happy", "Preset to preview, as target/id.")
	landmarksPath := flag.String("landmarks", "landmarks.json", "JSON landmark array used by -preview.")
	flag.Parse()

	// Read the config
	config, err := stream.LoadConfig(*configPath)
	logger := newLogger(config)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load config")
	}

	if *previewPath != "" {
		if err := renderPreview(logger, *preset, *landmarksPath, *previewPath); err != nil {
			logger.Fatal().Err(err).Msg("preview failed")
		}
		return
	}

	mqtt.ERROR = stdlog.New(logger.With().Str("component", "mqtt").Logger(), "", 0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(config, logger)
	a.connect()
	a.run(ctx)
}
