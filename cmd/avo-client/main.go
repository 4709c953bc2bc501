package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/VladKagaykin/avocodec/common"
	"github.com/VladKagaykin/avocodec/container"
	"github.com/VladKagaykin/avocodec/internal/client"
	"github.com/VladKagaykin/avocodec/playback"
)

var (
	clientConfig common.ClientConfig
	logger       *zap.Logger
	sugar        *zap.SugaredLogger

	// Metrics
	framesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "avo_client_frames_received_total",
		Help: "Total frames published to the consumer",
	})
	bytesReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "avo_client_frame_bytes_total",
		Help: "Total reconstructed frame bytes delivered",
	})
	connectionStatus = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "avo_client_connection_status",
		Help: "Current connection status (1 = connected, 0 = disconnected)",
	})
)

func init() {
	prometheus.MustRegister(framesReceived)
	prometheus.MustRegister(bytesReceived)
	prometheus.MustRegister(connectionStatus)
}

func initLogger() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	var err error
	logger, err = config.Build()
	if err != nil {
		panic(err)
	}
	sugar = logger.Sugar()
}

func main() {
	initLogger()
	defer logger.Sync()

	configFile := flag.String("c", "config.client.toml", "Config file path")
	playFile := flag.String("play", "", "Play back an .avo archive instead of streaming")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *playFile != "" {
		if err := playArchive(ctx, *playFile); err != nil {
			sugar.Fatalf("Playback failed: %v", err)
		}
		return
	}

	if _, err := toml.DecodeFile(*configFile, &clientConfig); err != nil {
		sugar.Fatalf("Error loading config file %s: %v", *configFile, err)
	}

	if clientConfig.ServerAddr == "" {
		sugar.Fatal("Missing required configuration value server_addr in config.client.toml")
	}

	if clientConfig.Metrics.Enabled {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			sugar.Infow("Starting metrics server", "listen_addr", clientConfig.Metrics.ListenAddr)
			if err := http.ListenAndServe(clientConfig.Metrics.ListenAddr, nil); err != nil {
				sugar.Errorf("Failed to start metrics server: %v", err)
			}
		}()
	}

	host, port, err := common.ParseAddress(clientConfig.ServerAddr)
	if err != nil {
		sugar.Fatalf("Invalid server_addr: %v", err)
	}

	c := client.New(clientConfig, logger)
	if err := c.Connect(host, port); err != nil {
		sugar.Fatalf("Failed to connect to %s: %v", clientConfig.ServerAddr, err)
	}
	connectionStatus.Set(1)

	err = c.StartReceiver(func(frame []byte, width, height uint32, isFullFrame bool) {
		framesReceived.Inc()
		bytesReceived.Add(float64(len(frame)))
	})
	if err != nil {
		sugar.Fatalf("Failed to start receiver: %v", err)
	}

	go reportStats(ctx, c)

	sugar.Infow("Receiving", "server_addr", clientConfig.ServerAddr)
	<-ctx.Done()

	sugar.Info("Disconnecting...")
	c.Disconnect()
	connectionStatus.Set(0)
	os.Exit(0)
}

// reportStats периодически пишет счетчики приёма в лог.
func reportStats(ctx context.Context, c *client.Client) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sugar.Infow("receiver stats", "stats", c.Stats())
		}
	}
}

// playArchive воспроизводит архив с исходной частотой кадров.
func playArchive(ctx context.Context, path string) error {
	archive, err := container.ReadArchive(path)
	if err != nil {
		return err
	}

	sugar.Infow("Playing archive",
		"path", path,
		"width", archive.Header.Width,
		"height", archive.Header.Height,
		"frames", archive.Header.TotalFrames,
	)

	frames := make([]playback.Frame, len(archive.Frames))
	for i, frame := range archive.Frames {
		frames[i] = playback.Frame{Data: frame.Data, DelayMs: frame.DelayMs}
	}

	scheduler := playback.NewScheduler(archive.Header.Width, archive.Header.Height)
	return scheduler.Play(ctx, frames, func(data []byte, width, height uint32) {
		framesReceived.Inc()
		bytesReceived.Add(float64(len(data)))
	})
}
