package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/VladKagaykin/avocodec/codec"
	"github.com/VladKagaykin/avocodec/common"
	"github.com/VladKagaykin/avocodec/internal/server"
)

var (
	serverConfig common.ServerConfig
	logger       *zap.Logger
	sugar        *zap.SugaredLogger
)

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

	configFile := flag.String("c", "config.server.toml", "Config file path")
	demo := flag.Bool("demo", false, "Feed a synthetic test pattern instead of an external source")
	demoFPS := flag.Int("demo-fps", 30, "Synthetic source frame rate")
	flag.Parse()

	if _, err := toml.DecodeFile(*configFile, &serverConfig); err != nil {
		sugar.Fatalf("Error loading config file %s: %v", *configFile, err)
	}

	if serverConfig.ListenAddr == "" {
		sugar.Fatal("Missing required configuration value listen_addr in config.server.toml")
	}

	srv, err := server.New(serverConfig, logger)
	if err != nil {
		sugar.Fatalf("Failed to initialize server: %v", err)
	}

	if err := srv.Start(); err != nil {
		sugar.Fatalf("Failed to start server: %v", err)
	}

	if serverConfig.APIServer.ListenAddr != "" {
		api := server.NewAPIServer(srv)
		go func() {
			sugar.Infow("Starting API server", "listen_addr", serverConfig.APIServer.ListenAddr)
			if err := api.Start(); err != nil {
				sugar.Errorf("API server failed: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *demo {
		go runDemoSource(ctx, srv, *demoFPS)
	}

	sugar.Infow("Server running", "listen_addr", serverConfig.ListenAddr)
	<-ctx.Done()

	sugar.Info("Shutting down...")
	if err := srv.Close(); err != nil {
		sugar.Errorf("Shutdown error: %v", err)
	}
	os.Exit(0)
}

// runDemoSource submits a moving gradient so the pipeline can be exercised
// without a camera.
func runDemoSource(ctx context.Context, srv *server.Server, fps int) {
	const width, height = 320, 240

	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	frame := codec.BlackFrame(width, height)
	phase := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for y := 0; y < height; y++ {
				for x := 0; x < width; x++ {
					idx := (y*width + x) * 3
					frame[idx] = byte((x + phase) * 255 / width)
					frame[idx+1] = byte(y * 255 / height)
					frame[idx+2] = byte(((width - x) + phase) * 200 / width)
				}
			}
			phase++
			srv.Submit(frame, width, height)
		}
	}
}
