package main

import (
	"context"
	"os"
	"os/signal"
	"songfetch/cmd"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// shutdownGrace bounds how long main waits for the batch to report after a signal.
const shutdownGrace = 5 * time.Second

// main is the entry point of the application.
func main() {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	config := zap.Config{
		Level:            level,
		Development:      true,
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := make(chan int, 1)
	go func() {
		exitCode <- cmd.Execute(ctx, logger, level)
	}()

	code := 0
	select {
	case code = <-exitCode:
		logger.Debug("main context done")
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()

		select {
		case code = <-exitCode:
		case <-time.After(shutdownGrace):
			logger.Warn("batch did not stop in time", zap.Duration("timeout", shutdownGrace))
		}
		logger.Info("shutdown completed")
	}

	_ = logger.Sync()
	os.Exit(code)
}
