package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"inventory-vision/config"
	"inventory-vision/internal/container"
	"inventory-vision/internal/infrastructure/logger"
)

// общее состояние команд, заполняется в PersistentPreRunE
type runtime struct {
	cfg       *config.Config
	log       *logrus.Logger
	container *container.Container
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:           "inventory-vision",
		Short:         "Object detection for inventory photos",
		Long:          "Upload an image, detect objects on it and get back an annotated copy with labelled bounding boxes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.container == nil {
				return nil
			}
			return rt.container.Close()
		},
	}

	root.AddCommand(
		newServeCmd(rt),
		newBotCmd(rt),
		newAnnotateCmd(rt),
	)

	return root
}

func (rt *runtime) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		NoColor: cfg.AppEnv == "production",
	})
	if err != nil {
		return err
	}

	c, err := container.Build(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	rt.cfg = cfg
	rt.log = log
	rt.container = c

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		logrus.WithError(err).Error("Command failed")

		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}
