// Package main runs the obstacle-avoiding rover.
package main

import (
	"context"
	"flag"

	"github.com/edaniels/golog"
	"go.viam.com/utils"

	"github.com/roamer-robotics/roamer/config"
	"github.com/roamer-robotics/roamer/rover"
)

var logger = golog.NewDevelopmentLogger("roamer")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	configPath := flags.String("config", "etc/rover.json", "path to the rover description")
	debug := flags.Bool("debug", false, "enable debug logging")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}
	if *debug {
		logger = golog.NewDebugLogger("roamer")
	}

	cfg, err := config.Read(*configPath)
	if err != nil {
		return err
	}

	r, err := rover.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		utils.UncheckedErrorFunc(func() error { return r.Close(context.Background()) })
	}()

	logger.Infow("rover ready", "board", cfg.Board.Model)
	return r.Run(ctx)
}
