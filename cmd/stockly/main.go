package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app := &cli.App{
		Name:  appID,
		Usage: "household food inventory",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			consumeCommand(),
			discardCommand(),
			purchaseCommand(),
			shoppingListCommand(),
			dashboardCommand(),
			expiringCommand(),
			setAlertDaysCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.WithError(err).Fatal("stockly failed")
	}
}

// withInventory loads the configuration and builds the inventory before
// running action. The store is closed when action returns.
func withInventory(action func(c *cli.Context, cfg *config, cont *container) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := parseEnv()
		if err != nil {
			return err
		}
		if err := setupLogger(cfg); err != nil {
			return err
		}

		cont, err := newContainer(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := cont.Close(); err != nil {
				log.WithError(err).Error("failed to close store")
			}
		}()

		return action(c, cfg, cont)
	}
}
