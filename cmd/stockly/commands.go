package main

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"stockly/pkg/common/dates"
	domain "stockly/pkg/inventory/domain/service"
	"stockly/pkg/inventory/infrastructure/mysql"
)

var (
	productFlag  = &cli.StringFlag{Name: "product", Aliases: []string{"p"}, Usage: "product id", Required: true}
	quantityFlag = &cli.IntFlag{Name: "quantity", Aliases: []string{"q"}, Usage: "number of units", Required: true}
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply database migrations",
		Action: func(c *cli.Context) error {
			cfg, err := parseEnv()
			if err != nil {
				return err
			}
			if err := setupLogger(cfg); err != nil {
				return err
			}
			if cfg.Store != storeMySQL {
				return errors.Errorf("migrate needs the %s store, got %s", storeMySQL, cfg.Store)
			}
			loc, err := cfg.location()
			if err != nil {
				return err
			}

			db, err := mysql.Open(cfg.DatabaseDSN, loc)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := mysql.Migrate(db); err != nil {
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}

func consumeCommand() *cli.Command {
	return &cli.Command{
		Name:  "consume",
		Usage: "take units out of stock, soonest expiry first",
		Flags: []cli.Flag{productFlag, quantityFlag},
		Action: withInventory(func(c *cli.Context, _ *config, cont *container) error {
			result, err := cont.inventory.Consume(c.Context, c.String(productFlag.Name), c.Int(quantityFlag.Name))
			if err != nil {
				return err
			}
			printConsumption(c, result)
			return nil
		}),
	}
}

func discardCommand() *cli.Command {
	return &cli.Command{
		Name:  "discard",
		Usage: "throw away expired units",
		Flags: []cli.Flag{productFlag, quantityFlag},
		Action: withInventory(func(c *cli.Context, _ *config, cont *container) error {
			result, err := cont.inventory.Discard(c.Context, c.String(productFlag.Name), c.Int(quantityFlag.Name))
			if err != nil {
				return err
			}
			printConsumption(c, result)
			return nil
		}),
	}
}

func purchaseCommand() *cli.Command {
	return &cli.Command{
		Name:  "purchase",
		Usage: "add bought units to stock",
		Flags: []cli.Flag{
			productFlag,
			quantityFlag,
			&cli.StringFlag{Name: "expiry", Aliases: []string{"e"}, Usage: "expiry date, dd/MM/yyyy or yyyy-MM-dd"},
		},
		Action: withInventory(func(c *cli.Context, _ *config, cont *container) error {
			var expiry *dates.CalendarDate
			if raw := c.String("expiry"); raw != "" {
				d, err := dates.ParseStored(raw, cont.loc)
				if err != nil {
					return err
				}
				expiry = d
			}

			product, err := cont.inventory.Purchase(c.Context, c.String(productFlag.Name), c.Int(quantityFlag.Name), expiry)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s: %d in stock, expires %s\n", product.Name, product.CurrentStock, displayDate(product.ExpiryDate))
			return nil
		}),
	}
}

func shoppingListCommand() *cli.Command {
	return &cli.Command{
		Name:  "shopping-list",
		Usage: "print what is needed to reach the ideal stock",
		Action: withInventory(func(c *cli.Context, _ *config, cont *container) error {
			entries, err := cont.inventory.ShoppingList(c.Context)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(c.App.Writer, "[%s] %s x%d\n", e.Priority, e.ProductName, e.NeededQuantity)
			}
			return nil
		}),
	}
}

func dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "print inventory counters",
		Action: withInventory(func(c *cli.Context, _ *config, cont *container) error {
			stats, err := cont.inventory.Dashboard(c.Context)
			if err != nil {
				return err
			}
			w := c.App.Writer
			fmt.Fprintf(w, "products:       %d\n", stats.TotalProducts)
			fmt.Fprintf(w, "items:          %d\n", stats.TotalItems)
			fmt.Fprintf(w, "expiring soon:  %d (within %d days)\n", stats.ExpiringSoonCount, stats.AlertWindow)
			fmt.Fprintf(w, "expired:        %d\n", stats.ExpiredCount)
			fmt.Fprintf(w, "low stock:      %d\n", stats.LowStockCount)
			return nil
		}),
	}
}

func expiringCommand() *cli.Command {
	return &cli.Command{
		Name:  "expiring",
		Usage: "list products that need attention",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-undated", Usage: "also list products without an expiry date"},
			&cli.BoolFlag{Name: "grouped", Usage: "print one section per status"},
			&cli.BoolFlag{Name: "collapse-tomorrow", Usage: "with --grouped, list tomorrow under soon"},
		},
		Action: withInventory(func(c *cli.Context, _ *config, cont *container) error {
			if !c.Bool("grouped") {
				items, err := cont.inventory.Expiring(c.Context, c.Bool("include-undated"))
				if err != nil {
					return err
				}
				printExpiring(c, items)
				return nil
			}

			groups, err := cont.inventory.ExpiringGroups(c.Context, c.Bool("include-undated"), c.Bool("collapse-tomorrow"))
			if err != nil {
				return err
			}
			for _, section := range []struct {
				title string
				items []domain.ExpiringProduct
			}{
				{"Expired", groups.Expired},
				{"Today", groups.Today},
				{"Tomorrow", groups.Tomorrow},
				{"Soon", groups.Soon},
				{"No date", groups.NoDate},
			} {
				if len(section.items) == 0 {
					continue
				}
				fmt.Fprintf(c.App.Writer, "%s:\n", section.title)
				printExpiring(c, section.items)
			}
			return nil
		}),
	}
}

func printExpiring(c *cli.Context, items []domain.ExpiringProduct) {
	for _, item := range items {
		fmt.Fprintf(c.App.Writer, "%-8s %s (%s)\n",
			item.Classification.Status, item.Product.Name, displayDate(item.Product.ExpiryDate))
	}
}

func setAlertDaysCommand() *cli.Command {
	return &cli.Command{
		Name:      "set-alert-days",
		Usage:     "set how many days ahead expiring products are flagged",
		ArgsUsage: "DAYS",
		Action: withInventory(func(c *cli.Context, _ *config, cont *container) error {
			days, err := strconv.Atoi(c.Args().First())
			if err != nil {
				return errors.Wrap(err, "DAYS must be an integer")
			}
			return cont.inventory.SetExpiryAlertDays(c.Context, days)
		}),
	}
}

func printConsumption(c *cli.Context, result *domain.ConsumptionResult) {
	for _, d := range result.Draws {
		fmt.Fprintf(c.App.Writer, "took %d from batch %s (expires %s)\n", d.Taken, d.BatchID, displayDate(d.ExpiryDate))
	}
	fmt.Fprintf(c.App.Writer, "%d left in stock\n", result.RemainingStock)
}

func displayDate(d *dates.CalendarDate) string {
	if d == nil {
		return dates.NoDateLabel
	}
	return d.String()
}
