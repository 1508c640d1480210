// Command storectl is the staff CLI: schema migrations plus the catalog and
// invoice operations, run against the same database as the API.
package main

import (
	"encoding/json"
	"fmt"
	"github.com/ariefcatur/go-realtime-store/internal/activity"
	"github.com/ariefcatur/go-realtime-store/internal/catalog"
	"github.com/ariefcatur/go-realtime-store/internal/config"
	"github.com/ariefcatur/go-realtime-store/internal/invoices"
	"github.com/ariefcatur/go-realtime-store/internal/jobs"
	kafkax "github.com/ariefcatur/go-realtime-store/internal/kafka"
	"github.com/ariefcatur/go-realtime-store/internal/logx"
	"github.com/ariefcatur/go-realtime-store/internal/postgres"
	"github.com/ariefcatur/go-realtime-store/internal/redisx"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"io"
	"os"
)

type env struct {
	cfg      *config.Config
	log      *logrus.Entry
	audit    *activity.Recorder
	products *catalog.Service
	invoices *invoices.Service
}

func main() {
	app := &cli.App{
		Name:  "storectl",
		Usage: "manage the store catalog and invoices",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "actor-id", Value: "cli", EnvVars: []string{"STORECTL_ACTOR_ID"}},
			&cli.StringFlag{Name: "actor-name", Value: "storectl", EnvVars: []string{"STORECTL_ACTOR_NAME"}},
			&cli.StringFlag{Name: "role", Value: "ADMIN", Usage: "ADMIN or HELPER"},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			productCommand(),
			invoiceCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func migrateCommand() *cli.Command {
	run := func(up bool) cli.ActionFunc {
		return func(c *cli.Context) error {
			if err := authorize(actorOf(c), admin); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return postgres.Migrate(cfg.PostgresDSN, up)
		}
	}
	return &cli.Command{
		Name: "migrate",
		Subcommands: []*cli.Command{
			{Name: "up", Action: run(true)},
			{Name: "down", Action: run(false)},
		},
	}
}

func productCommand() *cli.Command {
	return &cli.Command{
		Name: "product",
		Subcommands: []*cli.Command{
			{
				Name: "add",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.Int64Flag{Name: "price", Required: true},
					&cli.IntFlag{Name: "stock"},
					&cli.StringFlag{Name: "description"},
				},
				Action: withEnv(admin, func(c *cli.Context, e *env) error {
					id, err := e.products.CreateProduct(c.Context, actorOf(c), catalog.NewProduct{
						Name:        c.String("name"),
						Price:       c.Int64("price"),
						Stock:       c.Int("stock"),
						Description: c.String("description"),
					})
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, map[string]int64{"id": id})
				}),
			},
			{
				Name: "set-stock",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.IntFlag{Name: "stock", Required: true},
				},
				Action: withEnv(admin, func(c *cli.Context, e *env) error {
					n, err := e.products.SetStock(c.Context, actorOf(c), c.String("name"), c.Int("stock"))
					if err != nil {
						return err
					}
					if n == 0 {
						return cli.Exit("product not found", 2)
					}
					return printJSON(c.App.Writer, map[string]int64{"updated": n})
				}),
			},
			{
				Name: "list",
				Action: withEnv(anyone, func(c *cli.Context, e *env) error {
					ps, err := e.products.ListProducts(c.Context)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, ps)
				}),
			},
		},
	}
}

func invoiceCommand() *cli.Command {
	return &cli.Command{
		Name: "invoice",
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				ArgsUsage: "<invoice-code>",
				Action: withEnv(staff, func(c *cli.Context, e *env) error {
					inv, err := e.invoices.GetInvoice(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, inv)
				}),
			},
			{
				Name:  "pending",
				Flags: []cli.Flag{&cli.IntFlag{Name: "limit", Value: 15}},
				Action: withEnv(staff, func(c *cli.Context, e *env) error {
					out, err := e.invoices.ListPending(c.Context, c.Int("limit"))
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, out)
				}),
			},
			{
				Name:      "pay",
				ArgsUsage: "<invoice-code>",
				Action: withEnv(staff, func(c *cli.Context, e *env) error {
					res, err := e.invoices.ConfirmPayment(c.Context, actorOf(c), c.Args().First())
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, res)
				}),
			},
			{
				Name:      "status",
				ArgsUsage: "<invoice-code> <PROCESSING|DONE|CANCELLED>",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "notes"}},
				Action: withEnv(staff, func(c *cli.Context, e *env) error {
					code, target := c.Args().Get(0), c.Args().Get(1)
					if err := authorizeStatus(actorOf(c), target); err != nil {
						return err
					}
					changed, err := e.invoices.UpdateStatus(c.Context, actorOf(c), code, target, c.String("notes"))
					if err != nil {
						return err
					}
					if !changed {
						return cli.Exit("invoice not found", 2)
					}
					return printJSON(c.App.Writer, map[string]bool{"changed": true})
				}),
			},
			{
				Name:  "expire",
				Usage: "run one expiry sweep now",
				Action: withEnv(staff, func(c *cli.Context, e *env) error {
					sweep := &jobs.ExpirySweepJob{Invoices: e.invoices, Audit: e.audit, Log: e.log}
					codes, err := sweep.Sweep(c.Context)
					if err != nil {
						return err
					}
					return printJSON(c.App.Writer, codes)
				}),
			},
		},
	}
}

// withEnv checks the caller's role, then builds the services for one command
// with the same cache and event wiring as the worker.
func withEnv(need access, fn func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		if err := authorize(actorOf(c), need); err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logx.New("text", cfg.LogLevel, "storectl")
		db, err := postgres.Connect(c.Context, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()

		prod := kafkax.NewProducer(cfg.KafkaBrokers, 64, log)
		prod.Start()
		defer func() {
			prod.Close() // flush events sebelum exit
			prod.WaitClosed()
		}()

		audit := activity.NewRecorder(&activity.Repo{DB: db}, log)
		products := catalog.NewService(&catalog.Repo{DB: db}, audit, log)
		return fn(c, &env{
			cfg:      cfg,
			log:      log,
			audit:    audit,
			products: products,
			invoices: invoices.NewService(&invoices.Repo{DB: db}, products, audit,
				kafkax.NewEventPublisher(prod, "storectl"), log,
				invoices.Config{TTL: cfg.InvoiceTTL, Cache: redisx.NewInvoiceCache(rdb)}),
		})
	}
}

func actorOf(c *cli.Context) activity.Actor {
	return activity.Actor{
		ID:   c.String("actor-id"),
		Name: c.String("actor-name"),
		Role: activity.ParseRole(c.String("role")),
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
