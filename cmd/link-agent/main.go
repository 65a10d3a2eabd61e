// Command link-agent loads connector plugins and drives them the way a
// production host would: connect, monitor, index and pull on demand.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"simlink.dev/connector/internal/agent"
	"simlink.dev/connector/internal/api"
	"simlink.dev/connector/internal/catalog"
	"simlink.dev/connector/internal/config"
	"simlink.dev/connector/internal/logger"
	"simlink.dev/connector/internal/plugin"
	"simlink.dev/connector/pkg/link"
)

var configPath string

func printVersionInfo() {
	fmt.Printf("%s %s\n", config.DEFAULT_AGENT_NAME, config.Version)
	fmt.Printf("Git commit: %s\n", config.Commit)
	fmt.Printf("Compilation time: %s\n", config.BuildDate)
}

// loadConfig panics when the given file cannot be read or parsed.
func loadConfig() config.AgentConf {
	conf := config.Default()
	if configPath != "" {
		conf = config.MustParseAgentConfig(configPath)
	}
	logger.SetLogLevel(conf.GetLogLevel())
	return conf
}

// withAgent builds an agent with every plugin loaded and tears it down
// after fn returns.
func withAgent(ctx context.Context, fn func(ctx context.Context, conf config.AgentConf, a *agent.Agent) error) error {
	conf := loadConfig()

	store, err := catalog.New(ctx, conf.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	a, err := agent.New(ctx, conf, store)
	if err != nil {
		return err
	}

	registry := plugin.GetRegistry()
	defer registry.CleanupAll()
	if err := a.LoadPlugins(ctx, registry); err != nil {
		return err
	}
	for _, p := range registry.ListPlugins() {
		logger.Info("Loaded connector plugin", slog.String("name", p.Name), slog.String("path", p.Path))
	}

	return fn(ctx, conf, a)
}

func destroyHosts(a *agent.Agent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, h := range a.Hosts() {
		if err := h.Destroy(ctx); err != nil {
			logger.Error("Failed to destroy connector", slog.String("plugin", h.Plugin), slog.Any("error", err))
		}
	}
}

// connected looks up a connection and connects it.
func connected(ctx context.Context, a *agent.Agent, id string) (*agent.Connection, error) {
	c, err := a.Connection(id)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	if c.State() != link.Connected {
		return nil, fmt.Errorf("%w: %s is %s", link.ErrNotConnected, id, c.State())
	}
	return c, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return withAgent(ctx, func(ctx context.Context, conf config.AgentConf, a *agent.Agent) error {
				config.AgentInfo.Set(1)
				logger.Info("Starting agent",
					slog.String("name", conf.Name),
					slog.Int("connections", len(a.Connections())))

				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error { return api.Serve(gctx, conf.Http.Addr(), a) })
				g.Go(func() error { return a.Run(gctx) })
				err := g.Wait()
				logger.Info("Exiting...")
				return err
			})
		},
	}
}

func indexCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "index <connection-id>",
		Short: "Connect one connection and index it into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAgent(cmd.Context(), func(ctx context.Context, _ config.AgentConf, a *agent.Agent) error {
				defer destroyHosts(a)
				if _, err := connected(ctx, a, args[0]); err != nil {
					return err
				}
				res, err := a.Index(ctx, args[0], force)
				if err != nil {
					return err
				}
				if res.Skipped {
					fmt.Printf("Inventory unchanged (%d items, checksum %d)\n", res.Inventory.Count, res.Inventory.Checksum)
					return nil
				}
				fmt.Printf("Indexed %d items (checksum %d)\n", res.Items, res.Inventory.Checksum)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Run a full pass even when the inventory is unchanged")
	return cmd
}

type pullFlags struct {
	start, end string
	limit      int
}

func (p *pullFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.start, "start", "", "Start of the range, RFC3339 or nanoseconds (default end - 1h)")
	cmd.Flags().StringVar(&p.end, "end", "", "End of the range, RFC3339 or nanoseconds (default now)")
	cmd.Flags().IntVarP(&p.limit, "limit", "n", 100, "Maximum number of results")
}

func (p *pullFlags) window(now time.Time) (start, end link.TimeInstant, err error) {
	end = link.InstantOf(now)
	if p.end != "" {
		if end, err = api.ParseInstant(p.end); err != nil {
			return 0, 0, err
		}
	}
	start = end - link.TimeInstant(api.DefaultRange)
	if p.start != "" {
		if start, err = api.ParseInstant(p.start); err != nil {
			return 0, 0, err
		}
	}
	if start > end {
		return 0, 0, link.ErrInvalidTimeRange
	}
	return start, end, nil
}

func samplesCmd() *cobra.Command {
	var pf pullFlags
	cmd := &cobra.Command{
		Use:   "samples <connection-id> <data-id>",
		Short: "Pull samples of one signal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := pf.window(time.Now())
			if err != nil {
				return err
			}
			return withAgent(cmd.Context(), func(ctx context.Context, _ config.AgentConf, a *agent.Agent) error {
				defer destroyHosts(a)
				c, err := connected(ctx, a, args[0])
				if err != nil {
					return err
				}
				res, err := c.GetSamples(ctx, link.GetSamplesParameters{
					DataID:                  args[1],
					StartTime:               start,
					EndTime:                 end,
					SampleLimit:             pf.limit,
					LastCertainKeyRequested: true,
				})
				if err != nil {
					return err
				}
				for _, s := range res.Samples {
					fmt.Printf("%s\t%v\n", s.Key, s.Value)
				}
				if res.LastCertainKey != nil {
					fmt.Printf("Last certain key: %s\n", *res.LastCertainKey)
				}
				return nil
			})
		},
	}
	pf.register(cmd)
	return cmd
}

func capsulesCmd() *cobra.Command {
	var pf pullFlags
	cmd := &cobra.Command{
		Use:   "capsules <connection-id> <data-id>",
		Short: "Pull capsules of one condition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := pf.window(time.Now())
			if err != nil {
				return err
			}
			return withAgent(cmd.Context(), func(ctx context.Context, _ config.AgentConf, a *agent.Agent) error {
				defer destroyHosts(a)
				c, err := connected(ctx, a, args[0])
				if err != nil {
					return err
				}
				res, err := c.GetCapsules(ctx, link.GetCapsulesParameters{
					DataID:       args[1],
					StartTime:    start,
					EndTime:      end,
					CapsuleLimit: pf.limit,
				})
				if err != nil {
					return err
				}
				for _, capsule := range res.Capsules {
					fmt.Printf("%s\t%s", capsule.Start, capsule.End)
					for _, p := range capsule.Properties {
						fmt.Printf("\t%s=%s%s", p.Name, p.Value, p.Unit)
					}
					fmt.Println()
				}
				return nil
			})
		},
	}
	pf.register(cmd)
	return cmd
}

func main() {
	root := &cobra.Command{
		Use:           "link-agent",
		Short:         config.DEFAULT_AGENT_NAME,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path of config file")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(cmd *cobra.Command, args []string) {
			printVersionInfo()
		},
	})
	root.AddCommand(runCmd(), indexCmd(), samplesCmd(), capsulesCmd())

	if err := root.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Error("Command failed", slog.Any("error", err))
		}
		os.Exit(1)
	}
}
