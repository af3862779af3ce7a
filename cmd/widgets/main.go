package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chartsbuilder/widgets"
	"github.com/chartsbuilder/widgets/dashboard"
	"github.com/chartsbuilder/widgets/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/yaoapp/kun/log"
)

const environment = `
Environment:
  WIDGETS_CONFIG       yaml file of defaults (addr, every, timeout, base, cache)
  WIDGETS_REDIS_ADDR   cache payloads in redis
  WIDGETS_DNS          comma separated dns servers for data sources
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(loadConfig).ExecuteContext(ctx); err != nil {
		color.Red("%s", err.Error())
		os.Exit(1)
	}
}

// newRootCmd the widgets command, load reads the setting before any sub command runs
func newRootCmd(load func() (Config, error)) *cobra.Command {
	cfg := &Config{}
	root := &cobra.Command{
		Use:           "widgets",
		Short:         "render a dashboard file of widgets into html",
		Long:          "render a dashboard file of widgets into html\n" + environment,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := load()
			if err != nil {
				return err
			}
			*cfg = loaded
			return nil
		},
	}
	root.AddCommand(renderCmd(cfg), watchCmd(cfg), serveCmd(cfg))
	return root
}

func renderCmd(cfg *Config) *cobra.Command {
	out := ""
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "render the dashboard once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), *cfg, args[0], out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the page to the file instead of stdout")
	return cmd
}

func watchCmd(cfg *Config) *cobra.Command {
	out := ""
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "render the dashboard every time the file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), *cfg, args[0], out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the page to the file instead of stdout")
	return cmd
}

// newRenderer create the renderer of the dashboard file. Relative data sources resolve
// against the file directory; local reads anywhere else need local
func newRenderer(cfg Config, file string, local bool) (*widgets.Renderer, error) {
	base := cfg.Base
	if base == "" {
		base = filepath.Dir(file)
	}
	options := []widgets.Option{widgets.WithBase(base)}
	if local {
		options = append(options, widgets.WithLocalFiles())
	}
	if cfg.Timeout > 0 {
		options = append(options, widgets.WithTimeout(cfg.Timeout))
	}
	if cfg.Cache.TTL > 0 || cfg.Cache.Type != "" {
		kv, err := store.New(store.Option{
			Type: cfg.Cache.Type,
			Size: cfg.Cache.Size,
			Addr: cfg.Cache.Addr,
			Path: cfg.Cache.Path,
		})
		if err != nil {
			return nil, err
		}
		options = append(options, widgets.WithStore(kv), widgets.WithCacheTTL(cfg.Cache.TTL))
	}
	return widgets.New(options...)
}

func loadBoard(renderer *widgets.Renderer, file string) (*dashboard.Board, error) {
	configs, err := renderer.Load(file)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return dashboard.New(title, renderer, configs), nil
}

// renderOnce render the board, report every widget, write the page to out or stdout
func renderOnce(ctx context.Context, board *dashboard.Board, out string) error {
	start := time.Now()
	err := board.RenderAll(ctx)
	for _, cell := range board.Cells() {
		task := cell.Task()
		if task == nil {
			fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("✗"), cell.Config.Name)
			continue
		}
		fmt.Fprintln(os.Stderr, task.String())
	}
	fmt.Fprintf(os.Stderr, "%s %d widgets in %s\n", color.CyanString("▪"), len(board.Cells()), time.Since(start).Round(time.Millisecond))

	page := board.Page()
	if out == "" {
		fmt.Print(page)
	} else if errWrite := os.WriteFile(out, []byte(page), 0644); errWrite != nil {
		return errWrite
	} else {
		color.Green("%s written", out)
	}
	if err != nil {
		log.Warn("[Dashboard] %s", err.Error())
	}
	return nil
}

func runRender(ctx context.Context, cfg Config, file string, out string) error {
	renderer, err := newRenderer(cfg, file, true)
	if err != nil {
		return err
	}
	board, err := loadBoard(renderer, file)
	if err != nil {
		return err
	}
	return renderOnce(ctx, board, out)
}

func runWatch(ctx context.Context, cfg Config, file string, out string) error {
	renderer, err := newRenderer(cfg, file, true)
	if err != nil {
		return err
	}

	render := func() {
		board, err := loadBoard(renderer, file)
		if err != nil {
			color.Red("%s", err.Error())
			return
		}
		if err := renderOnce(ctx, board, out); err != nil {
			color.Red("%s", err.Error())
		}
	}

	render()
	return dashboard.Watch(ctx, file, func(event string) { render() })
}
