package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chartsbuilder/widgets/dashboard"
	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/yaoapp/kun/log"
)

func serveCmd(cfg *Config) *cobra.Command {
	addr, every := "", ""
	cmd := &cobra.Command{
		Use:   "serve <file>",
		Short: "serve the dashboard and refresh it on a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			setting := *cfg
			if cmd.Flags().Changed("addr") {
				setting.Addr = addr
			}
			if cmd.Flags().Changed("every") {
				setting.Every = every
			}
			return runServe(cmd.Context(), setting, args[0])
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:5099)")
	cmd.Flags().StringVar(&every, "every", "", `refresh schedule, cron syntax or @every (default from config, "@every 30s")`)
	return cmd
}

// runServe data sources of a served board stay inside its directory
func runServe(ctx context.Context, cfg Config, file string) error {
	renderer, err := newRenderer(cfg, file, false)
	if err != nil {
		return err
	}
	board, err := loadBoard(renderer, file)
	if err != nil {
		return err
	}
	board.Live = true

	hub := dashboard.NewHub()
	go hub.Run(ctx)
	board.OnUpdate(hub.PublishCell)

	if err := board.RenderAll(ctx); err != nil {
		log.Warn("[Dashboard] %s", err.Error())
	}

	sch, err := dashboard.NewScheduler(board, cfg.Every, cfg.Timeout)
	if err != nil {
		return err
	}
	sch.OnTick(func(started, skipped int) {
		log.Trace("[Dashboard] refresh: %d started, %d skipped", started, skipped)
	})
	sch.Start()
	defer sch.Stop()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{Addr: cfg.Addr, Handler: router(board, sch, hub)}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	color.Green("serving %s on http://%s (refresh %s)", board.Title, cfg.Addr, cfg.Every)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func router(board *dashboard.Board, sch *dashboard.Scheduler, hub *dashboard.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(board.Page()))
	})

	r.GET("/ws", func(c *gin.Context) {
		if err := hub.Serve(c.Writer, c.Request); err != nil {
			log.Error("[Hub] %s", err.Error())
		}
	})

	r.GET("/widgets", func(c *gin.Context) {
		items := []gin.H{}
		for _, cell := range board.Cells() {
			item := gin.H{"name": cell.Config.Name, "guid": cell.Config.GUID, "type": cell.Config.Type, "state": "idle"}
			if task := cell.Task(); task != nil {
				item["state"] = task.State().String()
				item["version"] = task.CompletedVersion()
				if err := task.Err(); err != nil {
					item["error"] = err.Error()
				}
			}
			items = append(items, item)
		}
		c.JSON(http.StatusOK, items)
	})

	r.GET("/widgets/:name", func(c *gin.Context) {
		cell, has := board.Cell(c.Param("name"))
		if !has {
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": c.Param("name") + " does not exist"})
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(cell.Container.HTML()))
	})

	r.POST("/widgets/:name/relayout", func(c *gin.Context) {
		value := c.DefaultQuery("value", "size")
		cell, err := board.Relayout(c.Param("name"), value)
		if errors.Is(err, dashboard.ErrCellNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": cell.Config.Name, "value": value, "version": cell.Container.Version()})
	})

	r.POST("/refresh", func(c *gin.Context) {
		// the renders outlive the request, the scheduler timeout bounds them
		started, skipped := sch.Tick(context.WithoutCancel(c.Request.Context()))
		c.JSON(http.StatusOK, gin.H{"started": started, "skipped": skipped})
	})
	return r
}
