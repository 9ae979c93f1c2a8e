package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/adalundhe/fuse/core/config"
	"github.com/adalundhe/fuse/core/engine"
	"github.com/adalundhe/fuse/core/metrics"
	"github.com/adalundhe/fuse/core/persistence"
	"github.com/adalundhe/fuse/core/providers"
	"github.com/adalundhe/fuse/core/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve decisions, health, and metrics over HTTP",
	RunE:  runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8085", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	thresholds, err := config.Load(configPath, overridePath)
	if err != nil {
		return err
	}

	store, err := persistence.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	limiter, err := ratelimit.NewWindowed(0, 0)
	if err != nil {
		return err
	}
	defer limiter.Close()

	sink := metrics.NewCounters()
	eng, err := engine.New(engine.Config{
		Providers:  providers.Contextual(),
		Thresholds: thresholds,
		Repository: store,
		Limiter:    limiter,
		Sink:       sink,
	})
	if err != nil {
		return err
	}
	defer eng.Close()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, eng.Health())
	})

	router.GET("/metrics", func(c *gin.Context) {
		var sb strings.Builder
		sink.WritePrometheus(&sb)
		eng.Latency().WritePrometheus(&sb)
		c.String(http.StatusOK, sb.String())
	})

	router.POST("/v1/decisions", func(c *gin.Context) {
		var req decisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := providers.WithValues(c.Request.Context(), req.Signals)
		c.JSON(http.StatusOK, eng.Decide(ctx, req.Item, req.Author))
	})

	slog.Info("fuse serving", "addr", serveAddr)
	return router.Run(serveAddr)
}
