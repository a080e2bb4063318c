// Command loaderctl is the composition root: it wires the registry,
// resource monitor, intent detector and loaders together, runs a
// startup, and serves the result over HTTP. Styled after
// simulation-service/cmd/server/main.go (godotenv + gin.Default()).
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/systemsim/component-loader/internal/catalog"
	"github.com/systemsim/component-loader/internal/config"
	"github.com/systemsim/component-loader/internal/errorisolation"
	"github.com/systemsim/component-loader/internal/intent"
	"github.com/systemsim/component-loader/internal/lazyloader"
	"github.com/systemsim/component-loader/internal/logging"
	"github.com/systemsim/component-loader/internal/orchestrator"
	"github.com/systemsim/component-loader/internal/parallelloader"
	"github.com/systemsim/component-loader/internal/profiler"
	"github.com/systemsim/component-loader/internal/registry"
	"github.com/systemsim/component-loader/internal/resourcemonitor"
)

var log = logging.New("main")

func main() {
	cfg := config.Load()

	reg := registry.New()
	if err := catalog.Register(reg, cfg); err != nil {
		log.Errorf("failed to register catalog: %v", err)
		os.Exit(1)
	}

	iso := errorisolation.New(cfg.Loader.MaxRetries)
	single := lazyloader.New(reg, iso, cfg.Loader.ComponentLoadTimeout)
	parallel := parallelloader.New(single, reg, cfg.Loader.WorkerCount)
	monitor := resourcemonitor.New(cfg.Resources.MinReserveMB, cfg.Resources.MaxCPUPercent)
	detector := intent.New(cfg.Workspace.Directory)
	orch := orchestrator.New(reg, monitor, detector, parallel)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	report, err := orch.Start(ctx)
	cancel()
	if err != nil {
		log.Errorf("startup failed: %v", err)
	}

	var profile *profiler.Profile
	if report != nil {
		order := append(append([]string(nil), report.Successful...), report.Failed...)
		profile = profiler.Build(reg.All(), order, report.TotalDurationMS)
		if path, saveErr := profiler.Save("./data/profiles", profile, time.Now().Format("20060102_150405")); saveErr != nil {
			log.Warnf("failed to persist startup profile: %v", saveErr)
		} else {
			log.Infof("startup profile saved to %s", path)
		}
	}

	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/api/v1/status", func(c *gin.Context) {
		components := reg.All()
		summary := make([]gin.H, 0, len(components))
		for _, comp := range components {
			summary = append(summary, gin.H{
				"name":     comp.Metadata.Name,
				"category": comp.Metadata.Category,
				"status":   comp.State.Status,
				"load_ms":  comp.State.LoadTimeMS,
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"report":     report,
			"components": summary,
		})
	})

	router.GET("/api/v1/profile", func(c *gin.Context) {
		if profile == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no profile available yet"})
			return
		}
		c.JSON(http.StatusOK, profile)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}

	log.Infof("listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Errorf("server stopped: %v", err)
		os.Exit(1)
	}
}
