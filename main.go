package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/iraunit/ticktime-sub001/config"
	"github.com/iraunit/ticktime-sub001/misc"
	"github.com/iraunit/ticktime-sub001/server"
)

var (
	configPath = flag.String("config", "config/config.json", "config file")
	backupPath = flag.String("backup", "", "back up the database into this dir and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.New(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.Logger()

	if *backupPath != "" {
		if err = backupDatabases(cfg); err != nil {
			log.Fatal(err)
		}
		return
	}

	if !cfg.Sandbox {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(misc.GinLogger(logger, cfg.SkipLogPrefixes...))

	// Ping test
	r.GET("/ping", func(c *gin.Context) {
		c.String(200, "pong")
	})

	srv, err := server.New(cfg, r)
	if err != nil {
		log.Fatal(err)
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		log.WithField("signal", (<-sig).String()).Info("shutting down")
		if err := srv.Close(); err != nil {
			log.WithError(err).Error("close")
		}
	}()

	// Listen and Serve
	if err = srv.Run(); err != nil {
		srv.Close()
		log.Fatalf("Failed to listen: %v", err)
	}
	<-closed
}
