package server

import (
	"context"
	"net/http"
	"time"

	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/iraunit/ticktime-sub001/config"
	"github.com/iraunit/ticktime-sub001/internal/deal"
	"github.com/iraunit/ticktime-sub001/misc"
)

// Server hosts the deal lifecycle over HTTP. Every write happens inside a
// single bolt read-write transaction, which bolt serializes, so the
// read-validate-write of a deal is atomic.
type Server struct {
	Cfg *config.Config

	r       *gin.Engine
	db      *bolt.DB
	gw      *deal.Gateway
	log     logrus.FieldLogger
	metrics *metrics

	http *http.Server
}

func New(cfg *config.Config, r *gin.Engine) (*Server, error) {
	log := cfg.Logger()

	db, err := misc.OpenDB(cfg.DBPath, cfg.DBName)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		Cfg:     cfg,
		r:       r,
		db:      db,
		gw:      deal.NewGateway(log.WithField("component", "gateway")),
		log:     log.WithField("component", "server"),
		metrics: newMetrics(),
	}

	if err = srv.initializeDBs(); err != nil {
		db.Close()
		return nil, err
	}

	srv.initializeRoutes(r)

	return srv, nil
}

func (srv *Server) initializeDBs() error {
	if err := misc.InitBuckets(srv.db, srv.Cfg.Buckets()...); err != nil {
		return err
	}

	return srv.db.Update(func(tx *bolt.Tx) error {
		return misc.InitIndex(tx, srv.Cfg.Bucket.Index, srv.Cfg.Bucket.Deal, 1)
	})
}

func (srv *Server) initializeRoutes(r *gin.Engine) {
	r.Use(srv.metrics.instrument())
	r.GET("/metrics", srv.metrics.handler())

	api := r.Group("/api/v1")

	api.GET("/stages/:dealType", getStages(srv))

	api.POST("/deal", createDeal(srv))
	api.GET("/deal/:id", getDeal(srv))
	api.GET("/deal/:id/next", getNext(srv))
	api.POST("/deal/:id/transition", transitionDeal(srv))
	api.POST("/deal/:id/content", submitContent(srv))
	api.POST("/deal/:id/content/:subId/review", reviewContent(srv))
	api.PUT("/deal/:id/notes", putNotes(srv))
	api.PUT("/deal/:id/address", putAddress(srv))

	api.GET("/campaign/:id/deals", getDealsForCampaign(srv))

	api.GET("/dumpDatabases", dumpDatabases(srv))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, misc.StatusErr("unknown endpoint "+c.Request.URL.Path))
	})
}

// Run listens on the configured address until Close is called.
func (srv *Server) Run() error {
	srv.http = &http.Server{
		Addr:         srv.Cfg.Addr(),
		Handler:      srv.r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	srv.log.WithField("addr", srv.http.Addr).Info("listening")
	if err := srv.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (srv *Server) Close() error {
	srv.log.Info("closing")
	if srv.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.http.Shutdown(ctx); err != nil {
			srv.log.WithError(err).Warn("http shutdown")
		}
	}
	return srv.db.Close()
}
