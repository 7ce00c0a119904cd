package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/torb/backtest"
	"github.com/rustyeddy/torb/config"
	"github.com/rustyeddy/torb/journal"
)

// Server is the HTTP API plus the live event stream.
type Server struct {
	Config  *config.Config
	Engine  *backtest.Engine
	Monitor *Monitor
	Hub     *Hub
	Journal journal.Journal
	Log     *zap.Logger

	router *gin.Engine
}

// New wires a server from cfg. j may be nil to disable journaling.
func New(cfg *config.Config, j journal.Journal, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	eng := cfg.Engine()
	eng.Log = log.Named("backtest")

	s := &Server{
		Config:  cfg,
		Engine:  eng,
		Hub:     NewHub(log.Named("ws")),
		Journal: j,
		Log:     log,
	}
	s.Monitor = NewMonitor(eng, j, s.publish, log.Named("monitor"))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())
	s.RegisterRoutes(r)
	s.router = r
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) publish(m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		s.Log.Error("encode event", zap.Error(err))
		return
	}
	s.Hub.Broadcast(b)
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Log.Debug("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

// Run serves until ctx is cancelled. When src is non-nil and polling is
// configured, live candles for the configured symbols are pulled from it.
func (s *Server) Run(ctx context.Context, src CandleSource) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{Addr: s.Config.Server.Addr, Handler: s.router}

	g.Go(func() error {
		s.Hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		s.Log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if src != nil && s.Config.Server.PollSeconds > 0 {
		p := &Poller{
			Source:      src,
			Monitor:     s.Monitor,
			Symbols:     s.Config.Symbols,
			Granularity: s.Config.Server.Granularity,
			Interval:    time.Duration(s.Config.Server.PollSeconds) * time.Second,
			Log:         s.Log.Named("poller"),
		}
		g.Go(func() error { return p.Run(ctx) })
	}

	return g.Wait()
}
