package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rustyeddy/torb/backtest"
	"github.com/rustyeddy/torb/indicators"
	"github.com/rustyeddy/torb/journal"
	"github.com/rustyeddy/torb/market"
	"github.com/rustyeddy/torb/torb"
)

func (s *Server) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/instruments", s.handleInstruments)
	api.GET("/settings", s.handleSettings)
	api.POST("/range", s.handleRange)
	api.POST("/backtest", s.handleBacktest)
	api.POST("/candles/:symbol", s.handlePushCandle)
	api.GET("/signals", s.handleSignals)

	r.GET("/ws", func(c *gin.Context) {
		s.Hub.ServeWs(c.Writer, c.Request)
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) handleInstruments(c *gin.Context) {
	out := []market.InstrumentConfig{}
	for _, sym := range market.Symbols() {
		inst, _ := market.Lookup(sym)
		inst.Session = s.Engine.SessionFor(sym).SessionTimes()
		out = append(out, inst)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleSettings(c *gin.Context) {
	sessions := map[string]torb.SessionSettings{}
	for _, sym := range market.Symbols() {
		sessions[sym] = s.Engine.SessionFor(sym)
	}
	c.JSON(http.StatusOK, gin.H{
		"account":     s.Engine.Account,
		"session":     s.Engine.Settings,
		"backtest":    s.Engine.Options,
		"instruments": sessions,
	})
}

type rangeRequest struct {
	Symbol  string          `json:"symbol"`
	Date    string          `json:"date"` // YYYY-MM-DD in the session timezone
	Candles []market.Candle `json:"candles"`
}

type rangeResponse struct {
	torb.RangeCheck
	Symbol     string    `json:"symbol"`
	Session    string    `json:"session"`
	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`
	TradingEnd time.Time `json:"trading_end"`
	// RSI of the closes before RangeEnd, when there are enough of them.
	RSI *float64 `json:"rsi,omitempty"`
}

func (s *Server) handleRange(c *gin.Context) {
	var req rangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	inst, err := market.Lookup(req.Symbol)
	if err != nil {
		badRequest(c, err)
		return
	}
	settings := s.Engine.SessionFor(inst.Symbol)
	loc, err := settings.Location()
	if err != nil {
		badRequest(c, err)
		return
	}
	day, err := time.ParseInLocation("2006-01-02", req.Date, loc)
	if err != nil {
		badRequest(c, err)
		return
	}

	w := settings.Window(day)
	chk := torb.InspectRange(req.Candles, day, settings, inst.PipSize())
	resp := rangeResponse{
		RangeCheck: chk,
		Symbol:     inst.Symbol,
		Session:    w.Date,
		RangeStart: w.RangeStart,
		RangeEnd:   w.RangeEnd,
		TradingEnd: w.TradingEnd,
	}
	cs, _ := market.Normalize(req.Candles)
	if v, err := indicators.RSIFunc(market.Between(cs, time.Time{}, w.RangeEnd), s.Engine.Options.RSIPeriod); err == nil {
		resp.RSI = &v
	}
	c.JSON(http.StatusOK, resp)
}

type backtestRequest struct {
	Series  map[string][]market.Candle `json:"series"`
	Options *backtest.Options          `json:"options,omitempty"`
	Dataset string                     `json:"dataset,omitempty"`
	Record  bool                       `json:"record,omitempty"`
}

func (s *Server) handleBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.Series) == 0 {
		badRequest(c, errors.New("series is empty"))
		return
	}

	eng := *s.Engine
	if req.Options != nil {
		eng.Options = *req.Options
	}
	res, err := backtest.RunAll(c.Request.Context(), &eng, req.Series)
	switch {
	case errors.Is(err, market.ErrUnknownInstrument), errors.Is(err, market.ErrEmptySeries):
		badRequest(c, err)
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if req.Record && s.Journal != nil {
		run := journal.NewCombinedRun(res, eng.Account, eng.Options, req.Dataset)
		if err := journal.RecordResult(s.Journal, run, res.Trades); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handlePushCandle(c *gin.Context) {
	var candle market.Candle
	if err := c.ShouldBindJSON(&candle); err != nil {
		badRequest(c, err)
		return
	}
	msgs, err := s.Monitor.Push(c.Param("symbol"), candle)
	switch {
	case errors.Is(err, market.ErrUnknownInstrument):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, ErrStaleCandle):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": msgs})
}

func (s *Server) handleSignals(c *gin.Context) {
	c.JSON(http.StatusOK, s.Monitor.Active())
}
