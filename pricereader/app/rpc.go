package app

import (
	"context"
	"github.com/egaotan/solana-pricefeed/config"
	"github.com/egaotan/solana-pricefeed/store"
	"github.com/egaotan/solana-pricefeed/utils"
	"github.com/gin-gonic/gin"
	"net/http"
	"strconv"
	"time"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ReadingsResponse struct {
	Readings []*store.PriceReading `json:"readings"`
}

func (pr *PriceReader) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.LoggerWithWriter(utils.NewLog(pr.config.LogPath, config.ApiLog).Writer()), gin.Recovery())
	g := router.Group("/api")
	g.GET("/readings", pr.getReadings)
	g.GET("/readings/latest", pr.getLatestReading)
	router.GET("/metrics", gin.WrapH(pr.metrics.handler()))
	return router
}

func (pr *PriceReader) StartRPC() {
	pr.httpServer = &http.Server{
		Addr:    pr.config.Listen,
		Handler: pr.Router(),
	}
	pr.log.Printf("start rpc server on %s......", pr.config.Listen)
	go func() {
		if err := pr.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			pr.log.Printf("ListenAndServe: %s", err.Error())
		}
	}()
}

func (pr *PriceReader) StopRPC() {
	if pr.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := pr.httpServer.Shutdown(ctx); err != nil {
		pr.log.Printf("rpc server shutdown err: %s", err.Error())
	}
	pr.httpServer = nil
	pr.log.Printf("rpc server has stopped......")
}

func (pr *PriceReader) getReadings(c *gin.Context) {
	limit := store.DefaultLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, &ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	readings, err := pr.store.GetPriceReadings(c.Query("account"), limit)
	if err != nil {
		pr.log.Printf("get price readings err: %s", err.Error())
		c.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, &ReadingsResponse{Readings: readings})
}

func (pr *PriceReader) getLatestReading(c *gin.Context) {
	readings, err := pr.store.GetPriceReadings(c.Query("account"), 1)
	if err != nil {
		pr.log.Printf("get price readings err: %s", err.Error())
		c.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	if len(readings) == 0 {
		c.JSON(http.StatusNotFound, &ErrorResponse{Error: "no current price"})
		return
	}
	c.JSON(http.StatusOK, readings[0])
}
