// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package server is the webhook gateway: it verifies GitHub deliveries
// and turns the interesting ones into queued scan jobs. It never runs a
// scan itself.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davetashner/pitcrew/internal/queue"
)

// Server holds the gateway's dependencies.
type Server struct {
	secret []byte
	queue  *queue.Queue
}

// New creates a Server that verifies deliveries with webhookSecret and
// enqueues jobs on q.
func New(webhookSecret string, q *queue.Queue) *Server {
	return &Server{secret: []byte(webhookSecret), queue: q}
}

// Router builds the gin engine with all routes registered. The caller
// owns the http.Server wrapping it.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())

	r.GET("/healthz", handleHealthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/webhook/github", s.handleWebhook)
	return r
}

// handleHealthz is a liveness probe. It touches no dependencies so a
// Redis outage does not make the pod restart loop.
func handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestLogger logs one line per request via slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Millisecond))
	}
}
