package main

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/parlor/go/internal/config"
	"github.com/mcdev12/parlor/go/internal/gateway"
)

func setupServer(cfg *config.Config, wsHandler *gateway.WebSocketHandler) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	wsHandler.RegisterRoutes(mux)
	setupHealthCheck(mux)

	handler := c.Handler(mux)

	// Setup HTTP/2 server; websocket upgrades ride plain HTTP/1.1
	// through the h2c handler.
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

func connectionConfig(cfg *config.Config) gateway.ConnectionConfig {
	cc := gateway.DefaultConnectionConfig()
	cc.ReadBufferSize = cfg.Gateway.ReadBufferSize
	cc.WriteBufferSize = cfg.Gateway.WriteBufferSize
	cc.PingInterval = time.Duration(cfg.Gateway.PingIntervalSec) * time.Second
	cc.ReadTimeout = time.Duration(cfg.Gateway.ReadTimeoutSec) * time.Second
	cc.WriteTimeout = time.Duration(cfg.Gateway.WriteTimeoutSec) * time.Second
	return cc
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}
