package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/ameba1399/mes-signaling/internal/server"
	"github.com/ameba1399/mes-signaling/internal/signaling"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	staticDir := flag.String("static", "./static", "client UI directory (empty to disable)")
	origins := flag.String("origins", "", "comma-separated allowed websocket origins (empty allows all)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Deployment platforms hand us the port through the environment.
	if port := os.Getenv("PORT"); port != "" {
		*addr = ":" + port
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	hub := signaling.NewHub(logger)

	cfg := server.Config{
		StaticDir:      *staticDir,
		AllowedOrigins: splitOrigins(*origins),
	}

	logger.Info("starting signaling server", "addr", *addr)
	if err := http.ListenAndServe(*addr, server.Routes(hub, cfg, logger)); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func splitOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
