package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/df07/go-progressive-pathtracer/web/server"
)

func main() {
	port := flag.Int("port", 8080, "Port to serve on")
	sceneDir := flag.String("scenes", "scenes", "Directory holding YAML scene files")
	staticDir := flag.String("static", "static", "Directory of static files for the viewer")
	verbose := flag.Bool("v", false, "Log every pass")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	webServer := server.NewServer(*port, *sceneDir, *staticDir, logger)

	logger.Info("progressive path tracer web server", "url", "http://localhost:"+flag.Lookup("port").Value.String())

	if err := webServer.Start(); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
