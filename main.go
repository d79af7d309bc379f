package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/citylens/citylens/internal/config"
	"github.com/citylens/citylens/internal/logx"
	"github.com/citylens/citylens/internal/server"
)

var version = "dev"

func main() {
	// Parse command-line flags; they override the environment.
	port := flag.Int("port", 0, "HTTP server port (overrides PORT)")
	dataDir := flag.String("data-dir", "", "Directory containing data files (overrides DATA_DIR)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("CityLens v%s\n", version)
		os.Exit(0)
	}

	// .env is optional; the environment wins when both are present.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	var cfg config.Config
	if err := envconfig.Process("CITYLENS", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.Version = version
	if *port > 0 {
		cfg.Port = *port
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	logx.Init(logx.Opts{Production: cfg.IsProduction(), Level: cfg.LogLevel})

	// Find an available port (try up to 10 ports starting from the requested one).
	availablePort, err := findAvailablePort(cfg.Port, 10)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to find available port")
	}
	if availablePort != cfg.Port {
		logx.Warn().Int("requested", cfg.Port).Int("using", availablePort).Msg("port in use")
		cfg.Port = availablePort
	}

	logx.Info().Str("version", version).Int("port", cfg.Port).Str("data_dir", cfg.DataDir).Msg("CityLens starting")

	srv, err := server.New(cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create server")
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	waitForServer(fmt.Sprintf("http://localhost:%d", cfg.Port), 10*time.Second)

	select {
	case err := <-errCh:
		if err != nil {
			logx.Fatal().Err(err).Msg("server error")
		}
	case sig := <-stop:
		logx.Info().Str("signal", sig.String()).Msg("shutting down")
		if err := srv.Stop(); err != nil {
			logx.Error().Err(err).Msg("error during shutdown")
		}
	}
}

// waitForServer polls until the server is accepting connections.
func waitForServer(url string, timeout time.Duration) {
	addr := url[len("http://"):]
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	logx.Warn().Str("url", url).Msg("server may not be ready")
}

// findAvailablePort finds an available port, starting from the given port.
// If the port is in use, it tries subsequent ports up to maxAttempts times.
func findAvailablePort(startPort int, maxAttempts int) (int, error) {
	for i := 0; i < maxAttempts; i++ {
		port := startPort + i
		addr := fmt.Sprintf(":%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found after %d attempts starting from %d", maxAttempts, startPort)
}
