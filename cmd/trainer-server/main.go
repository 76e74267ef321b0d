// Command trainer-server boots the confidential model-training service:
// it loads its TLS identity, provisioned public keys, and network
// configuration from disk, wires the artifact store, run registry, session
// manager and training engine together, and serves the Trainer gRPC
// service until the process is signaled to stop.
package main

import (
	"crypto/tls"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/coldvault/trainer/internal/artifact"
	"github.com/coldvault/trainer/internal/clock"
	"github.com/coldvault/trainer/internal/config"
	"github.com/coldvault/trainer/internal/rpcserver"
	"github.com/coldvault/trainer/internal/runs"
	"github.com/coldvault/trainer/internal/session"
	"github.com/coldvault/trainer/internal/training"
)

var configPath = flag.String("config", "config.toml", "path to the network/TLS/auth TOML configuration file")

func main() {
	flag.Parse()

	var logLevel slog.Level
	if _, isSet := os.LookupEnv("DEV_MODE"); isSet {
		logLevel = slog.LevelDebug
	} else {
		logLevel = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	log := slog.New(handler)
	slog.SetDefault(log)

	if _, disabled := os.LookupEnv("BASTIONAI_DISABLE_TELEMETRY"); disabled {
		log.Info("telemetry disabled")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	store := artifact.NewStore()
	registry := runs.NewRegistry()
	engine := training.NewEngine(store, registry)

	var keys *session.KeyManagement
	if cfg.Auth.KeysDir != "" {
		keys, err = session.LoadFromDir(cfg.Auth.KeysDir)
		if err != nil {
			log.Error("loading provisioned keys", "error", err, "dir", cfg.Auth.KeysDir)
			os.Exit(1)
		}
	} else {
		log.Warn("no keys_dir configured, authentication disabled")
	}
	sessions := session.NewManager(keys, cfg.Auth.SessionTTL(), clock.NewSystemUtcClock())

	srv := rpcserver.New(store, sessions, registry, engine, log.With("component", "rpcserver"))

	creds, err := loadServerCredentials(cfg.TLS)
	if err != nil {
		log.Error("loading TLS identity", "error", err)
		os.Exit(1)
	}

	grpcServer := grpc.NewServer(
		grpc.Creds(creds),
		grpc.UnaryInterceptor(rpcserver.UnaryAuthInterceptor(sessions)),
		grpc.StreamInterceptor(rpcserver.StreamAuthInterceptor(sessions)),
	)
	rpcserver.RegisterTrainerServer(grpcServer, srv)

	lis, err := net.Listen("tcp", cfg.Network.Address())
	if err != nil {
		log.Error("binding listener", "error", err, "addr", cfg.Network.Address())
		os.Exit(1)
	}

	log.Info("coldvault trainer listening",
		"addr", cfg.Network.Address(),
		"auth_enabled", sessions.AuthEnabled(),
		"session_ttl", cfg.Auth.SessionTTL().String())

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("server exited", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")
	grpcServer.GracefulStop()
}

func loadServerCredentials(t config.TLS) (credentials.TransportCredentials, error) {
	cert, err := tls.LoadX509KeyPair(t.CertPath, t.KeyPath)
	if err != nil {
		return nil, err
	}
	return credentials.NewTLS(&tls.Config{Certificates: []tls.Certificate{cert}}), nil
}
