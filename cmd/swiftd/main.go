package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Ebendttl/SwiftEstate/config"
	"github.com/Ebendttl/SwiftEstate/core"
	"github.com/Ebendttl/SwiftEstate/core/genesis"
	"github.com/Ebendttl/SwiftEstate/native/fees"
	"github.com/Ebendttl/SwiftEstate/observability/logging"
	"github.com/Ebendttl/SwiftEstate/rpc"
	"github.com/Ebendttl/SwiftEstate/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisFlag := flag.String("genesis", "", "Path to a genesis JSON file (overrides config GenesisFile)")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("SWIFT_ENV"))
	logger := logging.Setup("swiftd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	genesisPath := strings.TrimSpace(*genesisFlag)
	if genesisPath == "" {
		genesisPath = strings.TrimSpace(cfg.GenesisFile)
	}
	if genesisPath == "" {
		logger.Error("No genesis file configured; set GenesisFile or pass --genesis")
		os.Exit(1)
	}
	spec, err := genesis.Load(genesisPath)
	if err != nil {
		logger.Error("Failed to load genesis", slog.Any("error", err))
		os.Exit(1)
	}
	admin, err := spec.AdminAddress()
	if err != nil {
		logger.Error("Invalid genesis admin address", slog.Any("error", err))
		os.Exit(1)
	}

	feeBps := cfg.FeeBps
	if spec.FeeBps != nil {
		feeBps = *spec.FeeBps
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	node := core.NewNode(db, admin, fees.Policy{RateBps: feeBps, Treasury: admin})
	if err := node.ApplyGenesis(spec); err != nil {
		logger.Error("Failed to apply genesis", slog.Any("error", err))
		os.Exit(1)
	}

	auth := rpc.NewAuthenticator(rpc.AuthConfig{
		JWTEnabled:  cfg.Auth.JWTEnabled,
		HMACSecret:  cfg.Auth.HMACSecret,
		Issuer:      cfg.Auth.Issuer,
		Audience:    cfg.Auth.Audience,
		StaticToken: resolveStaticToken(cfg.Auth.StaticToken),
	})
	server := rpc.NewServer(node, auth)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("JSON-RPC server listening",
			slog.String("address", cfg.ListenAddress),
			slog.String("network", cfg.NetworkName))
		errCh <- server.Start(cfg.ListenAddress)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("RPC server failed", slog.Any("error", err))
			os.Exit(1)
		}
	case s := <-sig:
		logger.Info("Shutting down", slog.String("signal", s.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.Any("error", err))
		}
	}
}

// resolveStaticToken prefers the environment variable so the token can stay
// out of the config file.
func resolveStaticToken(configured string) string {
	if env := strings.TrimSpace(os.Getenv("SWIFT_RPC_TOKEN")); env != "" {
		return env
	}
	return strings.TrimSpace(configured)
}
