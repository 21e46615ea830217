package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultAddr     = "127.0.0.1:8990"
	defaultCacheTTL = 15 * time.Minute
)

type Config struct {
	DBPath         string
	Addr           string
	RedisAddr      string
	CacheTTL       time.Duration
	RemoteEndpoint string
	ModelsDir      string
}

func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	defaultDBPath := filepath.Join(cwd, "fluxlord.db")

	dbPath := envOrDefault("FLUXLORD_DB_PATH", defaultDBPath)
	addr := addrFromEnv(defaultAddr)
	redisAddr := os.Getenv("FLUXLORD_REDIS_ADDR")
	remoteEndpoint := os.Getenv("FLUXLORD_REMOTE_ENDPOINT")
	modelsDir := os.Getenv("FLUXLORD_MODELS_DIR")
	cacheTTL := defaultCacheTTL
	if cacheTTLEnv := os.Getenv("FLUXLORD_CACHE_TTL"); cacheTTLEnv != "" {
		parsed, err := time.ParseDuration(cacheTTLEnv)
		if err != nil {
			return Config{}, fmt.Errorf("invalid FLUXLORD_CACHE_TTL: %w", err)
		}
		if parsed <= 0 {
			return Config{}, errors.New("FLUXLORD_CACHE_TTL must be positive")
		}
		cacheTTL = parsed
	}

	flagSet := flag.NewFlagSet("fluxlord-d", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagDB := flagSet.String("db", dbPath, "path to SQLite run archive (off to disable)")
	flagAddr := flagSet.String("addr", addr, "HTTP listen address")
	flagRedis := flagSet.String("redis", redisAddr, "Redis address for the solve cache (empty to disable)")
	flagCacheTTL := flagSet.String("cache-ttl", cacheTTL.String(), "TTL for cached solve results")
	flagRemote := flagSet.String("remote", remoteEndpoint, "upstream solve service endpoint (empty to disable)")
	flagModelsDir := flagSet.String("models-dir", modelsDir, "directory for uploaded models (empty to disable)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	cacheTTLParsed, err := time.ParseDuration(*flagCacheTTL)
	if err != nil {
		return Config{}, fmt.Errorf("invalid cache ttl: %w", err)
	}
	if cacheTTLParsed <= 0 {
		return Config{}, errors.New("cache ttl must be positive")
	}

	resolvedDBPath := *flagDB
	if !strings.EqualFold(strings.TrimSpace(resolvedDBPath), "off") {
		resolvedDBPath = resolvePath(resolvedDBPath, cwd)
	} else {
		resolvedDBPath = ""
	}

	config := Config{
		DBPath:         resolvedDBPath,
		Addr:           strings.TrimSpace(*flagAddr),
		RedisAddr:      strings.TrimSpace(*flagRedis),
		CacheTTL:       cacheTTLParsed,
		RemoteEndpoint: strings.TrimSpace(*flagRemote),
		ModelsDir:      resolvePath(*flagModelsDir, cwd),
	}

	if config.Addr == "" {
		return Config{}, errors.New("addr cannot be empty")
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func addrFromEnv(fallback string) string {
	if value := os.Getenv("FLUXLORD_ADDR"); value != "" {
		return value
	}
	if port := os.Getenv("FLUXLORD_PORT"); port != "" {
		return fmt.Sprintf("127.0.0.1:%s", port)
	}
	return fallback
}

func resolvePath(path string, cwd string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(cwd, trimmed)
}
