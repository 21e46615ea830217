package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rmax-ai/fluxlord/pkg/api"
	"github.com/rmax-ai/fluxlord/pkg/blob"
	"github.com/rmax-ai/fluxlord/pkg/client"
	"github.com/rmax-ai/fluxlord/pkg/engine"
	"github.com/rmax-ai/fluxlord/pkg/store"
	rediscache "github.com/rmax-ai/fluxlord/pkg/store/redis"
)

var (
	Version   = "v1.0.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	fmt.Println(`{"level":"info","msg":"system_started","component":"fluxlord-d"}`)

	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf(`{"level":"fatal","msg":"invalid_config","error":"%v"}`+"\n", err)
		os.Exit(1)
	}

	var archive api.Archive
	var st *store.Store
	if cfg.DBPath != "" {
		st, err = store.NewStore(cfg.DBPath)
		if err != nil {
			fmt.Printf(`{"level":"fatal","msg":"failed_to_init_store","error":"%v"}`+"\n", err)
			os.Exit(1)
		}
		archive = st
		fmt.Printf(`{"level":"info","msg":"store_initialized","path":"%s"}`+"\n", cfg.DBPath)
	} else {
		fmt.Println(`{"level":"info","msg":"store_disabled"}`)
	}

	var cache api.Cache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			fmt.Printf(`{"level":"fatal","msg":"failed_to_init_cache","error":"%v"}`+"\n", err)
			os.Exit(1)
		}
		cancel()
		cache = rediscache.NewCache(redisClient, cfg.CacheTTL)
		fmt.Printf(`{"level":"info","msg":"cache_initialized","addr":"%s","ttl":"%s"}`+"\n", cfg.RedisAddr, cfg.CacheTTL)
	}

	var models api.Models
	if cfg.ModelsDir != "" {
		if err := os.MkdirAll(cfg.ModelsDir, 0o755); err != nil {
			fmt.Printf(`{"level":"fatal","msg":"failed_to_init_model_store","error":"%v"}`+"\n", err)
			os.Exit(1)
		}
		models = blob.NewModelStore(blob.NewLocalBlobStore(cfg.ModelsDir))
		fmt.Printf(`{"level":"info","msg":"model_store_initialized","path":"%s"}`+"\n", cfg.ModelsDir)
	}

	var remote engine.Remote
	if cfg.RemoteEndpoint != "" {
		remote = client.NewClient(cfg.RemoteEndpoint)
		fmt.Printf(`{"level":"info","msg":"remote_configured","endpoint":"%s"}`+"\n", cfg.RemoteEndpoint)
	}

	worker := engine.NewWorker()
	dispatcher := engine.NewDispatcher(worker, remote)

	server := api.NewServer(dispatcher, archive, cache, models, Version, cfg.Addr)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf(`{"level":"fatal","msg":"server_failed","error":"%v"}`+"\n", err)
			os.Exit(1)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigs
	fmt.Printf(`{"level":"info","msg":"shutdown_initiated","signal":"%s"}`+"\n", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_stop_server","error":"%v"}`+"\n", err)
	}

	worker.Close()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			fmt.Printf(`{"level":"error","msg":"failed_to_close_cache","error":"%v"}`+"\n", err)
		}
	}

	if st != nil {
		if err := st.Close(); err != nil {
			fmt.Printf(`{"level":"error","msg":"failed_to_close_store","error":"%v"}`+"\n", err)
		} else {
			fmt.Println(`{"level":"info","msg":"store_closed"}`)
		}
	}

	fmt.Println(`{"level":"info","msg":"shutdown_complete"}`)
}
