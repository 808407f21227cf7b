// Command ftpserver runs the TCP file server. All configuration comes from
// FTP_* environment variables; see internal/config.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/cyberinferno/ftpserver/internal/cache"
	"github.com/cyberinferno/ftpserver/internal/config"
	"github.com/cyberinferno/ftpserver/internal/ftp"
	"github.com/cyberinferno/ftpserver/internal/logger"
	"github.com/cyberinferno/ftpserver/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(os.Stdout, "ftpserver", logger.ParseLevel(cfg.LogLevel))

	store, err := storage.New(cfg.StorageRoot)
	if err != nil {
		log.Error("failed to open storage root", logger.Field{Key: "error", Value: err})
		os.Exit(1)
	}

	var listings cache.ListingCache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.ListCacheTTL)
		defer redisCache.Close()
		listings = redisCache
		log.Info("using redis listing cache", logger.Field{Key: "redis_addr", Value: cfg.RedisAddr})
	} else {
		listings = cache.NewMemoryCache(cfg.ListCacheTTL)
	}

	srv := ftp.NewServer(ftp.Options{
		Addr:        cfg.Addr(),
		MaxConns:    cfg.MaxConns,
		ReadTimeout: cfg.ReadTimeout,
	}, store, listings, log)

	if err := srv.Start(); err != nil {
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	srv.Stop()
}
