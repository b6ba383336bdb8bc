package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jengzang/fleet-trips-backend-go/internal/api"
	"github.com/jengzang/fleet-trips-backend-go/internal/config"
	"github.com/jengzang/fleet-trips-backend-go/internal/database"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化数据库
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		log.Fatal("[Server] failed to create data directory:", err)
	}
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("[Server] failed to initialize database:", err)
	}
	defer database.Close()

	if !cfg.AuthEnabled() {
		log.Printf("[Server] JWT_SECRET not set, session auth disabled")
	}

	// 初始化路由
	router := api.SetupRouter(cfg, database.GetDB())

	server := &http.Server{
		Addr:        cfg.Port,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// route snapping may issue several OSRM requests
		WriteTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("[Server] starting on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[Server] http server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	log.Printf("[Server] stopped")
}
