package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"

	"fichadas-sync/internal/fichadas"
	"fichadas-sync/internal/platform/auth"
	"fichadas-sync/internal/platform/db"
	"fichadas-sync/internal/platform/mongodb"
)

func main() {
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if mode != "dev" && mode != "release" {
		log.Println("Usage: go run main.go [dev|release]")
		return
	}

	level := slog.LevelInfo
	if mode == "dev" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()
	log.Printf("[INFO] connected to MySQL: %s", cfg.DB.DBName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mdb, err := mongodb.Connect(ctx, cfg.Mongo)
	if err != nil {
		panic(err)
	}
	defer mongodb.Disconnect(context.Background(), mdb)
	log.Printf("[INFO] connected to MongoDB: %s", cfg.Mongo.Database)

	// pipeline wiring: fetch → record (→ match) → archive
	source := fichadas.NewSourceStore(conn)
	records := fichadas.NewRecordStore(mdb)
	sessions := fichadas.NewSessionStore(mdb)
	agents := fichadas.NewAgentStore(mdb)
	recorder := fichadas.NewRecorder(agents, records, fichadas.NewMatcher(sessions))
	loop := fichadas.NewLoop(source, recorder, source, cfg.Sync.PollInterval, cfg.Sync.RetryInterval)

	go loop.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	auth.RegisterRoutes(r.Group("/auth"), auth.NewService(conn))

	// /api/v2 (read-only views over the migrated data)
	api := r.Group("/api/v2", auth.RequireAuth(auth.Secret()))
	fichadas.RegisterRoutes(api, loop, records, sessions)

	srv := &http.Server{
		Addr:    cfg.API.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("[INFO] listening on %s", cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown: stop the loop first so no event is half-processed
	// longer than one pipeline step.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
