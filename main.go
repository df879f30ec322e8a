package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"darkchat/internal/api"
	"darkchat/internal/auth"
	"darkchat/internal/chat"
	"darkchat/internal/config"
	"darkchat/internal/provider"
	"darkchat/internal/redis"
	"darkchat/internal/storage"
	"darkchat/internal/store"
	"darkchat/internal/tools"
)

func main() {
	cfgPath := os.Getenv("DARKCHAT_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("DARKCHAT_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// The token cache is optional; auth falls back to the database without it.
	var cache *redis.Client
	if !cfg.Redis.Disabled {
		cache, err = redis.NewClient(cfg)
		if err != nil {
			log.Printf("redis unavailable, auth tokens served from database: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	recordStore, err := store.New(db)
	if err != nil {
		log.Fatalf("init store: %v", err)
	}
	authService := auth.NewService(db, cache, 24*time.Hour)

	providerService, err := provider.New(cfg)
	if err != nil {
		log.Fatalf("init providers: %v", err)
	}

	windowModel := cfg.Providers[cfg.BasicConfig.DefaultProvider].Model
	chatService := chat.NewService(recordStore, providerService, chat.Config{
		Window:            chat.NewWindow(windowModel, cfg.BasicConfig.HistoryMaxTurns, cfg.BasicConfig.HistoryTokenBudget),
		SerializeSessions: cfg.BasicConfig.SerializeSessions,
	})

	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewCodeExecTool()); err != nil {
		log.Fatalf("register execute_code: %v", err)
	}
	if err := registry.Register(tools.NewWebSearchTool(cfg.Search)); err != nil {
		log.Fatalf("register web_search: %v", err)
	}
	if rf := tools.NewReadFileTool(); rf != nil {
		if err := registry.Register(rf); err != nil {
			log.Fatalf("register read_file: %v", err)
		}
	}

	fileBase := cfg.BasicConfig.FileBaseDir
	if fileBase == "" {
		fileBase = "./data/uploads"
	}
	handlers := api.NewHandler(recordStore, authService, chatService, registry, fileBase)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
