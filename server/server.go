package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"melotree/cache"
	"melotree/config"
	"melotree/core/library"
	"melotree/core/notify"
	"melotree/db"
	"melotree/logger"
	"melotree/model"
	"melotree/repository"
	"melotree/storage"
	"melotree/watcher"

	"github.com/gorilla/mux"
)

// Start initializes dependencies and runs the HTTP server until interrupted.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.InitMinio(); err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	if err := db.ConnectDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database with GORM: %v", err)
	}
	defer db.CloseGormDB()

	if err := cache.ConnectRedis(cfg); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer cache.CloseRedis()
	log.Println("Successfully connected to Redis")

	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := db.AutoMigrateModels(&model.Library{}); err != nil {
		log.Fatalf("Failed to migrate models: %v", err)
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	libraryRepo := repository.NewGormLibraryRepository(db.GormDB)

	// Background workers (hub, watch folder) stop with this context
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	hub := notify.NewHub()
	go hub.Run(appCtx)

	librarySvc := library.NewService(libraryRepo, hub)
	apiHandler := NewAPIHandler(userRepo, libraryRepo, librarySvc, hub, cfg)

	router := mux.NewRouter()

	// CORS middleware
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Auth endpoints
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)

	// Library endpoints
	router.HandleFunc("/api/libraries", apiHandler.AuthMiddleware(apiHandler.ListLibrariesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/libraries", apiHandler.AuthMiddleware(apiHandler.UploadLibraryHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/libraries/{id}/tree", apiHandler.AuthMiddleware(apiHandler.GetLibraryTreeHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/libraries/{id}/download", apiHandler.AuthMiddleware(apiHandler.DownloadLibraryHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/libraries/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteLibraryHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/libraries/{id}/nodes/state", apiHandler.AuthMiddleware(apiHandler.UpdateNodeStateHandler)).Methods(http.MethodPut)

	// Library lifecycle events over websocket
	router.HandleFunc("/ws/libraries", apiHandler.LibraryEventsHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/health", apiHandler.HealthHandler).Methods(http.MethodGet)

	server.Handler = router

	// Optional watch folder for dropped CSV libraries
	if cfg.WatchDir != "" {
		w := watcher.New(cfg.WatchDir, cfg.SeedUsername, librarySvc, userRepo)
		go func() {
			if err := w.Run(appCtx); err != nil {
				logger.Error("watch folder stopped", logger.ErrorField(err))
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s...", cfg.ServerAddr)
		log.Println("Upload libraries via POST to /api/libraries")
		log.Println("Browse trees via GET /api/libraries/{id}/tree")
		log.Println("Subscribe to library events via /ws/libraries")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
