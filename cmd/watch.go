package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"melotree/cache"
	"melotree/config"
	"melotree/core/library"
	"melotree/db"
	"melotree/logger"
	"melotree/model"
	"melotree/repository"
	"melotree/storage"
	"melotree/watcher"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [DIR]",
	Short: "Watch a folder and import dropped CSV library files",
	Long:  `Watch a directory for newly created CSV library files and import each one for the seed user. Defaults to WATCH_DIR from the environment.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{Level: logger.LogLevel(cfg.LogLevel)})

		dir := cfg.WatchDir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			log.Fatal("No watch directory given; pass DIR or set WATCH_DIR")
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
		if err := db.InitDB(cfg); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		if err := db.AutoMigrateModels(&model.Library{}); err != nil {
			log.Fatalf("Failed to migrate models: %v", err)
		}

		userRepo := repository.NewMySQLUserRepository(db.DB)
		svc := library.NewService(repository.NewGormLibraryRepository(db.GormDB), nil)
		w := watcher.New(dir, cfg.SeedUsername, svc, userRepo)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-stop
			cancel()
		}()

		if err := w.Run(ctx); err != nil {
			log.Fatalf("Watcher failed: %v", err)
		}
		log.Println("Watcher stopped")
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
