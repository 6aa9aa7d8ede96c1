package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"melotree/cache"
	"melotree/config"
	"melotree/core/library"
	"melotree/db"
	"melotree/logger"
	"melotree/model"
	"melotree/repository"
	"melotree/storage"

	"github.com/spf13/cobra"
)

var (
	importName string
	importUser string
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a CSV library file",
	Long:  `Parse a CSV library file, build its browse tree and store it. The file must carry an Artist,TrackName,Year,Genre header row.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logger.InitLogger(logger.Config{Level: logger.LogLevel(cfg.LogLevel)})

		raw, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatalf("Failed to read %s: %v", args[0], err)
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

		username := importUser
		if username == "" {
			username = cfg.SeedUsername
		}
		userRepo := repository.NewMySQLUserRepository(db.DB)
		user, err := userRepo.GetUserByUsername(username)
		if err != nil {
			log.Fatalf("Failed to resolve user %q: %v", username, err)
		}
		if user == nil {
			log.Fatalf("User %q does not exist", username)
		}

		name := importName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}

		svc := library.NewService(repository.NewGormLibraryRepository(db.GormDB), nil)
		lib, _, err := svc.Import(context.Background(), user.ID, name, raw)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}

		fmt.Printf("Imported library %q (id %s): %d tracks, %d artists\n",
			lib.Name, lib.ID, lib.TrackCount, lib.ArtistCount)
	},
}

func init() {
	importCmd.Flags().StringVar(&importName, "name", "", "display name for the library (defaults to the file name)")
	importCmd.Flags().StringVar(&importUser, "user", "", "username owning the library (defaults to the seed user)")
	rootCmd.AddCommand(importCmd)
}
