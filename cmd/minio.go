package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"melotree/config"
	"melotree/storage"

	"github.com/spf13/cobra"
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO connectivity check",
	Long:  `Verify the MinIO connection and bucket with a write/read/delete round trip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO config: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(); err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		fmt.Println("MinIO connection successful!")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := storage.VerifyMinio(ctx); err != nil {
			log.Fatalf("MinIO round trip failed: %v", err)
		}
		fmt.Println("MinIO round trip OK.")
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)
}
