package cmd

import (
	"fmt"
	"log"

	"melotree/cache"
	"melotree/config"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis connectivity check",
	Long:  `Verify the Redis connection with a basic set/get/del round trip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Redis config: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := cache.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		fmt.Println("Redis connection successful!")

		if err := cache.TestRedis(); err != nil {
			log.Fatalf("Redis operation test failed: %v", err)
		}
		fmt.Println("Redis basic operations OK.")

		if err := cache.CloseRedis(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
		fmt.Println("Redis check complete, connection closed.")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
