package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Path string
	}
	Server struct {
		Port      int
		JWTSecret string
	}
	Scheduler struct {
		// Hosted disables the in-process tick loop; due checks then happen
		// only when the external trigger endpoint is called.
		Hosted        bool
		TickInterval  time.Duration
		LeaseDuration time.Duration
		MaxConcurrent int64
	}
	Trigger struct {
		APIKey        string
		MaxBodyBytes  int64
		RatePerMinute int
	}
	Delivery struct {
		Email struct {
			SMTPHost string
			SMTPPort int
			From     string
			Password string
		}
		Slack struct {
			Token string
		}
	}
	Redis struct {
		// Addr switches the claim coordinator to the Redis lease backend
		// when set; empty keeps the database-backed lease.
		Addr     string
		Password string
		DB       int
	}
}

// LoadConfig loads the configuration from config.yaml
func LoadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("database.path", "data/reports.db")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("scheduler.hosted", false)
	viper.SetDefault("scheduler.tickinterval", time.Minute)
	viper.SetDefault("scheduler.leaseduration", 5*time.Minute)
	viper.SetDefault("scheduler.maxconcurrent", 10)
	viper.SetDefault("trigger.maxbodybytes", 1<<20)
	viper.SetDefault("trigger.rateperminute", 10)

	var config Config

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Ensure data directory exists before writing the default file
			if err := os.MkdirAll("data", 0755); err != nil {
				fmt.Printf("Warning: Failed to create data directory: %v\n", err)
			}
			if err := viper.SafeWriteConfig(); err != nil {
				fmt.Printf("Warning: Failed to write default config: %v\n", err)
			}
		} else {
			fmt.Printf("Error reading config file: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Printf("Error unmarshaling config: %v\n", err)
	}

	return &config
}
