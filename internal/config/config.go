/**
 * @description
 * This file handles configuration management for the sync service.
 * It loads settings from environment variables, providing defaults for the
 * sync windows, cron schedules, and queue topology.
 */
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the sync service.
type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	PlaidBaseURL  string `mapstructure:"PLAID_BASE_URL"`
	PlaidClientID string `mapstructure:"PLAID_CLIENT_ID"`
	PlaidSecret   string `mapstructure:"PLAID_SECRET"`

	SMTPHost         string `mapstructure:"SMTP_HOST"`
	SMTPPort         int    `mapstructure:"SMTP_PORT"`
	SMTPUsername     string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword     string `mapstructure:"SMTP_PASSWORD"`
	AlertFromAddress string `mapstructure:"ALERT_FROM_ADDRESS"`
	AlertToAddress   string `mapstructure:"ALERT_TO_ADDRESS"`

	// Sync windows, in days back from the tenant's local today. The local
	// window is wider than the remote one so settled events can still find
	// pending rows written on earlier runs.
	RemoteSyncOffsetDays int `mapstructure:"REMOTE_SYNC_OFFSET_DAYS"`
	LocalSyncOffsetDays  int `mapstructure:"LOCAL_SYNC_OFFSET_DAYS"`

	CatalogJobSchedule string `mapstructure:"CATALOG_JOB_SCHEDULE"`
	EnqueueJobSchedule string `mapstructure:"ENQUEUE_JOB_SCHEDULE"`

	// Minimum spacing between consecutive balance calls to the aggregator.
	BalanceCallSpacing time.Duration `mapstructure:"BALANCE_CALL_SPACING"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("PLAID_BASE_URL", "https://production.plaid.com")
	viper.SetDefault("REMOTE_SYNC_OFFSET_DAYS", 5)
	viper.SetDefault("LOCAL_SYNC_OFFSET_DAYS", 15)
	viper.SetDefault("CATALOG_JOB_SCHEDULE", "0 3 * * *")    // At 03:00 daily.
	viper.SetDefault("ENQUEUE_JOB_SCHEDULE", "0 */6 * * *")  // Every six hours.
	viper.SetDefault("BALANCE_CALL_SPACING", 2*time.Second)
	viper.SetDefault("SMTP_PORT", 587)
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("REDIS_ADDR")
	_ = viper.BindEnv("REDIS_PASSWORD")
	_ = viper.BindEnv("PLAID_BASE_URL")
	_ = viper.BindEnv("PLAID_CLIENT_ID")
	_ = viper.BindEnv("PLAID_SECRET")
	_ = viper.BindEnv("SMTP_HOST")
	_ = viper.BindEnv("SMTP_PORT")
	_ = viper.BindEnv("SMTP_USERNAME")
	_ = viper.BindEnv("SMTP_PASSWORD")
	_ = viper.BindEnv("ALERT_FROM_ADDRESS")
	_ = viper.BindEnv("ALERT_TO_ADDRESS")
	_ = viper.BindEnv("REMOTE_SYNC_OFFSET_DAYS")
	_ = viper.BindEnv("LOCAL_SYNC_OFFSET_DAYS")
	_ = viper.BindEnv("CATALOG_JOB_SCHEDULE")
	_ = viper.BindEnv("ENQUEUE_JOB_SCHEDULE")
	_ = viper.BindEnv("BALANCE_CALL_SPACING")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if config.PlaidClientID == "" || config.PlaidSecret == "" {
		return nil, fmt.Errorf("PLAID_CLIENT_ID and PLAID_SECRET are required")
	}
	if config.RemoteSyncOffsetDays <= 0 || config.LocalSyncOffsetDays <= 0 {
		return nil, fmt.Errorf("sync offsets must be positive day counts")
	}
	if config.LocalSyncOffsetDays < config.RemoteSyncOffsetDays {
		return nil, fmt.Errorf("LOCAL_SYNC_OFFSET_DAYS must cover REMOTE_SYNC_OFFSET_DAYS")
	}

	return &config, nil
}
