package utils

import (
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Stripe   StripeConfig
	Booking  BookingConfig
	Cron     CronConfig
	Outbox   OutboxConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type BookingConfig struct {
	PendingTTLMinutes  int
	MaxSpotsPerBooking int
	ReleasePoints      int
	PointsWindowHours  int
	HostPoints         int
}

type CronConfig struct {
	Secret string
}

type OutboxConfig struct {
	PollSeconds int
	BatchSize   int
	MaxAttempts int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("STRIPE_CURRENCY", "dkk")
	viper.SetDefault("BOOKING_PENDING_TTL_MINUTES", 30)
	viper.SetDefault("BOOKING_MAX_SPOTS", 10)
	viper.SetDefault("RELEASE_POINTS", 150)
	viper.SetDefault("RELEASE_POINTS_WINDOW_HOURS", 3)
	viper.SetDefault("HOST_POINTS", 150)
	viper.SetDefault("OUTBOX_POLL_SECONDS", 15)
	viper.SetDefault("OUTBOX_BATCH_SIZE", 20)
	viper.SetDefault("OUTBOX_MAX_ATTEMPTS", 5)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Stripe: StripeConfig{
			SecretKey:     viper.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: viper.GetString("STRIPE_WEBHOOK_SECRET"),
			Currency:      viper.GetString("STRIPE_CURRENCY"),
		},
		Booking: BookingConfig{
			PendingTTLMinutes:  viper.GetInt("BOOKING_PENDING_TTL_MINUTES"),
			MaxSpotsPerBooking: viper.GetInt("BOOKING_MAX_SPOTS"),
			ReleasePoints:      viper.GetInt("RELEASE_POINTS"),
			PointsWindowHours:  viper.GetInt("RELEASE_POINTS_WINDOW_HOURS"),
			HostPoints:         viper.GetInt("HOST_POINTS"),
		},
		Cron: CronConfig{
			Secret: viper.GetString("CRON_SECRET"),
		},
		Outbox: OutboxConfig{
			PollSeconds: viper.GetInt("OUTBOX_POLL_SECONDS"),
			BatchSize:   viper.GetInt("OUTBOX_BATCH_SIZE"),
			MaxAttempts: viper.GetInt("OUTBOX_MAX_ATTEMPTS"),
		},
	}

	return config, nil
}
