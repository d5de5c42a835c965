package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Backend  BackendConfig
	DB       DBConfig
	Telegram TelegramConfig
}

// BackendConfig points at the hosted document platform and names the
// collections the ordering feature reads and writes. The feature stays
// disabled until every identifier is present.
type BackendConfig struct {
	Endpoint    string
	Project     string
	APIKey      string
	DatabaseID  string
	AdminTeamID string
	Collections Collections
}

type Collections struct {
	Products   string
	Menus      string
	Orders     string
	OrderItems string
}

// DBConfig is only used by self-hosted deployments backed by Postgres.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type TelegramConfig struct {
	Token       string // empty disables order notifications
	AdminChatID int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	chatID, _ := strconv.ParseInt(getEnv("ADMIN_CHAT_ID", "0"), 10, 64)

	return &Config{
		Backend: BackendConfig{
			Endpoint:    getEnv("BACKEND_ENDPOINT", ""),
			Project:     getEnv("BACKEND_PROJECT", ""),
			APIKey:      getEnv("BACKEND_API_KEY", ""),
			DatabaseID:  getEnv("DATABASE_ID", ""),
			AdminTeamID: getEnv("ADMIN_TEAM_ID", ""),
			Collections: Collections{
				Products:   getEnv("PRODUCTS_COLLECTION_ID", ""),
				Menus:      getEnv("MENUS_COLLECTION_ID", ""),
				Orders:     getEnv("ORDERS_COLLECTION_ID", ""),
				OrderItems: getEnv("ORDER_ITEMS_COLLECTION_ID", ""),
			},
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "preorder"),
		},
		Telegram: TelegramConfig{
			Token:       getEnv("TOKEN", ""),
			AdminChatID: chatID,
		},
	}, nil
}

// Ready reports whether every collection identifier the ordering
// feature needs is configured. When false, callers surface a
// missing-setup state and perform no remote calls.
func (c Collections) Ready() bool {
	return c.Products != "" && c.Menus != "" && c.Orders != "" && c.OrderItems != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
