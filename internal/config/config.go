package config

import (
	"os"
	"strconv"
	"strings"
)

// Config содержит конфигурацию приложения
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	AI          AIConfig
	Assets      AssetsConfig
	CORS        CORSConfig
}

// ServerConfig содержит конфигурацию сервера
type ServerConfig struct {
	Port                int
	ReadTimeoutSeconds  int
	WriteTimeoutSeconds int
	IdleTimeoutSeconds  int
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host               string
	Port               int
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxConnections     int
	MaxConnIdleMinutes int
}

// AIConfig содержит конфигурацию провайдера генерации.
// Ключ API сюда намеренно не входит: клиент читает его из окружения
// при каждом вызове (GEMINI_API_KEY, затем GOOGLE_API_KEY).
type AIConfig struct {
	TextModel  string
	ImageModel string
}

// AssetsConfig содержит пути генерируемых артефактов
type AssetsConfig struct {
	GeneratedDir string // куда сохраняются изображения иллюстраций
	FontsDir     string // TTF-шрифты для PDF экспорта
}

// CORSConfig содержит конфигурацию CORS
type CORSConfig struct {
	AllowedOrigins []string
}

// Load загружает конфигурацию из переменных окружения
func Load(env string) (Config, error) {
	cfg := Config{
		Environment: env,
		Server: ServerConfig{
			Port:                getEnvInt("SERVER_PORT", 8080),
			ReadTimeoutSeconds:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeoutSeconds: getEnvInt("SERVER_WRITE_TIMEOUT", 120),
			IdleTimeoutSeconds:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:               getEnvStr("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnvStr("DB_USER", "postgres"),
			Password:           getEnvStr("DB_PASSWORD", "postgres"),
			Name:               getEnvStr("DB_NAME", "stories"),
			SSLMode:            getEnvStr("DB_SSL_MODE", "disable"),
			MaxConnections:     getEnvInt("DB_MAX_CONNECTIONS", 10),
			MaxConnIdleMinutes: getEnvInt("DB_MAX_IDLE_MINUTES", 5),
		},
		AI: AIConfig{
			TextModel:  getEnvStr("GEMINI_MODEL", "gemini-2.5-flash"),
			ImageModel: getEnvStr("GEMINI_IMAGE_MODEL", "imagen-3.0-generate-002"),
		},
		Assets: AssetsConfig{
			GeneratedDir: getEnvStr("GENERATED_DIR", "generated"),
			FontsDir:     getEnvStr("FONTS_DIR", "fonts"),
		},
		CORS: CORSConfig{
			AllowedOrigins: strings.Split(getEnvStr("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),
		},
	}

	return cfg, nil
}

// getEnvStr возвращает строковое значение из переменной окружения или значение по умолчанию
func getEnvStr(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt возвращает целочисленное значение из переменной окружения или значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
