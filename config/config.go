package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("UC_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("UC_DEBUG") == "true"
}

func GetListen() string {
	return os.Getenv("UC_LISTEN")
}

func GetPort() int {
	return getEnvInt("UC_PORT", 8080)
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("UC_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "/etc/user-center"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("UC_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log"
	}
	return logFolderPath
}

func GetUploadFolder() string {
	uploadFolderPath := os.Getenv("UC_UPLOAD_FOLDER")
	if uploadFolderPath == "" {
		uploadFolderPath = fmt.Sprintf("%s/uploads", GetDBFolderPath())
	}
	return uploadFolderPath
}

// GetJWTSecret returns the token signing key. An empty value disables
// nothing here; callers that need a key fall back to a process-lifetime
// random one and log a warning.
func GetJWTSecret() string {
	return os.Getenv("UC_JWT_SECRET")
}

func GetAccessTokenTTL() time.Duration {
	return getEnvDuration("UC_ACCESS_TOKEN_TTL", time.Hour)
}

func GetRefreshTokenTTL() time.Duration {
	return getEnvDuration("UC_REFRESH_TOKEN_TTL", 7*24*time.Hour)
}

func GetActivityRetentionDays() int {
	return getEnvInt("UC_ACTIVITY_RETENTION_DAYS", 90)
}

func GetCORSOrigins() []string {
	origins := os.Getenv("UC_CORS_ORIGINS")
	if origins == "" {
		return []string{"*"}
	}
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
