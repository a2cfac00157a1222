package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/docdrive/internal/flagx"
	"github.com/joho/godotenv"
)

// loadDotenv is a test seam for godotenv.Load.
var loadDotenv = godotenv.Load

// parseEnv overlays Config with environment variables. A dotenv file is loaded
// first (path from -env-file, otherwise ".env" when present); variables
// already set in the process environment win over the file.
//
// Recognised variables:
//
//	HTTP_ADDR, HEALTH_ADDR, DATABASE_URL, JWT_SECRET, JWT_EXPIRE_MINUTES,
//	REFRESH_EXPIRE_MINUTES, ENCRYPTION_KEY, DRIVE_BACKEND, DRIVE_TIMEOUT,
//	DOWNLOAD_CHUNK_SIZE, MAX_UPLOAD_SIZE, S3_ROOT_USER, S3_ROOT_PASSWORD,
//	S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT, REDIS_ADDR, REDIS_PASSWORD,
//	REDIS_DB, LOGIN_ATTEMPTS, LOGIN_WINDOW, BACKEND_CORS_ORIGINS,
//	SUPERADMIN_EMAIL, SUPERADMIN_PASSWORD, LOG_LEVEL, LOG_FORMAT
//
// Malformed numeric values are ignored and leave the previous value in place.
func parseEnv(config *Config) {
	path := flagx.EnvFileFlags()
	if path != "" {
		if err := loadDotenv(path); err != nil {
			panic(err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		_ = loadDotenv(".env")
	}

	setString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	setString(&config.EndpointAddrGRPC, "HEALTH_ADDR")
	setString(&config.DatabaseDSN, "DATABASE_URL")
	setString(&config.SecretKey, "JWT_SECRET")
	setMinutes(&config.AccessTokenValidityDuration, "JWT_EXPIRE_MINUTES")
	setMinutes(&config.RefreshTokenValidityDuration, "REFRESH_EXPIRE_MINUTES")
	setString(&config.EncryptionKey, "ENCRYPTION_KEY")

	setString(&config.DriveBackend, "DRIVE_BACKEND")
	setDuration(&config.DriveTimeout, "DRIVE_TIMEOUT")
	setInt(&config.DownloadChunkSize, "DOWNLOAD_CHUNK_SIZE")
	if v, ok := os.LookupEnv("MAX_UPLOAD_SIZE"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MaxUploadSize = n
		}
	}

	setString(&config.S3RootUser, "S3_ROOT_USER")
	setString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&config.S3Bucket, "S3_BUCKET")
	setString(&config.S3Region, "S3_REGION")
	setString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")

	setString(&config.RedisAddr, "REDIS_ADDR")
	setString(&config.RedisPassword, "REDIS_PASSWORD")
	setInt(&config.RedisDB, "REDIS_DB")
	setInt(&config.LoginAttempts, "LOGIN_ATTEMPTS")
	setDuration(&config.LoginWindow, "LOGIN_WINDOW")

	if v, ok := os.LookupEnv("BACKEND_CORS_ORIGINS"); ok {
		config.CORSOrigins = parseList(v)
	}

	setString(&config.SuperadminEmail, "SUPERADMIN_EMAIL")
	setString(&config.SuperadminPassword, "SUPERADMIN_PASSWORD")
	setString(&config.LogLevel, "LOG_LEVEL")
	setString(&config.LogFormat, "LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setMinutes(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(n) * time.Minute
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// parseList accepts either a JSON array (`["http://a","http://b"]`) or a
// comma separated list.
func parseList(v string) []string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "[") {
		var list []string
		if err := json.Unmarshal([]byte(v), &list); err == nil {
			return list
		}
	}
	var list []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
