package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/docdrive/internal/flagx"
	"github.com/dmitrijs2005/docdrive/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file.
// Durations accept Go duration strings ("30s") or integer nanoseconds.
// Fields left out of the file keep the value from the previous layer.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	EncryptionKey                string         `json:"encryption_key"`
	DriveBackend                 string         `json:"drive_backend"`
	DriveTimeout                 timex.Duration `json:"drive_timeout"`
	DownloadChunkSize            int            `json:"download_chunk_size"`
	MaxUploadSize                int64          `json:"max_upload_size"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	RedisAddr                    string         `json:"redis_addr"`
	RedisPassword                string         `json:"redis_password"`
	RedisDB                      int            `json:"redis_db"`
	LoginAttempts                int            `json:"login_attempts"`
	LoginWindow                  timex.Duration `json:"login_window"`
	CORSOrigins                  []string       `json:"cors_origins"`
	SuperadminEmail              string         `json:"superadmin_email"`
	SuperadminPassword           string         `json:"superadmin_password"`
	LogLevel                     string         `json:"log_level"`
	LogFormat                    string         `json:"log_format"`
}

// parseJson loads the file named by -c/-config, if any, and copies every
// non-zero field into config. An unreadable file or invalid JSON panics:
// a config file that was asked for but cannot be used is a startup error.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	overlay(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	overlay(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.SecretKey, c.SecretKey)
	overlay(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration.Duration)
	overlay(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration.Duration)
	overlay(&config.EncryptionKey, c.EncryptionKey)
	overlay(&config.DriveBackend, c.DriveBackend)
	overlay(&config.DriveTimeout, c.DriveTimeout.Duration)
	overlay(&config.DownloadChunkSize, c.DownloadChunkSize)
	overlay(&config.MaxUploadSize, c.MaxUploadSize)
	overlay(&config.S3RootUser, c.S3RootUser)
	overlay(&config.S3RootPassword, c.S3RootPassword)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	overlay(&config.RedisAddr, c.RedisAddr)
	overlay(&config.RedisPassword, c.RedisPassword)
	overlay(&config.RedisDB, c.RedisDB)
	overlay(&config.LoginAttempts, c.LoginAttempts)
	overlay(&config.LoginWindow, c.LoginWindow.Duration)
	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}
	overlay(&config.SuperadminEmail, c.SuperadminEmail)
	overlay(&config.SuperadminPassword, c.SuperadminPassword)
	overlay(&config.LogLevel, c.LogLevel)
	overlay(&config.LogFormat, c.LogFormat)
}

func overlay[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}
