package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/formkeeper/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variable names understood by parseEnv.
const (
	EnvHTTPAddr        = "FORMKEEPER_HTTP_ADDR"
	EnvGRPCAddr        = "FORMKEEPER_GRPC_ADDR"
	EnvDatabaseDSN     = "FORMKEEPER_DATABASE_DSN"
	EnvSecretKey       = "FORMKEEPER_SECRET_KEY"
	EnvSessionValidity = "FORMKEEPER_SESSION_VALIDITY"
	EnvDataDir         = "FORMKEEPER_DATA_DIR"
	EnvSQLiteDSN       = "FORMKEEPER_SQLITE_DSN"
	EnvLogLevel        = "FORMKEEPER_LOG_LEVEL"
	EnvS3RootUser      = "FORMKEEPER_S3_ROOT_USER"
	EnvS3RootPassword  = "FORMKEEPER_S3_ROOT_PASSWORD"
	EnvS3Bucket        = "FORMKEEPER_S3_BUCKET"
	EnvS3Region        = "FORMKEEPER_S3_REGION"
	EnvS3BaseEndpoint  = "FORMKEEPER_S3_BASE_ENDPOINT"
)

const defaultEnvFile = ".env"

// loadDotEnv is a seam for godotenv.Load.
var loadDotEnv = godotenv.Load

// parseEnv loads a dotenv file into the process environment and overlays
// config with FORMKEEPER_* variables. The file comes from -env / -envfile;
// without the flag a ".env" in the working directory is used when present.
// Variables already set in the environment win over the file.
//
// An explicitly named file that cannot be loaded panics, like a broken JSON
// config does. A malformed FORMKEEPER_SESSION_VALIDITY panics too.
func parseEnv(config *Config) {
	if envFile := flagx.EnvFileFlags(); envFile != "" {
		if err := loadDotEnv(envFile); err != nil {
			panic(err)
		}
	} else if _, err := os.Stat(defaultEnvFile); err == nil {
		if err := loadDotEnv(defaultEnvFile); err != nil {
			panic(err)
		}
	}

	envString(&config.EndpointAddrHTTP, EnvHTTPAddr)
	envString(&config.EndpointAddrGRPC, EnvGRPCAddr)
	envString(&config.DatabaseDSN, EnvDatabaseDSN)
	envString(&config.SecretKey, EnvSecretKey)
	if v, ok := os.LookupEnv(EnvSessionValidity); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.SessionValidityDuration = d
	}
	envString(&config.DataDir, EnvDataDir)
	envString(&config.SQLiteDSN, EnvSQLiteDSN)
	envString(&config.LogLevel, EnvLogLevel)
	envString(&config.S3RootUser, EnvS3RootUser)
	envString(&config.S3RootPassword, EnvS3RootPassword)
	envString(&config.S3Bucket, EnvS3Bucket)
	envString(&config.S3Region, EnvS3Region)
	envString(&config.S3BaseEndpoint, EnvS3BaseEndpoint)
}

func envString(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = v
	}
}
