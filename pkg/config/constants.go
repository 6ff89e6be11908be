package config

const (
	EnvPrefix = "FORKLINE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv     = "FORKLINE_APP_ENV"
	EnvPort       = "FORKLINE_APP_PORT"
	EnvDBDSN      = "FORKLINE_DB_DSN"
	EnvDBHost     = "FORKLINE_DB_HOST"
	EnvDBUser     = "FORKLINE_DB_USER"
	EnvDBName     = "FORKLINE_DB_NAME"
	EnvRedisURL   = "FORKLINE_REDIS_URL"
	EnvJWTSecret  = "FORKLINE_JWT_SECRET"
	EnvJWTIssuer  = "FORKLINE_JWT_ISSUER"
	EnvJWTExpMins = "FORKLINE_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
