package config

const (
	EnvPrefix = "GALATA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvAppEnv       = "GALATA_APP_ENV"
	EnvPort         = "GALATA_APP_PORT"
	EnvDBDSN        = "GALATA_DB_DSN"
	EnvDBHost       = "GALATA_DB_HOST"
	EnvDBUser       = "GALATA_DB_USER"
	EnvDBName       = "GALATA_DB_NAME"
	EnvRedisURL     = "GALATA_REDIS_URL"
	EnvUseSQLite    = "GALATA_USE_SQLITE"
	EnvUploadsDir   = "GALATA_UPLOADS_DIR"
	EnvMaxUploadMB  = "GALATA_MAX_UPLOAD_MB"
	EnvSyncInterval = "GALATA_SYNC_INTERVAL"
	EnvSyncTimeZone = "GALATA_SYNC_TIMEZONE"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
