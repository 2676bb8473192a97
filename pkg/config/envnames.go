package config

const EnvPrefix = "BOUTIQ"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverSQLite = "sqlite"
	StorageDriverRedis  = "redis"
	StorageDriverMemory = "memory"
)

const (
	EnvAppEnv             = "BOUTIQ_APP_ENV"
	EnvLogLevel           = "BOUTIQ_LOG_LEVEL"
	EnvAPIBaseURL         = "BOUTIQ_API_BASE_URL"
	EnvAPITimeout         = "BOUTIQ_API_TIMEOUT"
	EnvPaymentConfirmPath = "BOUTIQ_API_PAYMENT_CONFIRM_PATH"
	EnvStorageDriver      = "BOUTIQ_STORAGE_DRIVER"
	EnvStorageSQLitePath  = "BOUTIQ_STORAGE_SQLITE_PATH"
	EnvStorageRedisURL    = "BOUTIQ_STORAGE_REDIS_URL"
	EnvMockPort           = "BOUTIQ_MOCK_PORT"
)
