package config

type StorageConfig interface {
	GetStorageDriver() string
	GetDatabaseDSN() string
	GetSQLitePath() string
	GetRevocationDriver() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Storage struct {
	Driver           string `env:"STORAGE_DRIVER" envDefault:"memory"`
	DatabaseDSN      string `env:"DATABASE_DSN"`
	SQLitePath       string `env:"SQLITE_PATH" envDefault:"./data/auth.db"`
	RevocationDriver string `env:"REVOCATION_DRIVER" envDefault:"memory"`
	RedisAddr        string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword    string `env:"REDIS_PASSWORD"`
	RedisDB          int    `env:"REDIS_DB" envDefault:"0"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetStorageDriver() string {
	return s.Driver
}

func (s Storage) GetDatabaseDSN() string {
	return s.DatabaseDSN
}

func (s Storage) GetSQLitePath() string {
	return s.SQLitePath
}

func (s Storage) GetRevocationDriver() string {
	return s.RevocationDriver
}

func (s Storage) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Storage) GetRedisPassword() string {
	return s.RedisPassword
}

func (s Storage) GetRedisDB() int {
	return s.RedisDB
}
