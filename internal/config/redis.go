package config

type RedisConfig struct {
	// Enabled turns on background jobs in the API
	Enabled   bool
	Address   string
	Username  string
	Password  string
	DB        int
	UseTLS    bool
	QueueName string
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:   getEnvBool("REDIS_ENABLED", true),
		Address:   getEnv("REDIS_ADDR", "localhost:6379"),
		Username:  getEnv("REDIS_USERNAME", ""),
		Password:  getEnv("REDIS_PASSWORD", ""),
		DB:        getEnvInt("REDIS_DB", 0),
		UseTLS:    getEnvBool("REDIS_TLS", false),
		QueueName: getEnv("REDIS_QUEUE_NAME", "git_manager_jobs"),
	}
}
