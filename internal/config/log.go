package config

type LogConfig struct {
	Level  string
	Pretty bool
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Pretty: getEnvBool("LOG_PRETTY", false),
	}
}
