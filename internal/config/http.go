package config

import "time"

type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// BusFactorThreshold is used when a request does not pass one
	BusFactorThreshold float64
	Limit              int
	Offset             int
}

func loadHTTPConfig() HTTPConfig {
	return HTTPConfig{
		ReadTimeout:        getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Minute),
		BusFactorThreshold: getEnvFloat("BUS_FACTOR_THRESHOLD", 0.5),
		Limit:              getEnvInt("HTTP_DEFAULT_LIMIT", 20),
		Offset:             getEnvInt("HTTP_DEFAULT_OFFSET", 0),
	}
}
