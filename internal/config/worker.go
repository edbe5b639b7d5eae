package config

import (
	"time"
)

type WorkerConfig struct {
	Concurrency int
	PopTimeout  time.Duration
	// ReportDays is the default window of report jobs that do not set one
	ReportDays int
}

func loadWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Concurrency: getEnvInt("WORKER_CONCURRENCY", 5),
		PopTimeout:  getEnvDuration("WORKER_POP_TIMEOUT", 5*time.Second),
		ReportDays:  getEnvInt("REPORT_DAYS", 30),
	}
}
