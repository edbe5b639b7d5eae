package config

// StorageConfig describes where local clones live and how they are fetched
type StorageConfig struct {
	// Root is the permanent directory every local name is resolved against
	Root          string
	SSHKeyPath    string
	SSHPassphrase string
	// Progress streams clone progress to stdout
	Progress bool
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Root:          getEnv("GIT_STORAGE_PATH", "/var/lib/git-manager/repos"),
		SSHKeyPath:    getEnv("GIT_SSH_KEY_PATH", ""),
		SSHPassphrase: getEnv("GIT_SSH_KEY_PASSPHRASE", ""),
		Progress:      getEnvBool("GIT_CLONE_PROGRESS", false),
	}
}
