package git

// Filesystem modes used when materializing clones under the storage root
const (
	RootDirPerm = 0o755

	// redactedSecret replaces secrets wherever credentials are printed
	redactedSecret = "<redacted>"

	defaultTokenUsername = "oauth2"
	defaultSSHUser       = "git"
)
