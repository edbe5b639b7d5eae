package git

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Reference identifies a remote repository and the directory, relative to the
// storage root, where its local clone lives.
type Reference struct {
	SourceURI   string
	LocalName   string
	Credentials Credentials
}

// CloneOptions is layered on top of a Reference by AcquireBare.
type CloneOptions struct {
	Bare bool
	// Credentials, when set, replace the Reference credentials.
	Credentials Credentials
	// Branches limits the clone to the named branches. The first one becomes HEAD.
	Branches []string
}

// Credentials is one of NoCredentials, UsernameSecret or ExternalProvider.
type Credentials interface {
	authMethod(ctx context.Context, sourceURI string) (transport.AuthMethod, error)
}

// AuthProvider supplies a transport credential for a source URI at clone time.
type AuthProvider interface {
	AuthMethod(ctx context.Context, sourceURI string) (transport.AuthMethod, error)
}

// NoCredentials clones anonymously.
type NoCredentials struct{}

func (NoCredentials) authMethod(context.Context, string) (transport.AuthMethod, error) {
	return nil, nil
}

// UsernameSecret authenticates with a username and a password, OAuth token or
// personal access token.
type UsernameSecret struct {
	Username string
	Secret   string
}

func (c UsernameSecret) authMethod(_ context.Context, sourceURI string) (transport.AuthMethod, error) {
	ep, err := transport.NewEndpoint(sourceURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if ep.Protocol == "ssh" {
		return &ssh.Password{User: c.Username, Password: c.Secret}, nil
	}
	return &http.BasicAuth{Username: c.Username, Password: c.Secret}, nil
}

func (c UsernameSecret) String() string {
	return fmt.Sprintf("%s:%s", c.Username, redactedSecret)
}

// MarshalZerologObject keeps the secret out of structured logs.
func (c UsernameSecret) MarshalZerologObject(e *zerolog.Event) {
	e.Str("username", c.Username).Str("secret", redactedSecret)
}

// ExternalProvider delegates credential lookup to a pluggable provider.
type ExternalProvider struct {
	Provider AuthProvider
}

func (c ExternalProvider) authMethod(ctx context.Context, sourceURI string) (transport.AuthMethod, error) {
	if c.Provider == nil {
		return nil, nil
	}
	auth, err := c.Provider.AuthMethod(ctx, sourceURI)
	if err != nil {
		return nil, fmt.Errorf("%w: credential provider: %w", ErrAuthentication, err)
	}
	return auth, nil
}

// TokenSourceProvider sends an OAuth2 access token as the HTTP basic auth
// password. GitHub and GitLab accept any non-empty username with a token.
type TokenSourceProvider struct {
	Username string
	Source   oauth2.TokenSource
}

func (p *TokenSourceProvider) AuthMethod(_ context.Context, _ string) (transport.AuthMethod, error) {
	token, err := p.Source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain token: %w", err)
	}
	username := p.Username
	if username == "" {
		username = defaultTokenUsername
	}
	return &http.BasicAuth{Username: username, Password: token.AccessToken}, nil
}

// SSHKeyProvider authenticates ssh:// and scp-like URIs with a private key file.
type SSHKeyProvider struct {
	User       string
	KeyPath    string
	Passphrase string
}

func (p *SSHKeyProvider) AuthMethod(_ context.Context, _ string) (transport.AuthMethod, error) {
	user := p.User
	if user == "" {
		user = defaultSSHUser
	}
	keys, err := ssh.NewPublicKeysFromFile(user, p.KeyPath, p.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load ssh key %s: %w", p.KeyPath, err)
	}
	return keys, nil
}

// IsSSH reports whether sourceURI is reached over the ssh transport,
// including scp-like "user@host:path" addresses.
func IsSSH(sourceURI string) bool {
	ep, err := transport.NewEndpoint(sourceURI)
	return err == nil && ep.Protocol == "ssh"
}

func resolveAuth(ctx context.Context, creds Credentials, sourceURI string) (transport.AuthMethod, error) {
	if creds == nil {
		return nil, nil
	}
	return creds.authMethod(ctx, sourceURI)
}

// RedactURL masks any password embedded in the source URI. Use it before a
// URI is logged or stored.
func RedactURL(sourceURI string) string {
	u, err := url.Parse(sourceURI)
	if err != nil || u.User == nil {
		return sourceURI
	}
	return u.Redacted()
}

// SplitCredentials removes a username and password embedded in sourceURI.
// The second result is nil when the URI carries no password; the URI is then
// returned unchanged.
func SplitCredentials(sourceURI string) (string, *UsernameSecret) {
	u, err := url.Parse(sourceURI)
	if err != nil {
		return sourceURI, nil
	}
	secret, ok := u.User.Password()
	if !ok {
		return sourceURI, nil
	}
	creds := &UsernameSecret{Username: u.User.Username(), Secret: secret}
	u.User = nil
	return u.String(), creds
}
