// Package credentials stores static bearer tokens for inference gateways.
//
// Tokens are kept in credentials.toml in the .igw/ directory, keyed by
// gateway URL. They are used as-is: nothing here refreshes or expires them.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/igw/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0

	// TokenEnvVar overrides any stored token when set.
	TokenEnvVar = "IGW_TOKEN"
)

// Manager manages reading and writing credentials.toml in the .igw/ directory.
type Manager struct {
	ddm        *dotdir.Manager
	targetPath string
}

// NewManager creates a new credentials Manager. If override is non-empty it is
// used as the .igw/ directory; otherwise the standard dotdir resolution applies.
func NewManager(override string) (*Manager, error) {
	mgr := &Manager{}
	mgr.ddm = dotdir.NewManager()

	target, err := mgr.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	mgr.targetPath = filepath.Join(target, credentialsFile)

	return mgr, nil
}

// Load reads credentials.toml from the target directory.
// Returns an empty Credentials if the file does not exist.
func (m *Manager) Load() (*Credentials, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{
				Version:  currentVersion,
				Gateways: make(map[string]GatewayCredential),
			}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	creds := &Credentials{}
	if err := toml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	if creds.Gateways == nil {
		creds.Gateways = make(map[string]GatewayCredential)
	}

	return creds, nil
}

// Save writes credentials to credentials.toml with 0600 permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(m.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// SetToken stores the bearer token for gatewayURL.
func (m *Manager) SetToken(gatewayURL, token string) error {
	key, err := GatewayKey(gatewayURL)
	if err != nil {
		return err
	}
	if token == "" {
		return errors.New("token must not be empty")
	}

	creds, err := m.Load()
	if err != nil {
		return err
	}

	creds.Gateways[key] = GatewayCredential{Token: token}

	return m.Save(creds)
}

// GetToken returns the stored token for gatewayURL, or "" when none is stored.
func (m *Manager) GetToken(gatewayURL string) (string, error) {
	key, err := GatewayKey(gatewayURL)
	if err != nil {
		return "", err
	}

	creds, err := m.Load()
	if err != nil {
		return "", err
	}

	return creds.Gateways[key].Token, nil
}

// RemoveToken deletes the stored token for gatewayURL.
func (m *Manager) RemoveToken(gatewayURL string) error {
	key, err := GatewayKey(gatewayURL)
	if err != nil {
		return err
	}

	creds, err := m.Load()
	if err != nil {
		return err
	}

	delete(creds.Gateways, key)

	return m.Save(creds)
}

// ListGateways returns the gateways that have a stored token, sorted.
func (m *Manager) ListGateways() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	gateways := make([]string, 0, len(creds.Gateways))
	for name := range creds.Gateways {
		gateways = append(gateways, name)
	}

	sort.Strings(gateways)

	return gateways, nil
}

// ResolveToken returns the token to use for gatewayURL: IGW_TOKEN when set,
// otherwise the stored token.
func (m *Manager) ResolveToken(gatewayURL string) (string, error) {
	if token := os.Getenv(TokenEnvVar); token != "" {
		return token, nil
	}
	return m.GetToken(gatewayURL)
}

// GetTarget returns the resolved path to the credentials file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}

// GatewayKey normalizes a gateway URL into the key tokens are stored under:
// lowercase scheme and host, path kept, trailing slash dropped.
func GatewayKey(gatewayURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(gatewayURL))
	if err != nil {
		return "", fmt.Errorf("parsing gateway URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("gateway URL %q must include scheme and host", gatewayURL)
	}

	key := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + strings.TrimRight(u.Path, "/")
	return key, nil
}
