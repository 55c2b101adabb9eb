package keys

import (
	"fmt"
	"os"
	"os/user"

	"gopkg.in/yaml.v3"

	"github.com/extrisk/extrisk/internal/types"
)

// DefaultOrgFile is where fleet-management tooling drops the org policy.
const DefaultOrgFile = "/etc/extrisk/org.yaml"

// Org is the organization policy loaded from a managed file. Its presence
// switches the scanner into org mode: the org credential is used for every
// request and machine identity is attached to the request body.
type Org struct {
	Credential string `yaml:"credential"`
	// Database optionally points scans at a central postgres database
	// instead of the local file.
	Database string `yaml:"database,omitempty"`
}

// LoadOrg reads the org policy from path (or DefaultOrgFile when empty,
// overridable via EXTRISK_ORG_FILE). A missing file means org mode is off
// and returns (nil, nil).
func LoadOrg(path string) (*Org, error) {
	if path == "" {
		path = os.Getenv("EXTRISK_ORG_FILE")
	}
	if path == "" {
		path = DefaultOrgFile
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read org policy: %w", err)
	}

	org := &Org{}
	if err := yaml.Unmarshal(data, org); err != nil {
		return nil, fmt.Errorf("failed to parse org policy %s: %w", path, err)
	}
	if org.Credential == "" {
		return nil, fmt.Errorf("org policy %s has no credential", path)
	}
	return org, nil
}

// Context collects the machine identity attached to org-mode requests.
func (o *Org) Context() *types.OrgContext {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	return &types.OrgContext{Hostname: hostname, Username: username}
}
