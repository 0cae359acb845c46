// Package certs holds the business certification catalog: programs the
// company holds or could pursue, and the subset whose absence hard-blocks
// a grant application.
package certs

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marv-media/grant-finder/internal/profile"
)

//go:embed config/catalog.yaml
var catalogYAML embed.FS

// Type classifies the certifying authority.
type Type string

const (
	TypeFederal Type = "federal"
	TypeState   Type = "state"
	TypeLocal   Type = "local"
	TypePrivate Type = "private"
)

// Status tracks an application through its lifecycle.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
	StatusApproved   Status = "approved"
	StatusDenied     Status = "denied"
	StatusExpired    Status = "expired"
)

// Certification describes one certification program.
type Certification struct {
	Name           string   `yaml:"name"`
	FullName       string   `yaml:"full_name"`
	Type           Type     `yaml:"type"`
	Description    string   `yaml:"description,omitempty"`
	Benefits       []string `yaml:"benefits,omitempty"`
	Requirements   []string `yaml:"requirements,omitempty"`
	ApplicationURL string   `yaml:"application_url,omitempty"`
	EstimatedTime  string   `yaml:"estimated_time,omitempty"`
	Cost           string   `yaml:"cost,omitempty"`
	RenewalPeriod  string   `yaml:"renewal_period,omitempty"`

	// Priority 1 is highest.
	Priority int    `yaml:"priority,omitempty"`
	Notes    string `yaml:"eligibility_notes,omitempty"`

	// HardRequirement marks programs a grant may demand that cannot be
	// acquired within an application cycle; missing one disqualifies.
	HardRequirement bool `yaml:"hard_requirement,omitempty"`

	Status Status `yaml:"status,omitempty"`
}

// Catalog is the full set of known certification programs.
type Catalog struct {
	Certifications []Certification `yaml:"certifications"`
}

// Load reads a catalog YAML from path, falling back to the embedded
// default when path is empty.
func Load(path string) (*Catalog, error) {
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog %s: %w", path, err)
		}
	} else {
		data, err = catalogYAML.ReadFile("config/catalog.yaml")
		if err != nil {
			return nil, fmt.Errorf("reading embedded catalog: %w", err)
		}
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	for i := range cat.Certifications {
		if cat.Certifications[i].Status == "" {
			cat.Certifications[i].Status = StatusNotStarted
		}
	}
	return &cat, nil
}

// HardRequirements returns the names of programs whose absence
// disqualifies a grant outright. Fed to the matcher as configuration.
func (c *Catalog) HardRequirements() []string {
	var names []string
	for _, cert := range c.Certifications {
		if cert.HardRequirement {
			names = append(names, cert.Name)
		}
	}
	return names
}

// Get looks a certification up by name, case-insensitively.
func (c *Catalog) Get(name string) (Certification, bool) {
	for _, cert := range c.Certifications {
		if strings.EqualFold(cert.Name, name) {
			return cert, true
		}
	}
	return Certification{}, false
}

// Recommended filters the catalog to programs the company does not hold
// yet, ordered as listed (the catalog encodes priority ordering).
func (c *Catalog) Recommended(attrs profile.Eligibility) []Certification {
	var out []Certification
	for _, cert := range c.Certifications {
		if attrs.HasCertification(cert.Name) {
			continue
		}
		out = append(out, cert)
	}
	return out
}
