package ingest

import (
	"embed"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all grant sources.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig defines a single grant source.
type SourceConfig struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Region      string   `yaml:"region"`
	Country     string   `yaml:"country"`
	Strategy    string   `yaml:"strategy"` // "api_grants_gov", "scrape_amber", "html_generic"
	BaseURL     string   `yaml:"base_url,omitempty"`
	APIKey      string   `yaml:"api_key,omitempty"`
	Seeds       []string `yaml:"seed_urls,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty"`
	Enabled     bool     `yaml:"enabled"`
	Description string   `yaml:"description,omitempty"`

	Fetch FetchConfig `yaml:"fetch,omitempty"`

	// For the generic HTML strategy.
	Selectors SelectorConfig `yaml:"selectors,omitempty"`
	MaxPages  int            `yaml:"max_pages,omitempty"`
}

// SelectorConfig defines CSS selectors for HTML listing sources.
type SelectorConfig struct {
	Container   string `yaml:"container,omitempty"` // list item wrapper
	Link        string `yaml:"link,omitempty"`
	LinkAttr    string `yaml:"link_attr,omitempty"` // default: href
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
	Deadline    string `yaml:"deadline,omitempty"`
	Amount      string `yaml:"amount,omitempty"`
	Pagination  string `yaml:"pagination,omitempty"` // next page link
}

// LoadRegistry reads the embedded sources.yaml, falling back to the
// filesystem path for local development. Environment variables inside
// the YAML (e.g. ${GRANTS_GOV_API_KEY}) are expanded before parsing.
func LoadRegistry(path string) (*Registry, error) {
	data, err := sourcesYAML.ReadFile("config/sources.yaml")
	if err != nil {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, err
	}

	return &reg, nil
}

// Enabled returns the subset of sources marked enabled.
func (r *Registry) Enabled() []SourceConfig {
	out := []SourceConfig{}
	for _, sc := range r.Sources {
		if sc.Enabled {
			out = append(out, sc)
		}
	}
	return out
}

// Find returns the source config with the given ID.
func (r *Registry) Find(id string) (SourceConfig, bool) {
	for _, sc := range r.Sources {
		if sc.ID == id {
			return sc, true
		}
	}
	return SourceConfig{}, false
}

// BuildSources instantiates a Source for every enabled registry entry.
// Unknown strategies are an error so that config typos surface early.
func BuildSources(reg *Registry, logger *zap.Logger) ([]Source, error) {
	sources := []Source{}
	for _, sc := range reg.Enabled() {
		switch sc.Strategy {
		case "api_grants_gov":
			sources = append(sources, NewGrantsGovSource(sc, logger))
		case "scrape_amber":
			sources = append(sources, NewAmberGrantSource(sc, logger))
		case "html_generic":
			sources = append(sources, NewHTMLSource(sc, logger))
		default:
			return nil, fmt.Errorf("source %s: unknown strategy %q", sc.ID, sc.Strategy)
		}
	}
	return sources, nil
}
