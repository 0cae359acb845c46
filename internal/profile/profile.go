package profile

import (
	"embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed config/company.yaml
var companyYAML embed.FS

// Owner describes one individual owner of the company.
type Owner struct {
	Name                string  `yaml:"name"`
	Title               string  `yaml:"title"`
	Bio                 string  `yaml:"bio,omitempty"`
	IsWoman             bool    `yaml:"is_woman"`
	IsPOC               bool    `yaml:"is_poc"`
	OwnershipPercentage float64 `yaml:"ownership_percentage"`
}

// Company is the full applicant profile used for eligibility matching and
// application auto-fill.
type Company struct {
	LegalName  string `yaml:"legal_name"`
	DBAName    string `yaml:"dba_name,omitempty"`
	EntityType string `yaml:"entity_type"`
	EIN        string `yaml:"ein,omitempty"`
	DUNS       string `yaml:"duns,omitempty"`
	CageCode   string `yaml:"cage_code,omitempty"`

	AddressStreet  string `yaml:"address_street,omitempty"`
	AddressCity    string `yaml:"address_city"`
	AddressState   string `yaml:"address_state"`
	AddressZip     string `yaml:"address_zip,omitempty"`
	AddressCountry string `yaml:"address_country"`

	FoundingDate  time.Time `yaml:"founding_date"`
	NAICSCodes    []string  `yaml:"naics_codes"`
	SICCodes      []string  `yaml:"sic_codes,omitempty"`
	Website       string    `yaml:"website,omitempty"`
	Phone         string    `yaml:"phone,omitempty"`
	Email         string    `yaml:"email,omitempty"`
	FiscalYearEnd string    `yaml:"fiscal_year_end,omitempty"`

	EmployeeCount int     `yaml:"employee_count"`
	AnnualRevenue float64 `yaml:"annual_revenue"`

	Owners                  []Owner `yaml:"owners,omitempty"`
	WomanOwnedPercentage    float64 `yaml:"woman_owned_percentage"`
	MinorityOwnedPercentage float64 `yaml:"minority_owned_percentage"`
	VeteranOwned            bool    `yaml:"veteran_owned"`
	DisabledVeteranOwned    bool    `yaml:"disabled_veteran_owned"`

	Certifications []string `yaml:"certifications"`

	MissionStatement     string   `yaml:"mission_statement,omitempty"`
	CompanyDescription   string   `yaml:"company_description,omitempty"`
	ProductsServices     string   `yaml:"products_services,omitempty"`
	TargetMarket         string   `yaml:"target_market,omitempty"`
	CompetitiveAdvantage string   `yaml:"competitive_advantage,omitempty"`
	UseOfFunds           []string `yaml:"use_of_funds,omitempty"`
	GrowthGoals          string   `yaml:"growth_goals,omitempty"`
	ImpactStatement      string   `yaml:"impact_statement,omitempty"`
}

// Eligibility is the flattened, read-only snapshot the matcher consumes.
// It is constructed once per matching pass and never mutated.
type Eligibility struct {
	City    string
	State   string
	Country string

	EmployeeCount int
	AnnualRevenue float64

	WomanOwned              bool
	WomanOwnedPercentage    float64
	MinorityOwned           bool
	MinorityOwnedPercentage float64
	VeteranOwned            bool
	DisabledVeteranOwned    bool

	NAICSCodes      []string
	EntityType      string
	Certifications  []string
	YearsInBusiness int
}

// Eligibility flattens the company profile into matching attributes.
// Years in business is derived from the founding date against now.
func (c *Company) Eligibility(now time.Time) Eligibility {
	years := 0
	if !c.FoundingDate.IsZero() {
		years = int(now.Sub(c.FoundingDate).Hours() / 24 / 365)
	}
	return Eligibility{
		City:                    c.AddressCity,
		State:                   c.AddressState,
		Country:                 c.AddressCountry,
		EmployeeCount:           c.EmployeeCount,
		AnnualRevenue:           c.AnnualRevenue,
		WomanOwned:              c.WomanOwnedPercentage > 0,
		WomanOwnedPercentage:    c.WomanOwnedPercentage,
		MinorityOwned:           c.MinorityOwnedPercentage > 0,
		MinorityOwnedPercentage: c.MinorityOwnedPercentage,
		VeteranOwned:            c.VeteranOwned,
		DisabledVeteranOwned:    c.DisabledVeteranOwned,
		NAICSCodes:              append([]string(nil), c.NAICSCodes...),
		EntityType:              c.EntityType,
		Certifications:          append([]string(nil), c.Certifications...),
		YearsInBusiness:         years,
	}
}

// HasCertification reports whether the snapshot holds the named
// certification, case-sensitively (catalog names are canonical).
func (e Eligibility) HasCertification(name string) bool {
	for _, c := range e.Certifications {
		if c == name {
			return true
		}
	}
	return false
}

// Load reads a company profile YAML from path. When path is empty the
// embedded default profile is used. Environment variables inside the file
// are expanded before parsing, matching the source registry behavior.
func Load(path string) (*Company, error) {
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading profile %s: %w", path, err)
		}
	} else {
		data, err = companyYAML.ReadFile("config/company.yaml")
		if err != nil {
			return nil, fmt.Errorf("reading embedded profile: %w", err)
		}
	}

	expanded := os.ExpandEnv(string(data))

	var c Company
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	if c.AddressState == "" || c.AddressCountry == "" {
		return nil, fmt.Errorf("profile is missing a jurisdiction (state/country)")
	}
	return &c, nil
}
