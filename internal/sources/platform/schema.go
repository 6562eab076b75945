package platform

// DomainEntry is one domain in the platform file.
type DomainEntry struct {
	Name   string `yaml:"name"`
	ZoneID string `yaml:"zoneId"`
}

// SiteEntry is one site inside a bundle.
type SiteEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// LegacySiteEntry is a site hosted on a legacy server.
type LegacySiteEntry struct {
	Name   string `yaml:"name"`
	Schema string `yaml:"schema,omitempty"`
}

// LegacySourceEntry is a legacy database server feeding replication.
type LegacySourceEntry struct {
	Identifier  string            `yaml:"identifier"`
	Engine      string            `yaml:"engine"`
	Host        string            `yaml:"host"`
	Port        int               `yaml:"port"`
	Username    string            `yaml:"username"`
	PasswordKey string            `yaml:"passwordKey"`
	Sites       []LegacySiteEntry `yaml:"sites"`
}

// File is the root structure of platform.yaml.
//
// Website domains come first, admin domains after them; the concatenated
// order is the registry order.
type File struct {
	WebsiteDomains []DomainEntry       `yaml:"websiteDomains"`
	AdminDomains   []DomainEntry       `yaml:"adminDomains"`
	SiteBundles    [][]SiteEntry       `yaml:"siteBundles"`
	LegacySources  []LegacySourceEntry `yaml:"legacySources"`
}
