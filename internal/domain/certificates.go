package domain

import "fmt"

const (
	// CertificateChunkSize is the number of domains covered by one certificate.
	// Each domain contributes its name and its wildcard, so five domains use
	// the full name budget of an ACM certificate.
	CertificateChunkSize = 5

	// MaxCertificateNames is the ACM limit on names per certificate
	// (subject + alternative names).
	MaxCertificateNames = 10
)

// CertificateGroup is one certificate request covering a contiguous chunk of
// the domain list.
type CertificateGroup struct {
	// Index is the position of the chunk; group i covers domains [i*k, i*k+k).
	Index int `json:"index"`

	// Domains are the registry entries covered by this certificate.
	Domains []Domain `json:"domains"`

	// Subject is the certificate's primary name: {subdomain.}Domains[0].
	Subject string `json:"subject"`

	// AlternativeNames holds the plain names of members 1..n-1 and the
	// wildcard of every member. len == 2*len(Domains)-1.
	AlternativeNames []string `json:"alternative_names"`
}

// CertificateBatch is the result of partitioning the registry into certificates.
type CertificateBatch struct {
	Groups []CertificateGroup `json:"groups"`

	// Hostnames is the flattened {subdomain.}domain list across all groups,
	// consumed by ingress routing and DNS records.
	Hostnames []string `json:"hostnames"`
}

// ValidateChunkSize reports whether chunkSize keeps every certificate within
// MaxCertificateNames.
func ValidateChunkSize(chunkSize int) error {
	if chunkSize < 1 {
		return fmt.Errorf("%w: %d must be positive", ErrInvalidChunkSize, chunkSize)
	}
	if names := 2 * chunkSize; names > MaxCertificateNames {
		return fmt.Errorf("%w: %d domains need %d names, limit is %d",
			ErrInvalidChunkSize, chunkSize, names, MaxCertificateNames)
	}
	return nil
}

// Hostname returns {subdomain.}name.
func Hostname(subdomain, name string) string {
	if subdomain == "" {
		return name
	}
	return subdomain + "." + name
}

// BatchCertificates slices domains into contiguous chunks of chunkSize (the
// last chunk may be shorter) and derives subject and alternative names for
// each chunk.
func BatchCertificates(domains []Domain, subdomain string, chunkSize int) (*CertificateBatch, error) {
	if err := ValidateChunkSize(chunkSize); err != nil {
		return nil, err
	}

	batch := &CertificateBatch{
		Groups:    make([]CertificateGroup, 0, (len(domains)+chunkSize-1)/chunkSize),
		Hostnames: make([]string, 0, len(domains)),
	}

	for start := 0; start < len(domains); start += chunkSize {
		end := min(start+chunkSize, len(domains))
		chunk := domains[start:end]

		group := CertificateGroup{
			Index:            len(batch.Groups),
			Domains:          append([]Domain(nil), chunk...),
			Subject:          Hostname(subdomain, chunk[0].Name),
			AlternativeNames: make([]string, 0, 2*len(chunk)-1),
		}

		for i, d := range chunk {
			host := Hostname(subdomain, d.Name)
			if i > 0 {
				group.AlternativeNames = append(group.AlternativeNames, host)
			}
			group.AlternativeNames = append(group.AlternativeNames, "*."+host)
			batch.Hostnames = append(batch.Hostnames, host)
		}

		batch.Groups = append(batch.Groups, group)
	}

	return batch, nil
}
