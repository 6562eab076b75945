package provision

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/acm"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/sitefleet/platform/internal/domain"
)

// Certificates declares one DNS-validated certificate per group, in group order.
func Certificates(ctx *pulumi.Context, batch *domain.CertificateBatch, tags pulumi.StringMap) ([]*acm.Certificate, error) {
	certs := make([]*acm.Certificate, 0, len(batch.Groups))
	for _, g := range batch.Groups {
		cert, err := acm.NewCertificate(ctx, fmt.Sprintf("cert-%d", g.Index), &acm.CertificateArgs{
			DomainName:              pulumi.String(g.Subject),
			SubjectAlternativeNames: pulumi.ToStringArray(g.AlternativeNames),
			ValidationMethod:        pulumi.String("DNS"),
			Tags:                    tags,
		})
		if err != nil {
			return nil, fmt.Errorf("certificate group %d: %w", g.Index, err)
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// certificateArns collects the ARNs in group order.
func certificateArns(certs []*acm.Certificate) pulumi.StringArray {
	arns := make(pulumi.StringArray, 0, len(certs))
	for _, c := range certs {
		arns = append(arns, c.Arn)
	}
	return arns
}
