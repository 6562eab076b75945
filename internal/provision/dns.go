package provision

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/route53"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/sitefleet/platform/internal/domain"
)

// DNS declares an alias A record per hostname pointing at the ingress load balancer.
func DNS(ctx *pulumi.Context, records []domain.DNSRecord, cfg StackConfig) ([]*route53.Record, error) {
	out := make([]*route53.Record, 0, len(records))
	for _, rec := range records {
		r, err := route53.NewRecord(ctx, "dns-"+rec.Hostname, &route53.RecordArgs{
			ZoneId: pulumi.String(rec.ZoneID),
			Name:   pulumi.String(rec.Hostname),
			Type:   pulumi.String("A"),
			Aliases: route53.RecordAliasArray{
				route53.RecordAliasArgs{
					Name:                 pulumi.String(cfg.IngressHostname),
					ZoneId:               pulumi.String(cfg.IngressZoneID),
					EvaluateTargetHealth: pulumi.Bool(true),
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("dns record %s: %w", rec.Hostname, err)
		}
		out = append(out, r)
	}
	return out, nil
}
