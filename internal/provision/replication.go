package provision

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/dms"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/sitefleet/platform/internal/domain"
)

// Replication holds the declared DMS resources.
type Replication struct {
	Instance      *dms.ReplicationInstance
	SecurityGroup *ec2.SecurityGroup
	Sources       map[string]*dms.Endpoint // keyed by site
	Targets       map[string]*dms.Endpoint // keyed by site
	Rules         []*ec2.SecurityGroupRule
	Tasks         map[string]*dms.ReplicationTask // keyed by site
}

// DeclareReplication declares the replication instance, one source endpoint
// per legacy site, and for each migrated site a target endpoint and a task.
// Ingress rules come from the plan, which holds at most one per target
// security group.
func DeclareReplication(ctx *pulumi.Context, plan *domain.ReplicationPlan, dbs map[string]*Database, cfg StackConfig, tags pulumi.StringMap) (*Replication, error) {
	env := cfg.Planning.Environment

	sg, err := ec2.NewSecurityGroup(ctx, "dms-sg", &ec2.SecurityGroupArgs{
		VpcId:       pulumi.String(cfg.VpcID),
		Description: pulumi.String("replication instance"),
		Egress: ec2.SecurityGroupEgressArray{
			ec2.SecurityGroupEgressArgs{
				Protocol:   pulumi.String("-1"),
				FromPort:   pulumi.Int(0),
				ToPort:     pulumi.Int(0),
				CidrBlocks: pulumi.StringArray{pulumi.String("0.0.0.0/0")},
			},
		},
		Tags: tags,
	})
	if err != nil {
		return nil, fmt.Errorf("replication security group: %w", err)
	}

	instance, err := dms.NewReplicationInstance(ctx, "dms-instance", &dms.ReplicationInstanceArgs{
		ReplicationInstanceId:    pulumi.Sprintf("%s-legacy-replication", env),
		ReplicationInstanceClass: pulumi.String(cfg.DMSInstanceClass),
		AllocatedStorage:         pulumi.Int(50),
		ReplicationSubnetGroupId: pulumi.String(cfg.ReplicationSubnetGroup),
		VpcSecurityGroupIds:      pulumi.StringArray{sg.ID()},
		PubliclyAccessible:       pulumi.Bool(false),
		AutoMinorVersionUpgrade:  pulumi.Bool(true),
		ApplyImmediately:         pulumi.Bool(true),
		Tags:                     tags,
	})
	if err != nil {
		return nil, fmt.Errorf("replication instance: %w", err)
	}

	r := &Replication{
		Instance:      instance,
		SecurityGroup: sg,
		Sources:       make(map[string]*dms.Endpoint, len(plan.Sources)),
		Targets:       make(map[string]*dms.Endpoint, len(plan.Targets)),
		Tasks:         make(map[string]*dms.ReplicationTask, len(plan.Tasks)),
	}

	passwords := map[string]pulumi.StringOutput{}
	for _, ep := range plan.Sources {
		server, ok := plan.Server(ep.Source)
		if !ok {
			return nil, fmt.Errorf("source endpoint %s: unknown legacy server %q", ep.Name, ep.Source)
		}
		pw, ok := passwords[server.PasswordKey]
		if !ok {
			pw, err = cfg.LegacyPassword(server.PasswordKey)
			if err != nil {
				return nil, fmt.Errorf("legacy server %s: %w", server.Identifier, err)
			}
			passwords[server.PasswordKey] = pw
		}

		endpoint, err := dms.NewEndpoint(ctx, ep.Name, &dms.EndpointArgs{
			EndpointId:   pulumi.Sprintf("%s-%s", env, ep.Name),
			EndpointType: pulumi.String("source"),
			EngineName:   pulumi.String(server.Engine),
			ServerName:   pulumi.String(server.Host),
			Port:         pulumi.Int(server.Port),
			Username:     pulumi.String(server.Username),
			Password:     pw,
			DatabaseName: pulumi.String(ep.DatabaseName),
			Tags:         tags,
		})
		if err != nil {
			return nil, fmt.Errorf("source endpoint %s: %w", ep.Name, err)
		}
		r.Sources[ep.Site] = endpoint
	}

	for _, ep := range plan.Targets {
		db, ok := dbs[ep.Mapping.BackendIdentifier]
		if !ok {
			return nil, fmt.Errorf("target endpoint %s: backend %s was not declared", ep.Name, ep.Mapping.BackendIdentifier)
		}
		endpoint, err := dms.NewEndpoint(ctx, ep.Name, &dms.EndpointArgs{
			EndpointId:   pulumi.Sprintf("%s-%s", env, ep.Name),
			EndpointType: pulumi.String("target"),
			EngineName:   pulumi.String(databaseEngine),
			ServerName:   db.Instance.Address,
			Port:         db.Instance.Port,
			Username:     pulumi.String(databaseUsername),
			Password:     db.Password.Result,
			DatabaseName: pulumi.String(ep.Mapping.DatabaseName),
			Tags:         tags,
		})
		if err != nil {
			return nil, fmt.Errorf("target endpoint %s: %w", ep.Name, err)
		}
		r.Targets[ep.Site] = endpoint
	}

	for _, rule := range plan.IngressRules {
		db, ok := dbs[rule.SecurityGroupKey]
		if !ok {
			return nil, fmt.Errorf("ingress rule %s: no security group %s", rule.Name, rule.SecurityGroupKey)
		}
		sgr, err := ec2.NewSecurityGroupRule(ctx, rule.Name, &ec2.SecurityGroupRuleArgs{
			Type:                  pulumi.String("ingress"),
			Protocol:              pulumi.String("tcp"),
			FromPort:              pulumi.Int(mysqlPort),
			ToPort:                pulumi.Int(mysqlPort),
			SecurityGroupId:       db.SecurityGroup.ID(),
			SourceSecurityGroupId: sg.ID(),
			Description:           pulumi.Sprintf("replication into %s", rule.SecurityGroupKey),
		})
		if err != nil {
			return nil, fmt.Errorf("ingress rule %s: %w", rule.Name, err)
		}
		r.Rules = append(r.Rules, sgr)
	}

	for _, t := range plan.Tasks {
		task, err := dms.NewReplicationTask(ctx, t.Name, &dms.ReplicationTaskArgs{
			ReplicationTaskId:      pulumi.Sprintf("%s-%s", env, t.Name),
			MigrationType:          pulumi.String("full-load-and-cdc"),
			ReplicationInstanceArn: instance.ReplicationInstanceArn,
			SourceEndpointArn:      r.Sources[t.Site].EndpointArn,
			TargetEndpointArn:      r.Targets[t.Site].EndpointArn,
			TableMappings:          pulumi.String(t.TableMappings),
			Tags:                   tags,
		})
		if err != nil {
			return nil, fmt.Errorf("replication task %s: %w", t.Name, err)
		}
		r.Tasks[t.Site] = task
	}

	return r, nil
}

// replicationExports maps every migrated site to the backend its data lands
// on: {serverEndpoint, port, databaseName, secretName, securityGroupId,
// backend, taskArn}. secretName holds the credentials.
func replicationExports(plan *domain.ReplicationPlan, r *Replication, dbs map[string]*Database) pulumi.Map {
	schemas := make(map[string]string, len(plan.Sources))
	for _, ep := range plan.Sources {
		schemas[ep.Site] = ep.DatabaseName
	}

	out := pulumi.Map{}
	for _, ep := range plan.Targets {
		db := dbs[ep.Mapping.BackendIdentifier]
		out[ep.Site] = pulumi.Map{
			"serverEndpoint":  db.Instance.Address,
			"port":            db.Instance.Port,
			"databaseName":    pulumi.String(domain.TargetSchema(schemas[ep.Site])),
			"secretName":      pulumi.String(ep.Mapping.SecretName),
			"securityGroupId": db.SecurityGroup.ID(),
			"backend":         pulumi.String(ep.Mapping.BackendIdentifier),
			"taskArn":         r.Tasks[ep.Site].ReplicationTaskArn,
		}
	}
	return out
}
