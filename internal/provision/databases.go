package provision

import (
	"encoding/json"
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/rds"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/secretsmanager"
	"github.com/pulumi/pulumi-random/sdk/v4/go/random"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/sitefleet/platform/internal/domain"
)

const (
	mysqlPort        = 3306
	databaseEngine   = "mysql"
	databaseVersion  = "8.0"
	databaseUsername = "sitefleet"
)

// Database is the set of resources behind one backend identifier.
type Database struct {
	Backend       domain.Backend
	SecretName    string
	SecurityGroup *ec2.SecurityGroup
	Password      *random.RandomPassword
	Instance      *rds.Instance
	Secret        *secretsmanager.Secret
}

// connectionInfo is the JSON stored in each backend's secret.
type connectionInfo struct {
	Engine    string   `json:"engine"`
	Host      string   `json:"host"`
	Port      int      `json:"port"`
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Backend   string   `json:"backend"`
	Databases []string `json:"databases"`
}

// Databases declares one database per backend and returns them keyed by
// backend identifier, which is also the security group key of every site
// on it.
func Databases(ctx *pulumi.Context, assignment *domain.Assignment, cfg StackConfig, tags pulumi.StringMap) (map[string]*Database, error) {
	env := cfg.Planning.Environment
	out := make(map[string]*Database, len(assignment.Backends))

	for _, b := range assignment.Backends {
		db, err := declareDatabase(ctx, env, b, cfg, tags)
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", b.Identifier, err)
		}
		out[b.Identifier] = db
	}
	return out, nil
}

func declareDatabase(ctx *pulumi.Context, env string, b domain.Backend, cfg StackConfig, tags pulumi.StringMap) (*Database, error) {
	id := b.Identifier
	backendTags := withTags(tags, pulumi.StringMap{"Backend": pulumi.String(id)})

	sg, err := ec2.NewSecurityGroup(ctx, "db-sg-"+id, &ec2.SecurityGroupArgs{
		VpcId:       pulumi.String(cfg.VpcID),
		Description: pulumi.Sprintf("database access for %s", id),
		Tags:        backendTags,
	})
	if err != nil {
		return nil, err
	}

	password, err := random.NewRandomPassword(ctx, "db-password-"+id, &random.RandomPasswordArgs{
		Length:  pulumi.Int(32),
		Special: pulumi.Bool(false),
	})
	if err != nil {
		return nil, err
	}

	instance, err := rds.NewInstance(ctx, "db-"+id, &rds.InstanceArgs{
		Identifier:              pulumi.Sprintf("%s-%s", env, id),
		Engine:                  pulumi.String(databaseEngine),
		EngineVersion:           pulumi.String(databaseVersion),
		InstanceClass:           pulumi.String(cfg.DBInstanceClass),
		AllocatedStorage:        pulumi.Int(20),
		MaxAllocatedStorage:     pulumi.Int(200),
		StorageEncrypted:        pulumi.Bool(true),
		DbSubnetGroupName:       pulumi.String(cfg.DBSubnetGroup),
		VpcSecurityGroupIds:     pulumi.StringArray{sg.ID()},
		Username:                pulumi.String(databaseUsername),
		Password:                password.Result,
		BackupRetentionPeriod:   pulumi.Int(7),
		FinalSnapshotIdentifier: pulumi.Sprintf("%s-%s-final", env, id),
		Tags:                    backendTags,
	})
	if err != nil {
		return nil, err
	}

	secretName := domain.SecretName(env, id)
	secret, err := secretsmanager.NewSecret(ctx, "db-secret-"+id, &secretsmanager.SecretArgs{
		Name: pulumi.String(secretName),
		Tags: backendTags,
	})
	if err != nil {
		return nil, err
	}

	databases := make([]string, 0, len(b.Sites))
	for _, s := range b.Sites {
		databases = append(databases, domain.DatabaseName(s.Name))
	}

	// the password output is secret, so the payload is too
	payload := pulumi.All(instance.Address, instance.Port, password.Result).ApplyT(
		func(args []interface{}) (string, error) {
			raw, err := json.Marshal(connectionInfo{
				Engine:    databaseEngine,
				Host:      args[0].(string),
				Port:      args[1].(int),
				Username:  databaseUsername,
				Password:  args[2].(string),
				Backend:   id,
				Databases: databases,
			})
			return string(raw), err
		}).(pulumi.StringOutput)

	if _, err := secretsmanager.NewSecretVersion(ctx, "db-secret-version-"+id, &secretsmanager.SecretVersionArgs{
		SecretId:     secret.ID(),
		SecretString: payload,
	}); err != nil {
		return nil, err
	}

	return &Database{
		Backend:       b,
		SecretName:    secretName,
		SecurityGroup: sg,
		Password:      password,
		Instance:      instance,
		Secret:        secret,
	}, nil
}

// siteExports binds every site to the outputs of its backend:
// {backend, secretName, securityGroupId}.
func siteExports(assignment *domain.Assignment, dbs map[string]*Database) pulumi.Map {
	out := pulumi.Map{}
	for name, binding := range assignment.Sites {
		db := dbs[binding.SecurityGroupKey]
		out[name] = pulumi.Map{
			"backend":         pulumi.String(binding.BackendIdentifier),
			"secretName":      pulumi.String(binding.SecretName),
			"securityGroupId": db.SecurityGroup.ID(),
		}
	}
	return out
}

func withTags(base, extra pulumi.StringMap) pulumi.StringMap {
	out := make(pulumi.StringMap, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
