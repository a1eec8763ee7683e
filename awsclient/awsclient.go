// Package awsclient loads the AWS SDK configuration shared by the EC2, EC2 Instance Connect and STS clients.
package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/mmmorris1975/aws-ec2/logging"
	"go.uber.org/zap"
)

// Options selects the credentials and region used for AWS calls.  Empty values fall back to the SDK's
// default resolution (environment variables, then shared configuration files).
type Options struct {
	Profile string
	Region  string
	// Debug logs the SDK's requests and retries
	Debug bool
}

// LoadConfig resolves the AWS configuration for opts.
func LoadConfig(ctx context.Context, opts Options, log *zap.Logger) (aws.Config, error) {
	var optFns []func(*config.LoadOptions) error

	if opts.Profile != "" {
		optFns = append(optFns, config.WithSharedConfigProfile(opts.Profile))
	}

	if opts.Region != "" {
		optFns = append(optFns, config.WithRegion(opts.Region))
	}

	if opts.Debug && log != nil {
		optFns = append(optFns,
			config.WithLogger(logging.NewSDKLogger(log)),
			config.WithClientLogMode(aws.LogRequest|aws.LogResponse|aws.LogRetries),
		)
	}

	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// STSAPI is the subset of the STS client used to identify the caller.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Identity describes the AWS principal making the calls.
type Identity struct {
	Account string
	ARN     string
}

// CallerIdentity returns the identity of the credentials in use.
func CallerIdentity(ctx context.Context, client STSAPI) (*Identity, error) {
	o, err := client.GetCallerIdentity(ctx, new(sts.GetCallerIdentityInput))
	if err != nil {
		return nil, fmt.Errorf("get caller identity: %w", err)
	}
	return &Identity{Account: aws.ToString(o.Account), ARN: aws.ToString(o.Arn)}, nil
}

// NewSTS returns an STS client built from cfg.
func NewSTS(cfg aws.Config) *sts.Client {
	return sts.NewFromConfig(cfg)
}
