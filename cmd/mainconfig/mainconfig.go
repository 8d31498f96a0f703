package mainconfig

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	appconfig "github.com/wolfman30/appointment-assistant/internal/config"
)

// overridableServices maps AWS_ENDPOINT_SERVICES names to SDK service IDs.
var overridableServices = map[string]string{
	"lambda":          lambda.ServiceID,
	"bedrock-runtime": bedrockruntime.ServiceID,
}

// LoadAWSConfig builds the SDK config shared by the Lambda entrypoint and the
// local runner. When AWS_ENDPOINT_OVERRIDE is set, only the clients named in
// AWS_ENDPOINT_SERVICES are pointed at it (LocalStack, a Bedrock proxy, ...).
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	overridden, err := endpointServiceIDs(cfg)
	if err != nil {
		return aws.Config{}, err
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if key, secret := strings.TrimSpace(cfg.AWSAccessKeyID), strings.TrimSpace(cfg.AWSSecretAccessKey); key != "" && secret != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("mainconfig: load aws config: %w", err)
	}
	if len(overridden) > 0 {
		awsCfg.EndpointResolverWithOptions = overrideResolver(cfg.AWSEndpointOverride, cfg.AWSRegion, overridden)
	}
	return awsCfg, nil
}

// endpointServiceIDs resolves the configured service names. It returns nothing
// when no override URL is set.
func endpointServiceIDs(cfg *appconfig.Config) (map[string]bool, error) {
	if strings.TrimSpace(cfg.AWSEndpointOverride) == "" {
		return nil, nil
	}
	ids := make(map[string]bool, len(cfg.AWSEndpointServices))
	for _, name := range cfg.AWSEndpointServices {
		id, ok := overridableServices[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("mainconfig: unknown AWS_ENDPOINT_SERVICES entry %q (supported: %s)", name, supportedServices())
		}
		ids[id] = true
	}
	return ids, nil
}

func overrideResolver(url, region string, serviceIDs map[string]bool) aws.EndpointResolverWithOptions {
	return aws.EndpointResolverWithOptionsFunc(func(service, _ string, _ ...interface{}) (aws.Endpoint, error) {
		if !serviceIDs[service] {
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		}
		return aws.Endpoint{
			URL:               url,
			PartitionID:       "aws",
			SigningRegion:     region,
			HostnameImmutable: true,
		}, nil
	})
}

func supportedServices() string {
	names := make([]string, 0, len(overridableServices))
	for name := range overridableServices {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
