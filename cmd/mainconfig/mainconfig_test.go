package mainconfig

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/appointment-assistant/internal/config"
)

func localstackConfig(services ...string) *appconfig.Config {
	return &appconfig.Config{
		AWSRegion:           "us-east-1",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localhost:4566",
		AWSEndpointServices: services,
	}
}

func TestLoadAWSConfig_StaticCredentials(t *testing.T) {
	awsCfg, err := LoadAWSConfig(context.Background(), localstackConfig("lambda"))
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", awsCfg.Region)

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)
}

func TestLoadAWSConfig_OverridesOnlyListedServices(t *testing.T) {
	awsCfg, err := LoadAWSConfig(context.Background(), localstackConfig("Lambda"))
	require.NoError(t, err)
	require.NotNil(t, awsCfg.EndpointResolverWithOptions)

	endpoint, err := awsCfg.EndpointResolverWithOptions.ResolveEndpoint(lambda.ServiceID, "us-east-1")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4566", endpoint.URL)
	assert.Equal(t, "us-east-1", endpoint.SigningRegion)

	var notFound *aws.EndpointNotFoundError
	_, err = awsCfg.EndpointResolverWithOptions.ResolveEndpoint(bedrockruntime.ServiceID, "us-east-1")
	assert.True(t, errors.As(err, &notFound), "bedrock keeps default resolution")
	_, err = awsCfg.EndpointResolverWithOptions.ResolveEndpoint("SQS", "us-east-1")
	assert.True(t, errors.As(err, &notFound))
}

func TestLoadAWSConfig_DefaultServiceList(t *testing.T) {
	cfg := localstackConfig("lambda", "bedrock-runtime")
	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	require.NoError(t, err)

	for _, id := range []string{lambda.ServiceID, bedrockruntime.ServiceID} {
		endpoint, err := awsCfg.EndpointResolverWithOptions.ResolveEndpoint(id, "us-east-1")
		require.NoError(t, err, id)
		assert.Equal(t, "http://localhost:4566", endpoint.URL, id)
	}
}

func TestLoadAWSConfig_RejectsUnknownService(t *testing.T) {
	_, err := LoadAWSConfig(context.Background(), localstackConfig("lambda", "sqs"))
	require.ErrorContains(t, err, `unknown AWS_ENDPOINT_SERVICES entry "sqs"`)
	assert.Contains(t, err.Error(), "bedrock-runtime, lambda")
}

func TestLoadAWSConfig_NoOverride(t *testing.T) {
	cfg := localstackConfig("sqs")
	cfg.AWSEndpointOverride = ""
	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, awsCfg.EndpointResolverWithOptions)

	cfg.AWSEndpointOverride = "http://localhost:4566"
	cfg.AWSEndpointServices = nil
	awsCfg, err = LoadAWSConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, awsCfg.EndpointResolverWithOptions, "an empty service list overrides nothing")
}
