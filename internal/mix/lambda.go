package mix

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/visionvoice/visionvoice/pkg/types"
)

// LambdaInvoker dispatches mix jobs to an AWS Lambda function using
// event-style (fire and forget) invocation.
type LambdaInvoker struct {
	client       *lambdasvc.Client
	functionName string
}

// NewLambdaInvoker creates a Lambda-backed mix invoker
func NewLambdaInvoker(cfg types.MixConfig) (*LambdaInvoker, error) {
	if cfg.FunctionName == "" {
		return nil, fmt.Errorf("function_name is required for the mix invoker")
	}

	ctx := context.Background()

	var awsCfg aws.Config
	var err error
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &LambdaInvoker{
		client:       lambdasvc.NewFromConfig(awsCfg),
		functionName: cfg.FunctionName,
	}, nil
}

// Invoke sends the payload to the mixer function asynchronously
func (l *LambdaInvoker) Invoke(ctx context.Context, payload JobPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal mix payload: %w", err)
	}

	_, err = l.client.Invoke(ctx, &lambdasvc.InvokeInput{
		FunctionName:   aws.String(l.functionName),
		Payload:        data,
		InvocationType: lambdatypes.InvocationTypeEvent,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", l.functionName, err)
	}

	return nil
}

// MemoryInvoker records mix jobs in memory for tests
type MemoryInvoker struct {
	mu   sync.Mutex
	Jobs []JobPayload
	// Err, when set, is returned from every Invoke call
	Err error
}

// Invoke records the payload
func (m *MemoryInvoker) Invoke(ctx context.Context, payload JobPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Jobs = append(m.Jobs, payload)
	return nil
}

// Recorded returns a copy of the recorded jobs
func (m *MemoryInvoker) Recorded() []JobPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]JobPayload(nil), m.Jobs...)
}
