package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	bartypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/tfelder/agentware/agent"
)

// Retrieval defaults matching the knowledge-base demos: a modest score
// floor and enough results to synthesize an answer from.
const (
	DefaultKBMinScore   = 0.4
	DefaultKBMaxResults = 9
)

// KnowledgeBase is a memory backend on an Amazon Bedrock Knowledge Base.
//
// Retrieve queries the managed vector index. Store uploads the document to
// the knowledge base's S3 data source and starts an ingestion job, so new
// documents become retrievable once ingestion completes. List and Clear
// are not supported by the managed service.
type KnowledgeBase struct {
	runtime      *bedrockagentruntime.Client
	control      *bedrockagent.Client
	s3Client     *s3.Client
	kbID         string
	dataSourceID string
	bucket       string
	prefix       string
}

// KnowledgeBaseConfig holds configuration for a KnowledgeBase client.
type KnowledgeBaseConfig struct {
	// KnowledgeBaseID is the Bedrock Knowledge Base identifier.
	KnowledgeBaseID string
	// DataSourceID is the data source whose ingestion job Store starts.
	DataSourceID string
	// Bucket is the S3 bucket backing the data source.
	Bucket string
	// Prefix is the S3 key prefix for stored documents (default
	// "memories/").
	Prefix string
	// Region is the AWS region (default us-east-1).
	Region string
	// Profile is the AWS profile name (optional).
	Profile string
}

// NewKnowledgeBase creates a Bedrock Knowledge Base memory client.
func NewKnowledgeBase(ctx context.Context, cfg KnowledgeBaseConfig) (*KnowledgeBase, error) {
	if cfg.KnowledgeBaseID == "" {
		return nil, fmt.Errorf("knowledge base ID is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "memories/"
	}

	configOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(cfg.Profile))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &KnowledgeBase{
		runtime:      bedrockagentruntime.NewFromConfig(awsConfig),
		control:      bedrockagent.NewFromConfig(awsConfig),
		s3Client:     s3.NewFromConfig(awsConfig),
		kbID:         cfg.KnowledgeBaseID,
		dataSourceID: cfg.DataSourceID,
		bucket:       cfg.Bucket,
		prefix:       cfg.Prefix,
	}, nil
}

// Store uploads the message content as a document to the data source
// bucket and kicks off an ingestion job. Ingestion is asynchronous; the
// document is retrievable once the job finishes.
func (k *KnowledgeBase) Store(ctx context.Context, sessionID string, message *agent.Message, _ map[string]interface{}) error {
	if k.bucket == "" || k.dataSourceID == "" {
		return fmt.Errorf("knowledge base store requires a data source bucket and ID")
	}

	key := fmt.Sprintf("%s%s/%s-%s.txt",
		k.prefix, sessionID, time.Now().UTC().Format("20060102T150405"), uuid.NewString()[:8])
	_, err := k.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(k.bucket),
		Key:    aws.String(key),
		Body:   strings.NewReader(message.Content),
	})
	if err != nil {
		return fmt.Errorf("upload document to s3: %w", err)
	}

	_, err = k.control.StartIngestionJob(ctx, &bedrockagent.StartIngestionJobInput{
		KnowledgeBaseId: aws.String(k.kbID),
		DataSourceId:    aws.String(k.dataSourceID),
	})
	if err != nil {
		return fmt.Errorf("start ingestion job: %w", err)
	}
	return nil
}

// Retrieve queries the knowledge base. Results below MinScore are dropped;
// defaults match the knowledge-base demos (min score 0.4, 9 results).
//
// Each returned message carries the relevance score and source location in
// its metadata.
func (k *KnowledgeBase) Retrieve(ctx context.Context, _ string, opts RetrieveOptions) ([]*agent.Message, error) {
	if opts.Query == "" {
		return nil, fmt.Errorf("knowledge base retrieval requires a query")
	}
	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = DefaultKBMinScore
	}
	maxResults := opts.Limit
	if maxResults <= 0 {
		maxResults = DefaultKBMaxResults
	}

	output, err := k.runtime.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(k.kbID),
		RetrievalQuery:  &bartypes.KnowledgeBaseQuery{Text: aws.String(opts.Query)},
		RetrievalConfiguration: &bartypes.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: &bartypes.KnowledgeBaseVectorSearchConfiguration{
				NumberOfResults: aws.Int32(int32(maxResults)),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge base retrieve: %w", err)
	}

	var messages []*agent.Message
	for _, result := range output.RetrievalResults {
		score := aws.ToFloat64(result.Score)
		if score < minScore {
			continue
		}
		var text string
		if result.Content != nil {
			text = aws.ToString(result.Content.Text)
		}
		msg := agent.NewMessage("user", text)
		msg.Metadata["score"] = score
		if result.Location != nil && result.Location.S3Location != nil {
			msg.Metadata["source"] = aws.ToString(result.Location.S3Location.Uri)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// List is not supported by the managed knowledge base.
func (k *KnowledgeBase) List(context.Context, string) ([]*agent.Message, error) {
	return nil, ErrNotSupported
}

// Clear is not supported by the managed knowledge base.
func (k *KnowledgeBase) Clear(context.Context, string) error {
	return ErrNotSupported
}
