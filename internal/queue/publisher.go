package queue

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"git-repository-manager/internal/redis"

	"github.com/google/uuid"
)

// IPublisher defines the interface for publishing jobs to the queue
type IPublisher interface {
	PublishAcquireJob(ctx context.Context, url, localName string, bare bool, branches []string) (*Job, error)
	PublishReportJob(ctx context.Context, localNames []string, days int) (*Job, error)
	PublishDeleteJob(ctx context.Context, localName string) (*Job, error)
	GetQueueLength(ctx context.Context) (int64, error)
}

// ErrSecretInPayload is returned for acquire jobs whose URL embeds a password.
// Jobs are stored in Redis as plain JSON.
var ErrSecretInPayload = errors.New("job payload must not carry a secret")

type publisherImpl struct {
	queue *Queue
}

// NewPublisher creates a publisher
func NewPublisher(redisClient *redis.Client, queueName string) IPublisher {
	return &publisherImpl{
		queue: NewQueue(redisClient, queueName),
	}
}

func (p *publisherImpl) publish(ctx context.Context, jobType JobType, payload map[string]interface{}) (*Job, error) {
	job := &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	if err := p.queue.Push(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to publish %s job: %w", jobType, err)
	}

	return job, nil
}

// PublishAcquireJob creates a job to clone a repository without credentials
func (p *publisherImpl) PublishAcquireJob(ctx context.Context, sourceURL, localName string, bare bool, branches []string) (*Job, error) {
	if u, err := url.Parse(sourceURL); err == nil {
		if _, ok := u.User.Password(); ok {
			return nil, ErrSecretInPayload
		}
	}

	payload := map[string]interface{}{
		PayloadURL:       sourceURL,
		PayloadLocalName: localName,
		PayloadBare:      bare,
	}
	if len(branches) > 0 {
		payload[PayloadBranches] = branches
	}
	return p.publish(ctx, JobTypeAcquire, payload)
}

// PublishReportJob creates a job to store a contributor report over local clones
func (p *publisherImpl) PublishReportJob(ctx context.Context, localNames []string, days int) (*Job, error) {
	return p.publish(ctx, JobTypeReport, map[string]interface{}{
		PayloadRepositories: localNames,
		PayloadDays:         days,
	})
}

// PublishDeleteJob creates a job to remove a local clone and its record
func (p *publisherImpl) PublishDeleteJob(ctx context.Context, localName string) (*Job, error) {
	return p.publish(ctx, JobTypeDelete, map[string]interface{}{
		PayloadLocalName: localName,
	})
}

// GetQueueLength returns current queue size
func (p *publisherImpl) GetQueueLength(ctx context.Context) (int64, error) {
	length, err := p.queue.Length(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return length, nil
}
