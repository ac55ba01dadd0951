// Package archive keeps dead-lettered messages outside the bus, where retention does not expire them.
package archive

import (
	"context"
	"fmt"

	"github.com/andreyxaxa/auction-sync/pkg/s3client"
)

const _contentType = "application/json"

type DeadLetterRepo struct {
	*s3client.S3Client
}

func NewDeadLetterRepo(s3c *s3client.S3Client) *DeadLetterRepo {
	return &DeadLetterRepo{s3c}
}

func (r *DeadLetterRepo) Archive(ctx context.Context, key string, data []byte) error {
	if err := r.Put(ctx, key, data, _contentType); err != nil {
		return fmt.Errorf("DeadLetterRepo - Archive - r.Put: %w", err)
	}

	return nil
}
