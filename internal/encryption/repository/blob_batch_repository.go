// Package repository persists encrypted batches as output artifacts.
package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"

	customerDomain "github.com/allisson/piicrypt/internal/customer/domain"
	"github.com/allisson/piicrypt/internal/encryption/domain"
	"github.com/allisson/piicrypt/internal/errors"
)

// ErrArtifactNotFound indicates no artifact exists for a batch index.
var ErrArtifactNotFound = errors.Wrap(errors.ErrNotFound, "output artifact not found")

// ArtifactKey names the output unit for a batch index.
func ArtifactKey(batchIndex int) string {
	return fmt.Sprintf("encrypted_batch_%d.json", batchIndex)
}

// OpenBucket opens the output bucket, for example "file:///var/lib/piicrypt"
// or "mem://".
func OpenBucket(ctx context.Context, url string) (*blob.Bucket, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open output bucket: %w", err)
	}
	return bucket, nil
}

// BlobBatchRepository writes one JSON artifact per batch. Writes replace any
// earlier artifact for the same index, so a replayed job leaves one file.
type BlobBatchRepository struct {
	bucket *blob.Bucket
}

// NewBlobBatchRepository creates a BlobBatchRepository on an open bucket.
func NewBlobBatchRepository(bucket *blob.Bucket) *BlobBatchRepository {
	return &BlobBatchRepository{bucket: bucket}
}

// Save writes the encrypted records of batch as an indented JSON array.
func (r *BlobBatchRepository) Save(ctx context.Context, batch domain.Batch) error {
	records := batch.Records
	if records == nil {
		records = []customerDomain.CustomerRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	opts := &blob.WriterOptions{ContentType: "application/json"}
	if err := r.bucket.WriteAll(ctx, ArtifactKey(batch.BatchIndex), data, opts); err != nil {
		return fmt.Errorf("failed to write batch %d: %w", batch.BatchIndex, err)
	}
	return nil
}

// Load reads back the artifact for batchIndex.
func (r *BlobBatchRepository) Load(ctx context.Context, batchIndex int) (domain.Batch, error) {
	data, err := r.bucket.ReadAll(ctx, ArtifactKey(batchIndex))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return domain.Batch{}, ErrArtifactNotFound
		}
		return domain.Batch{}, err
	}

	var records []customerDomain.CustomerRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return domain.Batch{}, fmt.Errorf("failed to decode batch %d: %w", batchIndex, err)
	}
	return domain.Batch{Records: records, BatchIndex: batchIndex}, nil
}

// Delete removes the artifact for batchIndex if it exists.
func (r *BlobBatchRepository) Delete(ctx context.Context, batchIndex int) error {
	err := r.bucket.Delete(ctx, ArtifactKey(batchIndex))
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("failed to delete batch %d: %w", batchIndex, err)
	}
	return nil
}

// Close releases the bucket.
func (r *BlobBatchRepository) Close() error {
	return r.bucket.Close()
}
