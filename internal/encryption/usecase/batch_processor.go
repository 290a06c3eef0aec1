package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	customerDomain "github.com/allisson/piicrypt/internal/customer/domain"
	cryptoUsecase "github.com/allisson/piicrypt/internal/crypto/usecase"
	"github.com/allisson/piicrypt/internal/encryption/domain"
)

type batchProcessor struct {
	encryptor cryptoUsecase.FieldEncryptor
}

// NewBatchProcessor creates a BatchProcessor that encrypts with encryptor.
func NewBatchProcessor(encryptor cryptoUsecase.FieldEncryptor) BatchProcessor {
	return &batchProcessor{encryptor: encryptor}
}

// ProcessBatch validates every record before encrypting anything, then runs
// one encryption per sensitive field concurrently, at most len(records) at a
// time.
func (p *batchProcessor) ProcessBatch(ctx context.Context, batch domain.Batch) (domain.Batch, error) {
	for i := range batch.Records {
		if err := batch.Records[i].Validate(); err != nil {
			return domain.Batch{}, fmt.Errorf("batch %d record %d: %w", batch.BatchIndex, i, err)
		}
	}

	out := batch.Clone()
	if len(out.Records) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(out.Records))

	for i := range out.Records {
		record := &out.Records[i]
		for _, field := range customerDomain.SensitiveFields {
			plaintext := record.Get(field)
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				envelope, err := p.encryptor.Encrypt(gctx, plaintext)
				if err != nil {
					return fmt.Errorf("batch %d record %s field %s: %w", batch.BatchIndex, record.ID, field, err)
				}
				record.Set(field, envelope)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return domain.Batch{}, err
	}
	return out, nil
}
