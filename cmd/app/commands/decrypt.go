package commands

import (
	"context"
	"fmt"
	"io"

	cryptoUsecase "github.com/allisson/piicrypt/internal/crypto/usecase"
	customerDomain "github.com/allisson/piicrypt/internal/customer/domain"
	encryptionUsecase "github.com/allisson/piicrypt/internal/encryption/usecase"
)

// RunDecrypt opens a single envelope and prints the plaintext.
func RunDecrypt(ctx context.Context, encryptor cryptoUsecase.FieldEncryptor, w io.Writer, envelope string) error {
	if envelope == "" {
		return fmt.Errorf("envelope is required")
	}

	plaintext, err := encryptor.Decrypt(ctx, envelope)
	if err != nil {
		return fmt.Errorf("failed to decrypt envelope: %w", err)
	}

	_, err = fmt.Fprintln(w, plaintext)
	return err
}

// RunDecryptBatch loads the output artifact of one batch and prints it with
// every sensitive field decrypted.
func RunDecryptBatch(
	ctx context.Context,
	encryptor cryptoUsecase.FieldEncryptor,
	batchRepo encryptionUsecase.BatchRepository,
	w io.Writer,
	batchIndex int,
) error {
	if batchIndex < 0 {
		return fmt.Errorf("batch index must not be negative, got: %d", batchIndex)
	}

	batch, err := batchRepo.Load(ctx, batchIndex)
	if err != nil {
		return fmt.Errorf("failed to load batch %d: %w", batchIndex, err)
	}

	for i := range batch.Records {
		record := &batch.Records[i]
		for _, field := range customerDomain.SensitiveFields {
			plaintext, err := encryptor.Decrypt(ctx, record.Get(field))
			if err != nil {
				return fmt.Errorf("failed to decrypt %s of record %s: %w", field, record.ID, err)
			}
			record.Set(field, plaintext)
		}
	}

	return writeJSON(w, batch)
}
