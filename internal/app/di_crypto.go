package app

import (
	"context"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/allisson/piicrypt/internal/crypto/domain"
	cryptoService "github.com/allisson/piicrypt/internal/crypto/service"
	cryptoUsecase "github.com/allisson/piicrypt/internal/crypto/usecase"
)

// KMSService returns the KMS service used to unwrap a KMS-protected secret.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// DerivedKey returns the field key. It is derived once per process; a
// configuration that cannot produce a key is fatal before any job is leased.
func (c *Container) DerivedKey(ctx context.Context) (*cryptoDomain.DerivedKey, error) {
	return lazy(c, &c.derivedKeyInit, "derivedKey", &c.derivedKey, func() (*cryptoDomain.DerivedKey, error) {
		return c.initDerivedKey(ctx)
	})
}

// FieldEncryptor returns the field encryptor, instrumented with business metrics.
func (c *Container) FieldEncryptor(ctx context.Context) (cryptoUsecase.FieldEncryptor, error) {
	return lazy(c, &c.fieldEncryptorInit, "fieldEncryptor", &c.fieldEncryptor, func() (cryptoUsecase.FieldEncryptor, error) {
		return c.initFieldEncryptor(ctx)
	})
}

func (c *Container) initDerivedKey(ctx context.Context) (*cryptoDomain.DerivedKey, error) {
	algorithm, err := cryptoDomain.ParseAlgorithm(c.config.CryptoAlgorithm)
	if err != nil {
		return nil, err
	}
	kdf, err := cryptoDomain.ParseKDF(c.config.CryptoKDF)
	if err != nil {
		return nil, err
	}

	deriver, err := cryptoService.NewPBKDF2KeyDeriver(cryptoDomain.KDFParams{
		KDF:        kdf,
		Iterations: c.config.CryptoIterations,
		KeyLength:  c.config.CryptoKeyLength,
	}, algorithm)
	if err != nil {
		return nil, fmt.Errorf("invalid key derivation configuration: %w", err)
	}

	secret := []byte(c.config.CryptoSecret)
	if c.config.KMSKeyURI != "" {
		secret, err = cryptoService.UnwrapSecret(ctx, c.KMSService(), c.config.KMSKeyURI, c.config.CryptoSecret)
		if err != nil {
			return nil, err
		}
		defer cryptoDomain.Zero(secret)
		c.Logger().Info("crypto secret unwrapped with KMS")
	}

	key, err := deriver.DeriveKey(secret, []byte(c.config.CryptoSalt))
	if err != nil {
		return nil, fmt.Errorf("failed to derive field key: %w", err)
	}

	c.Logger().Info("field key derived",
		slog.String("algorithm", string(algorithm)),
		slog.String("kdf", string(kdf)),
		slog.Int("iterations", c.config.CryptoIterations),
	)
	return key, nil
}

func (c *Container) initFieldEncryptor(ctx context.Context) (cryptoUsecase.FieldEncryptor, error) {
	key, err := c.DerivedKey(ctx)
	if err != nil {
		return nil, err
	}

	encryptor, err := cryptoUsecase.NewFieldEncryptor(cryptoService.NewAEADManager(), key)
	if err != nil {
		return nil, fmt.Errorf("failed to create field encryptor: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	return cryptoUsecase.NewFieldEncryptorWithMetrics(encryptor, businessMetrics), nil
}
