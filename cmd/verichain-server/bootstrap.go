package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ruteri/verichain/catalog"
	"github.com/ruteri/verichain/cluster"
	"github.com/ruteri/verichain/config"
	"github.com/ruteri/verichain/cryptoutils"
	"github.com/ruteri/verichain/evidence"
	"github.com/ruteri/verichain/interfaces"
	"github.com/ruteri/verichain/kms"
	"github.com/ruteri/verichain/metrics"
	"github.com/ruteri/verichain/storage"
)

// serviceDeps owns the evidence service and the resources it holds open.
type serviceDeps struct {
	service *evidence.Service
	metrics *metrics.EvidenceMetrics
	closers []func() error
}

func (d *serviceDeps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

// setupService builds the evidence service described by cfg. Resources
// opened before a failure are released.
func setupService(ctx context.Context, cfg *config.Config, vaultToken string, logger *slog.Logger) (_ *serviceDeps, err error) {
	deps := &serviceDeps{metrics: metrics.NewEvidenceMetrics(nil)}
	defer func() {
		if err != nil {
			deps.Close()
		}
	}()

	keyLocation, err := interfaces.NewStorageBackendLocation(cfg.KeyStore.Location)
	if err != nil {
		return nil, fmt.Errorf("key store: %w", err)
	}
	keyStore, err := kms.KeyStoreFor(keyLocation, kms.KeyStoreOptions{VaultToken: vaultToken}, logger)
	if err != nil {
		return nil, fmt.Errorf("key store: %w", err)
	}
	if closer, ok := keyStore.(io.Closer); ok {
		deps.closers = append(deps.closers, closer.Close)
	}
	logger.Info("Key store initialized", "key_store", keyStore.Name())

	keys := kms.NewContentKeyManager(keyStore, logger, kms.WithKDFParams(cfg.KDFParams()))

	codec, err := cryptoutils.NewCipherCodec(cfg.Cipher)
	if err != nil {
		return nil, err
	}

	locations, err := cfg.StorageLocations()
	if err != nil {
		return nil, err
	}
	backend, err := storage.NewStorageBackendFactory(logger).CreateMultiBackend(locations)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	logger.Info("Storage initialized", "backend", backend.Name(), "location", backend.LocationURI())

	opts := []evidence.Option{evidence.WithMetrics(deps.metrics)}

	if cfg.Catalog.Path != "" {
		boltCatalog, err := catalog.OpenBoltCatalog(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		deps.closers = append(deps.closers, boltCatalog.Close)
		opts = append(opts, evidence.WithCatalog(boltCatalog))
	} else {
		logger.Warn("No catalog path configured, records are kept in memory")
	}

	if cfg.Cluster.RPCURL != "" {
		logger.Info("Connecting to Ethereum RPC", "address", cfg.Cluster.RPCURL)
		status, err := cluster.DialEthereumStatus(ctx, cfg.Cluster.RPCURL, cfg.Cluster.Timeout.Duration, logger)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, func() error { status.Close(); return nil })
		opts = append(opts, evidence.WithClusterStatus(status))
	}

	deps.service = evidence.NewService(keys, codec, storage.NewContentStore(backend, logger), logger, opts...)
	logger.Info("Evidence service initialized", "cipher", codec.Name(), "kdf_iterations", cfg.KeyStore.KDFIterations)
	return deps, nil
}
