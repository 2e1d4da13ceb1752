// Package cluster reports whether the ledger network evidence is anchored to
// can currently be reached.
package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ruteri/verichain/interfaces"
)

// StaticStatus reports a fixed availability.
type StaticStatus bool

var _ interfaces.ClusterStatusProvider = StaticStatus(false)

func (s StaticStatus) Available(ctx context.Context) bool {
	return bool(s)
}

// BlockNumberReader is the part of an Ethereum client the status check needs.
type BlockNumberReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// EthereumStatus reports the network available when the JSON-RPC endpoint
// answers eth_blockNumber within the check timeout.
type EthereumStatus struct {
	client  BlockNumberReader
	timeout time.Duration
	log     *slog.Logger
	closeFn func()
}

var _ interfaces.ClusterStatusProvider = (*EthereumStatus)(nil)

// NewEthereumStatus wraps an existing client.
func NewEthereumStatus(client BlockNumberReader, timeout time.Duration, log *slog.Logger) *EthereumStatus {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &EthereumStatus{
		client:  client,
		timeout: timeout,
		log:     log,
		closeFn: func() {},
	}
}

// DialEthereumStatus connects to rpcURL. HTTP endpoints are dialed lazily, so
// an unreachable node is reported by Available rather than here.
func DialEthereumStatus(ctx context.Context, rpcURL string, timeout time.Duration, log *slog.Logger) (*EthereumStatus, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC %s: %w", rpcURL, err)
	}

	status := NewEthereumStatus(client, timeout, log)
	status.closeFn = client.Close
	return status, nil
}

func (s *EthereumStatus) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	block, err := s.client.BlockNumber(ctx)
	if err != nil {
		s.log.Warn("Ledger network unavailable",
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return false
	}

	s.log.Debug("Ledger network available",
		slog.Uint64("block_number", block),
		slog.Duration("duration", time.Since(start)))
	return true
}

// Close releases the underlying RPC client.
func (s *EthereumStatus) Close() {
	s.closeFn()
}
