package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	shell "github.com/ipfs/go-ipfs-api"
	"github.com/ruteri/verichain/interfaces"
)

// DefaultIPFSRoot is the MFS directory blobs are written under.
const DefaultIPFSRoot = "/verichain/evidence"

// IPFSBackend implements a storage backend on top of the mutable file system
// (MFS) of an IPFS node. Blobs live at <root>/<hex content hash>, so lookups
// stay keyed by the content hash while the node pins and serves the data under
// its own CID.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	root        string
	log         *slog.Logger
	locationURI string
}

var _ interfaces.StorageBackend = (*IPFSBackend)(nil)

// NewIPFSBackend creates a new IPFS storage backend connected to the API of
// the node at host:port. An empty root selects DefaultIPFSRoot.
func NewIPFSBackend(host, port, root string, timeout time.Duration, log *slog.Logger) (*IPFSBackend, error) {
	if host == "" {
		return nil, fmt.Errorf("%w: missing IPFS host", interfaces.ErrInvalidLocationURI)
	}
	if root == "" {
		root = DefaultIPFSRoot
	}
	root = "/" + strings.Trim(root, "/")
	if log == nil {
		log = slog.Default()
	}

	apiURL := fmt.Sprintf("%s:%s", host, port)
	sh := shell.NewShell(apiURL)
	if timeout > 0 {
		sh.SetTimeout(timeout)
	}

	return &IPFSBackend{
		shell:       sh,
		host:        host,
		port:        port,
		root:        root,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s%s?timeout=%s", apiURL, root, timeout),
	}, nil
}

// Fetch reads the blob stored under hash.
// Returns ErrContentNotFound if the MFS entry doesn't exist.
func (b *IPFSBackend) Fetch(ctx context.Context, hash interfaces.ContentHash) ([]byte, error) {
	start := time.Now()
	mfsPath := b.getMFSPath(hash)

	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, errUnavailable
	}

	reader, err := b.shell.FilesRead(ctx, mfsPath)
	if err != nil {
		if isIPFSNotFound(err) {
			b.log.Debug("Content not found in IPFS",
				slog.String("path", mfsPath),
				slog.String("content_id", hash.Short()),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrContentNotFound
		}

		b.log.Error("Failed to fetch data from IPFS",
			slog.String("path", mfsPath),
			slog.String("content_id", hash.Short()),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, ioError("failed to fetch data from IPFS", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, ioError("failed to read data from IPFS", err)
	}

	b.log.Debug("Fetched content from IPFS",
		slog.String("path", mfsPath),
		slog.String("content_id", hash.Short()),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store writes blob to a temporary MFS entry and then moves it into place.
// An existing entry is moved aside first and restored if the commit fails, so
// readers never observe a partially written blob and a failed Store leaves the
// previous blob in place.
func (b *IPFSBackend) Store(ctx context.Context, hash interfaces.ContentHash, blob []byte) error {
	start := time.Now()
	mfsPath := b.getMFSPath(hash)
	id := uuid.NewString()
	tmpPath := path.Join(b.root, ".tmp", fmt.Sprintf("%s-%s", hash.String(), id))
	backupPath := path.Join(b.root, ".tmp", fmt.Sprintf("%s-old-%s", hash.String(), id))

	if !b.shell.IsUp() {
		return errUnavailable
	}

	err := b.shell.FilesWrite(ctx, tmpPath, bytes.NewReader(blob),
		shell.FilesWrite.Create(true),
		shell.FilesWrite.Parents(true),
		shell.FilesWrite.Truncate(true))
	if err != nil {
		return ioError("failed to write data to IPFS", err)
	}

	hadPrevious := true
	if err := b.shell.FilesMv(ctx, mfsPath, backupPath); err != nil {
		if !isIPFSNotFound(err) {
			_ = b.shell.FilesRm(ctx, tmpPath, true)
			return ioError("failed to move aside existing IPFS entry", err)
		}
		hadPrevious = false
	}

	if err := b.shell.FilesMv(ctx, tmpPath, mfsPath); err != nil {
		_ = b.shell.FilesRm(ctx, tmpPath, true)
		if hadPrevious {
			if restoreErr := b.shell.FilesMv(ctx, backupPath, mfsPath); restoreErr != nil {
				b.log.Error("Failed to restore previous IPFS entry",
					slog.String("path", mfsPath),
					slog.String("backup_path", backupPath),
					"err", restoreErr)
			}
		}
		return ioError("failed to commit IPFS entry", err)
	}

	if hadPrevious {
		if err := b.shell.FilesRm(ctx, backupPath, true); err != nil {
			b.log.Warn("Failed to remove previous IPFS entry",
				slog.String("backup_path", backupPath),
				"err", err)
		}
	}

	attrs := []any{
		slog.String("path", mfsPath),
		slog.String("content_id", hash.Short()),
		slog.Duration("duration", time.Since(start)),
	}
	if stat, err := b.shell.FilesStat(ctx, mfsPath); err == nil {
		attrs = append(attrs, slog.String("ipfs_cid", stat.Hash))
	}
	b.log.Debug("Stored content in IPFS", attrs...)

	return nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this storage backend.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}

func (b *IPFSBackend) getMFSPath(hash interfaces.ContentHash) string {
	return path.Join(b.root, hash.String())
}

func isIPFSNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "file does not exist") || strings.Contains(msg, "no link named")
}
