// Package storage provides content-addressed blob storage with pluggable backends.
//
// Encrypted evidence blobs are stored under the SHA-256 content hash of their
// plaintext. The package offers one interface across several backends:
//
//   - File system storage, sharded by the first hash byte
//   - S3-compatible object storage
//   - IPFS, using the mutable file system of a node
//   - In-process memory, for tests and ephemeral deployments
//
// # Storage URI Format
//
// Storage backends are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///var/lib/verichain/blobs/
//   - s3://bucket-name/prefix/?region=us-west-2
//   - s3://ACCESS:SECRET@bucket/prefix/?endpoint=http://minio:9000&path_style=true
//   - ipfs://127.0.0.1:5001/verichain/evidence?timeout=30s
//   - memory://name
//
// # Content Store
//
// ContentStore is the interfaces.ContentStore used by the evidence service:
//
//	store := storage.NewContentStore(backend, logger)
//	identifier, err := store.Put(ctx, hash, ciphertext)
//	ciphertext, err := store.Get(ctx, hash)
//
// The content hash is the only address used for retrieval. The identifier
// returned by Put has the form <scheme>-<first 16 hex chars of sha256(blob)>
// and is meant for display.
//
// Put replaces any previous blob under the same hash. Backends commit writes
// atomically (rename on the file system, a single PutObject on S3, an MFS move
// on IPFS), so a failed Put leaves no partial blob visible.
//
// # Multi-Backend Storage
//
// MultiStorageBackend writes to every available backend and succeeds if any of
// them accepts the blob. Reads try backends in order and return the first hit.
// Content is reported as missing only when every backend reported it missing;
// any other combination of failures surfaces as interfaces.ErrStorageIO.
//
//	factory := storage.NewStorageBackendFactory(logger)
//	backend, err := factory.CreateMultiBackend([]interfaces.StorageBackendLocation{
//	    fileLocation,
//	    s3Location,
//	})
//
// # Errors
//
//   - interfaces.ErrContentNotFound: nothing stored under the hash
//   - interfaces.ErrStorageIO: the backend failed, never retried here
//   - interfaces.ErrBackendUnavailable: the remote end is unreachable,
//     always reported together with ErrStorageIO
//   - interfaces.ErrInvalidLocationURI: a location could not be parsed
package storage
