// Package evidence implements the evidence pipeline: content hashing, key
// management, authenticated encryption and content-addressed storage.
//
// # Submission
//
// Submit moves raw bytes through the following steps:
//
//	Received -> KeyReady -> Encrypted -> Stored -> Described
//
// The SHA-256 hash of the raw bytes is the canonical address. The key bound to
// that hash is fetched or created by the KeyManager, the bytes are sealed by
// the CipherCodec with a fresh nonce and the ciphertext is written to the
// ContentStore under the hash. The returned StorageDescriptor carries the hash,
// the display identifier of the stored blob and the ciphertext size.
//
// A failure at any step ends the submission. The error is an
// *interfaces.OperationError naming the step and wraps one of the sentinel
// errors from the interfaces package:
//
//	_, err := svc.Submit(ctx, raw)
//	if errors.Is(err, interfaces.ErrStorageIO) {
//	    // the backend failed, nothing was committed
//	}
//
// Nothing is retried. Writing the blob is the commit point: a key created
// before a failed write stays in the key store and is reused on resubmission.
//
// # Retrieval
//
// Fetch reads the blob, loads the key and decrypts. Tampered or foreign blobs
// fail with interfaces.ErrAuthentication, missing ones with
// interfaces.ErrContentNotFound.
//
// # Ingestion
//
// Ingest wraps Submit for uploaded files. It sniffs the content type when the
// uploader gave none, asks the VerificationProvider for a result, checks the
// ledger network and writes an EvidenceRecord to the catalog.
package evidence
