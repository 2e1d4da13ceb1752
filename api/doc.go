/*
Package api holds the types shared by the evidence HTTP server and its clients.

The HTTP surface is implemented in the evidencehandler subpackage and served by
httpserver.Server:

	POST /api/evidence                        multipart upload, field "file"
	GET  /api/evidence                        catalog listing, newest first
	GET  /api/evidence/{content_hash}         decrypted evidence bytes
	GET  /api/evidence/{content_hash}/record  catalog record
	GET  /api/status                          ledger and storage reachability

Content hashes are 64 lowercase hex characters, optionally prefixed with 0x.

# Errors

Error responses are plain text. Status codes map onto the sentinel errors in
the interfaces package:

  - 400 Bad Request: malformed content hash or upload
  - 404 Not Found: interfaces.ErrContentNotFound
  - 413 Request Entity Too Large: upload exceeds the configured limit
  - 422 Unprocessable Entity: interfaces.ErrAuthentication, the stored blob
    does not decrypt under the key bound to its hash
  - 500 Internal Server Error: everything else, including key persistence
    and storage I/O failures

# Server configuration

HTTPServerConfig carries listen addresses, timeouts and drain settings for
httpserver.Server. The evidence server additionally exposes /livez, /readyz,
/drain and /undrain, and /debug when pprof is enabled.
*/
package api
