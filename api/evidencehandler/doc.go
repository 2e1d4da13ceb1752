// Package evidencehandler implements the HTTP handler and client for the
// evidence API.
//
// Key components:
//   - Handler: routes uploads, downloads, catalog lookups and status requests
//     to an evidence service and maps its sentinel errors onto status codes
//   - Client: calls the API and maps error statuses back onto the sentinels,
//     so errors.Is(err, interfaces.ErrContentNotFound) works on both sides
//
// Handler only registers routes. It is served by httpserver.Server, which adds
// request logging, health endpoints and graceful shutdown.
package evidencehandler
