/*
Package httpserver runs the evidence API behind a chi router.

Handlers are mounted through RouteRegistrar and every request is logged with
httplogger. The server adds operational endpoints next to the API:

  - GET /livez - Liveness check
  - GET /readyz - Readiness check, 503 while draining
  - GET /drain - Mark the server as not ready
  - GET /undrain - Mark the server as ready
  - /debug/* - pprof, when EnablePprof is set

Prometheus metrics are served on a separate MetricsAddr. Application metrics
register with MetricsRegisterer.

# Shutdown

Shutdown first marks the server not ready and sleeps DrainDuration so load
balancers stop routing new requests, then shuts down the API and metrics
servers with a GracefulShutdownDuration deadline each.

Usage:

	srv, err := httpserver.New(cfg, evidencehandler.NewHandler(svc, cfg))
	if err != nil {
		return err
	}
	srv.RunInBackground()
	<-exit
	srv.Shutdown()
*/
package httpserver
