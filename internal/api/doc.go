// Package api implements the HTTP REST API and WebSocket server for the ADR
// controller core.
//
// This package provides:
//   - REST endpoints for each unit's parameters, status, peripherals,
//     recording, log and instruments
//   - WebSocket stream of status changes and log entries, filtered per unit
//   - Bearer token authentication (HS256 JWT) when a secret is configured
//   - Prometheus metrics exposure
//
// Routes (all under /api/v1 unless noted):
//
//	GET  /health
//	GET  /adrs
//	GET  /adrs/{name}/parameters
//	GET  /adrs/{name}/parameters/{key}
//	PUT  /adrs/{name}/parameters/{key}        {"value": ...}
//	POST /adrs/{name}/parameters/revert
//	GET  /adrs/{name}/status
//	PUT  /adrs/{name}/status                  {"status": "..."}
//	GET  /adrs/{name}/statuses
//	GET  /adrs/{name}/peripherals
//	GET  /adrs/{name}/peripherals/connected
//	GET  /adrs/{name}/peripherals/orphaned
//	POST /adrs/{name}/peripherals/refresh
//	POST /adrs/{name}/peripherals/{peripheral}/connect
//	GET  /adrs/{name}/recording
//	POST /adrs/{name}/recording/start
//	POST /adrs/{name}/recording/stop
//	GET  /adrs/{name}/log
//	GET  /adrs/{name}/log/full
//	GET  /adrs/{name}/readings
//	POST /adrs/{name}/heatswitch/{open|close}
//	POST /adrs/{name}/compressor/{start|stop}
//	GET  /ws                                  WebSocket stream
//	GET  /metrics                             (root, Prometheus)
//
// Stream protocol (GET /ws, token in ?token= when auth is enabled):
//
//	-> {"type":"subscribe","id":"1","channels":["adr.status","adr.log"],"units":["adr1"]}
//	<- {"type":"ack","id":"1",...}
//	<- {"type":"event","channel":"adr.status","payload":{"unit":"adr1","status":"ready",...}}
//
// A status subscription is answered with every matching unit's current
// status before live events.
//
// Usage:
//
//	srv, err := api.New(api.Deps{
//	    Config:   cfg.API,
//	    WS:       cfg.WebSocket,
//	    Security: cfg.Security,
//	    Logger:   logger,
//	    Units:    manager,
//	    Version:  version,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Close()
package api
