// Package mqtt provides the message bus between the ADR controller core
// and the instrument services.
//
// This package manages:
//   - Connection to the broker with auto-reconnect and subscription restore
//   - Last Will and Testament on adr/core/status for offline detection
//   - Request/response exchanges with services (Requester)
//   - Topic builders for the adr/ hierarchy (Topics)
//
// # Architecture
//
// Each instrument (thermometer bridge, magnet power supply, heat switch,
// compressor) is driven by a service that announces its devices on
// adr/discovery/{service} and answers requests on adr/request/{service}/+.
//
//	ADR core ↔ broker ↔ instrument services
//
// # Usage
//
//	client, err := mqtt.Connect(ctx, cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	req, err := mqtt.NewRequester(client, byte(cfg.MQTT.QoS))
//	var temps []float64
//	err = req.Call(ctx, "lakeshore_218", mqtt.Request{
//	    Device: "lab lakeshore 1",
//	    Method: "temperatures",
//	}, &temps)
package mqtt
