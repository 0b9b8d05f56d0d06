// Package influxdb mirrors recorded ADR temperature datasets into InfluxDB.
//
// The SQLite dataset store is the record of truth; InfluxDB receives the
// same samples as points in the adr_recording measurement, tagged by unit
// and dataset, for dashboards.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	mirror := influxdb.NewDatasetMirror(client, "adr1")
//	handle, _ := mirror.CreateDataset(ctx, "adr1 2026-03-01 09:00", "time [s]", columns)
//	_ = mirror.AppendRow(ctx, handle, time.Now(), values)
//
// Writes are asynchronous; failures are reported through SetOnError.
package influxdb
