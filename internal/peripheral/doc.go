// Package peripheral binds the logical peripherals of an ADR unit to the
// instrument services that provide them.
//
// Each unit declares four peripherals in its configuration:
//
//	lakeshore   temperature bridge (temperatures and voltages)
//	magnet      magnet power supply
//	heatswitch  heat switch actuator
//	compressor  pulse tube compressor
//
// A declaration names the owning service and a device identifier. The
// Registry resolves each declaration against a Directory of reachable
// services. A declaration binds when the service lists a device whose
// identifier equals the declared one, or failing that, the first device
// whose identifier starts with it ("Kimble" binds to
// "Kimble GPIB Bus - GPIB0::5"). Anything else leaves the peripheral
// orphaned until a later attempt succeeds.
//
// Every declared peripheral is in exactly one of the connected and
// orphaned sets. RetryOrphans only ever moves names from orphaned to
// connected; a connected peripheral becomes orphaned again only through
// Refresh.
//
// Two Directory implementations are provided: MQTTDirectory, fed by the
// retained service announcements on the message bus, and StaticDirectory
// for tests and simulations.
package peripheral
