package instrument

import "context"

// Facade is the set of instrument operations the controller depends on.
//
// Temperatures and voltages are returned in bridge channel order. Index 1
// and 2 of the temperatures are the monitored precooling stages; index 6
// and 7 of the voltages are the magnet interlock channels.
type Facade interface {
	ReadTemperatures(ctx context.Context) ([]float64, error)
	ReadVoltages(ctx context.Context) ([]float64, error)

	ReadMagnetCurrent(ctx context.Context) (float64, error)
	ReadMagnetVoltage(ctx context.Context) (float64, error)
	SetMagnetCurrent(ctx context.Context, amps float64) error
	SetMagnetVoltage(ctx context.Context, volts float64) error
	SetOutputState(ctx context.Context, on bool) error

	OpenHeatSwitch(ctx context.Context) error
	CloseHeatSwitch(ctx context.Context) error

	StartCompressor(ctx context.Context) error
	StopCompressor(ctx context.Context) error
	CompressorRunning(ctx context.Context) (bool, error)
}
