package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the ADR controller core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Units     []UnitConfig    `yaml:"units"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket stream settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
// When enabled, every recorded sample is mirrored as a point.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains rotating log file settings.
// Output "file" or "both" enables it.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains bearer token verification settings.
// An empty secret disables authentication on the API.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// UnitConfig describes one ADR unit. Each unit gets its own controller.
type UnitConfig struct {
	Name string `yaml:"name"`

	// HandsOff logs every instrument write instead of sending it.
	HandsOff bool `yaml:"hands_off"`

	// SleepInterval is the tick period of the non-ramping states.
	SleepInterval time.Duration `yaml:"sleep_interval"`

	// CallTimeout bounds every instrument call.
	CallTimeout time.Duration `yaml:"call_timeout"`

	// ReconcileInterval is how often orphaned peripherals are retried.
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`

	// OutputOffDelay is the pause between zeroing the magnet supply and
	// switching its output off.
	OutputOffDelay time.Duration `yaml:"output_off_delay"`

	// Peripherals maps logical names (lakeshore, magnet, heatswitch,
	// compressor) to the service and device identifier that provide them.
	Peripherals map[string]PeripheralConfig `yaml:"peripherals"`

	Parameters  ParametersConfig  `yaml:"parameters"`
	Calibration CalibrationConfig `yaml:"calibration"`
}

// PeripheralConfig declares where a peripheral is expected to live.
type PeripheralConfig struct {
	Service string `yaml:"service"`
	Device  string `yaml:"device"`
}

// ParametersConfig holds the default values of the controller parameters.
type ParametersConfig struct {
	QuenchLimit        float64       `yaml:"quench_limit"`
	CooldownLimit      float64       `yaml:"cooldown_limit"`
	VoltageLimit       float64       `yaml:"voltage_limit"`
	VoltageStepUp      float64       `yaml:"voltage_step_up"`
	VoltageStepDown    float64       `yaml:"voltage_step_down"`
	TargetCurrent      float64       `yaml:"target_current"`
	MaxCurrent         float64       `yaml:"max_current"`
	RampWaitTime       time.Duration `yaml:"ramp_wait_time"`
	FieldWaitTime      float64       `yaml:"field_wait_time"`
	AutoControl        bool          `yaml:"auto_control"`
	InvertHeatSwitch   bool          `yaml:"invert_heat_switch"`
	AutoRecord         bool          `yaml:"auto_record"`
	RecordInterval     time.Duration `yaml:"record_interval"`
	RecordingStartTemp float64       `yaml:"recording_start_temp"`
	RecordingStopTemp  float64       `yaml:"recording_stop_temp"`
	RecordingChannel   int           `yaml:"recording_channel"`
	LogFile            string        `yaml:"log_file"`
	LogLimit           int           `yaml:"log_limit"`
}

// CalibrationConfig holds the RuOx thermometer calibration.
type CalibrationConfig struct {
	CoefsHighTemp    []float64 `yaml:"ruox_coefs_high_temp"`
	CoefsLowTemp     []float64 `yaml:"ruox_coefs_low_temp"`
	ResistanceCutoff float64   `yaml:"resistance_cutoff"`
	VoltToResCalibs  []float64 `yaml:"volt_to_res_calibs"`
	SwitchPosition   int       `yaml:"switch_position"`
	RuoxChannel      int       `yaml:"ruox_channel"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ADR_SECTION_KEY
// For example: ADR_DATABASE_PATH, ADR_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.applyUnitDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/adr.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "adr-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File: FileLoggingConfig{
				Path:       "./logs/adr.log",
				MaxSize:    50,
				MaxBackups: 5,
				MaxAge:     30,
				Compress:   true,
			},
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				Issuer: "adr-core",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// DefaultParameters returns the factory parameter defaults of an ADR unit.
func DefaultParameters() ParametersConfig {
	return ParametersConfig{
		QuenchLimit:        4.0,
		CooldownLimit:      3.9,
		VoltageLimit:       0.28,
		VoltageStepUp:      0.004,
		VoltageStepDown:    0.004,
		TargetCurrent:      8,
		MaxCurrent:         9,
		RampWaitTime:       200 * time.Millisecond,
		FieldWaitTime:      2.0,
		RecordInterval:     30 * time.Second,
		RecordingStartTemp: 250,
		RecordingStopTemp:  250,
		RecordingChannel:   1,
		LogLimit:           1000,
	}
}

// DefaultCalibration returns the factory RuOx calibration.
func DefaultCalibration() CalibrationConfig {
	coefs := []float64{-0.3199412, 5.74884e-8, -8.8409e-11}
	return CalibrationConfig{
		CoefsHighTemp:    append([]float64(nil), coefs...),
		CoefsLowTemp:     append([]float64(nil), coefs...),
		ResistanceCutoff: 1725.78,
		VoltToResCalibs:  []float64{0.26, 26.03, 25.91, 25.87, 26.36, 26.53},
		SwitchPosition:   2,
		RuoxChannel:      3,
	}
}

// applyUnitDefaults fills zero-valued unit settings.
//
// Unit sections are decoded into fresh structs by yaml.v3, so defaults
// cannot be pre-seeded in defaultConfig and are merged here instead.
// Booleans keep their decoded values.
func (c *Config) applyUnitDefaults() {
	params := DefaultParameters()
	calib := DefaultCalibration()

	for i := range c.Units {
		u := &c.Units[i]
		if u.SleepInterval <= 0 {
			u.SleepInterval = time.Second
		}
		if u.CallTimeout <= 0 {
			u.CallTimeout = 5 * time.Second
		}
		if u.ReconcileInterval <= 0 {
			u.ReconcileInterval = 30 * time.Second
		}
		if u.OutputOffDelay <= 0 {
			u.OutputOffDelay = 500 * time.Millisecond
		}

		p := &u.Parameters
		setFloat(&p.QuenchLimit, params.QuenchLimit)
		setFloat(&p.CooldownLimit, params.CooldownLimit)
		setFloat(&p.VoltageLimit, params.VoltageLimit)
		setFloat(&p.VoltageStepUp, params.VoltageStepUp)
		setFloat(&p.VoltageStepDown, params.VoltageStepDown)
		setFloat(&p.TargetCurrent, params.TargetCurrent)
		setFloat(&p.MaxCurrent, params.MaxCurrent)
		setFloat(&p.FieldWaitTime, params.FieldWaitTime)
		setFloat(&p.RecordingStartTemp, params.RecordingStartTemp)
		setFloat(&p.RecordingStopTemp, params.RecordingStopTemp)
		if p.RampWaitTime <= 0 {
			p.RampWaitTime = params.RampWaitTime
		}
		if p.RecordInterval <= 0 {
			p.RecordInterval = params.RecordInterval
		}
		if p.RecordingChannel <= 0 {
			p.RecordingChannel = params.RecordingChannel
		}
		if p.LogLimit <= 0 {
			p.LogLimit = params.LogLimit
		}

		k := &u.Calibration
		if len(k.CoefsHighTemp) == 0 {
			k.CoefsHighTemp = calib.CoefsHighTemp
		}
		if len(k.CoefsLowTemp) == 0 {
			k.CoefsLowTemp = calib.CoefsLowTemp
		}
		if len(k.VoltToResCalibs) == 0 {
			k.VoltToResCalibs = calib.VoltToResCalibs
		}
		setFloat(&k.ResistanceCutoff, calib.ResistanceCutoff)
		if k.SwitchPosition <= 0 {
			k.SwitchPosition = calib.SwitchPosition
		}
		if k.RuoxChannel <= 0 {
			k.RuoxChannel = calib.RuoxChannel
		}
	}
}

func setFloat(dst *float64, def float64) {
	if *dst == 0 {
		*dst = def
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: ADR_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("ADR_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("ADR_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ADR_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ADR_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("ADR_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("ADR_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security
	if v := os.Getenv("ADR_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// A configured secret must be strong enough that tokens cannot be forged
	// to drive the magnet supply remotely.
	const minJWTSecretLength = 32
	if s := c.Security.JWT.Secret; s != "" && len(s) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(c.Units) == 0 {
		errs = append(errs, "at least one unit must be configured")
	}
	seen := make(map[string]bool, len(c.Units))
	for i, u := range c.Units {
		errs = append(errs, u.validate(i, seen)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (u UnitConfig) validate(i int, seen map[string]bool) []string {
	var errs []string
	prefix := fmt.Sprintf("units[%d]", i)

	if u.Name == "" {
		errs = append(errs, prefix+".name is required")
	} else if seen[u.Name] {
		errs = append(errs, fmt.Sprintf("%s.name %q is duplicated", prefix, u.Name))
	}
	seen[u.Name] = true

	for name, p := range u.Peripherals {
		if p.Service == "" {
			errs = append(errs, fmt.Sprintf("%s.peripherals.%s.service is required", prefix, name))
		}
		if p.Device == "" {
			errs = append(errs, fmt.Sprintf("%s.peripherals.%s.device is required", prefix, name))
		}
	}

	k := u.Calibration
	if len(k.CoefsHighTemp) != 3 || len(k.CoefsLowTemp) != 3 {
		errs = append(errs, prefix+".calibration coefficient lists must have 3 entries")
	}
	if k.SwitchPosition < 1 || k.SwitchPosition > len(k.VoltToResCalibs) {
		errs = append(errs, fmt.Sprintf("%s.calibration.switch_position must be between 1 and %d",
			prefix, len(k.VoltToResCalibs)))
	}

	if u.Parameters.VoltageStepUp < 0 || u.Parameters.VoltageStepDown < 0 {
		errs = append(errs, prefix+".parameters voltage steps must not be negative")
	}

	return errs
}

// Unit returns the configuration of the named unit.
func (c *Config) Unit(name string) (UnitConfig, bool) {
	for _, u := range c.Units {
		if u.Name == name {
			return u, true
		}
	}
	return UnitConfig{}, false
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
