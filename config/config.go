// Package config loads the enclosure configuration file.
package config

import (
	"os"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
	"gopkg.in/yaml.v3"

	"github.com/openobs/enclosure/messaging"
	"github.com/openobs/enclosure/store"
)

// DefaultWeatherSerialPort is used when the weather section does not name a
// port for the AAG cloud sensor.
const DefaultWeatherSerialPort = "/dev/ttyUSB0"

// A SerialConfig locates one serial device.
type SerialConfig struct {
	Port string `yaml:"serial_port"`
	Baud uint   `yaml:"baud,omitempty"`
}

// EnvironmentConfig describes the environment sensor's boards. A board with
// an empty port is treated as not installed.
type EnvironmentConfig struct {
	Telemetry  SerialConfig `yaml:"telemetry_board"`
	Camera     SerialConfig `yaml:"camera_board"`
	Power      SerialConfig `yaml:"power_board"`
	Attributes AttributeMap `yaml:"attributes,omitempty"`
}

// AAGConfig describes the AAG CloudWatcher weather sensor.
type AAGConfig struct {
	SerialPort string       `yaml:"serial_port"`
	Attributes AttributeMap `yaml:"attributes,omitempty"`
}

// WeatherConfig groups the weather station devices.
type WeatherConfig struct {
	AAGCloud AAGConfig `yaml:"aag_cloud"`
}

// Config is the root of the enclosure configuration file.
type Config struct {
	Name        string               `yaml:"name"`
	DB          store.MongoConfig    `yaml:"db,omitempty"`
	MQTT        messaging.MQTTConfig `yaml:"mqtt,omitempty"`
	Environment EnvironmentConfig    `yaml:"environment"`
	Weather     WeatherConfig        `yaml:"weather"`
	HistoryFile string               `yaml:"history_file,omitempty"`
}

// Read loads and validates the configuration at path.
func Read(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %q", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config for required fields.
func (c *Config) Validate() error {
	if c.Name == "" {
		return goutils.NewConfigValidationFieldRequiredError("", "name")
	}
	if c.DB.URI != "" && c.DB.Database == "" {
		return goutils.NewConfigValidationFieldRequiredError("db", "database")
	}
	return nil
}

// WeatherSerialPort returns the configured AAG cloud sensor port, or the
// documented default when the config is silent.
func (c *Config) WeatherSerialPort() string {
	if c.Weather.AAGCloud.SerialPort == "" {
		return DefaultWeatherSerialPort
	}
	return c.Weather.AAGCloud.SerialPort
}
