// Package config describes the rover's wiring: which board model it runs
// on and which pins its sensors and motors are attached to. The decision
// thresholds of the planner are compiled in, not configured.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// Board model names accepted in configuration.
const (
	BoardModelFake  = "fakeboard"
	BoardModelLinux = "linuxboard"
)

// A Config is a complete robot description.
type Config struct {
	Board     BoardConfig      `json:"board"`
	Sonars    SonarsConfig     `json:"sonars"`
	Drive     DriveConfig      `json:"drive"`
	Telemetry *TelemetryConfig `json:"telemetry,omitempty"`
}

// BoardConfig selects the hardware backend.
type BoardConfig struct {
	Model   string `json:"model"`
	ChipDev string `json:"chip_dev,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (c *BoardConfig) Validate(path string) error {
	switch c.Model {
	case "":
		return utils.NewConfigValidationFieldRequiredError(path, "model")
	case BoardModelFake:
	case BoardModelLinux:
		if c.ChipDev == "" {
			return utils.NewConfigValidationFieldRequiredError(path, "chip_dev")
		}
	default:
		return utils.NewConfigValidationError(path,
			errors.Errorf("unknown board model %q", c.Model))
	}
	return nil
}

// A SonarConfig is one rangefinder's pin pair.
type SonarConfig struct {
	TriggerPin    string `json:"trigger_pin"`
	EchoInterrupt string `json:"echo_interrupt_pin"`
}

// Validate ensures all parts of the config are valid.
func (c *SonarConfig) Validate(path string) error {
	if c.TriggerPin == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "trigger_pin")
	}
	if c.EchoInterrupt == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "echo_interrupt_pin")
	}
	return nil
}

// SonarsConfig wires the three rangefinders.
type SonarsConfig struct {
	Front SonarConfig `json:"front"`
	Left  SonarConfig `json:"left"`
	Right SonarConfig `json:"right"`
}

// Validate ensures all parts of the config are valid.
func (c *SonarsConfig) Validate(path string) error {
	if err := c.Front.Validate(fmt.Sprintf("%s.front", path)); err != nil {
		return err
	}
	if err := c.Left.Validate(fmt.Sprintf("%s.left", path)); err != nil {
		return err
	}
	return c.Right.Validate(fmt.Sprintf("%s.right", path))
}

// A WheelConfig is one wheel's channel pair.
type WheelConfig struct {
	ForwardPin  string `json:"forward_pin"`
	BackwardPin string `json:"backward_pin"`
}

// Validate ensures all parts of the config are valid.
func (c *WheelConfig) Validate(path string) error {
	if c.ForwardPin == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "forward_pin")
	}
	if c.BackwardPin == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "backward_pin")
	}
	return nil
}

// DriveConfig wires the drivetrain. EnablePin, when present, is the motor
// driver's sleep-disable line: held high while the rover runs.
type DriveConfig struct {
	Left      WheelConfig `json:"left"`
	Right     WheelConfig `json:"right"`
	EnablePin string      `json:"enable_pin,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (c *DriveConfig) Validate(path string) error {
	if err := c.Left.Validate(fmt.Sprintf("%s.left", path)); err != nil {
		return err
	}
	return c.Right.Validate(fmt.Sprintf("%s.right", path))
}

// TelemetryConfig wires the optional MQTT reporter.
type TelemetryConfig struct {
	Broker string `json:"broker"`
	Topic  string `json:"topic"`
}

// Validate ensures all parts of the config are valid.
func (c *TelemetryConfig) Validate(path string) error {
	if c.Broker == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "broker")
	}
	if c.Topic == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "topic")
	}
	return nil
}

// Validate ensures the whole description is valid.
func (c *Config) Validate() error {
	if err := c.Board.Validate("board"); err != nil {
		return err
	}
	if err := c.Sonars.Validate("sonars"); err != nil {
		return err
	}
	if err := c.Drive.Validate("drive"); err != nil {
		return err
	}
	if c.Telemetry != nil {
		return c.Telemetry.Validate("telemetry")
	}
	return nil
}

// Read loads and validates a robot description from a JSON file.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %q", path)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
