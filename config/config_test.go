package config

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func validConfig() Config {
	return Config{
		Board: BoardConfig{Model: BoardModelFake},
		Sonars: SonarsConfig{
			Front: SonarConfig{TriggerPin: "1", EchoInterrupt: "2"},
			Left:  SonarConfig{TriggerPin: "3", EchoInterrupt: "4"},
			Right: SonarConfig{TriggerPin: "5", EchoInterrupt: "6"},
		},
		Drive: DriveConfig{
			Left:  WheelConfig{ForwardPin: "7", BackwardPin: "8"},
			Right: WheelConfig{ForwardPin: "9", BackwardPin: "10"},
		},
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	test.That(t, cfg.Validate(), test.ShouldBeNil)

	t.Run("missing board model", func(t *testing.T) {
		cfg := validConfig()
		cfg.Board.Model = ""
		test.That(t, cfg.Validate(), test.ShouldNotBeNil)
	})

	t.Run("unknown board model", func(t *testing.T) {
		cfg := validConfig()
		cfg.Board.Model = "etch-a-sketch"
		test.That(t, cfg.Validate(), test.ShouldNotBeNil)
	})

	t.Run("linuxboard needs a chip device", func(t *testing.T) {
		cfg := validConfig()
		cfg.Board.Model = BoardModelLinux
		test.That(t, cfg.Validate(), test.ShouldNotBeNil)
		cfg.Board.ChipDev = "/dev/gpiochip0"
		test.That(t, cfg.Validate(), test.ShouldBeNil)
	})

	t.Run("sonar needs both pins", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sonars.Left.EchoInterrupt = ""
		test.That(t, cfg.Validate(), test.ShouldNotBeNil)
	})

	t.Run("wheel needs both channels", func(t *testing.T) {
		cfg := validConfig()
		cfg.Drive.Right.BackwardPin = ""
		test.That(t, cfg.Validate(), test.ShouldNotBeNil)
	})

	t.Run("telemetry needs broker and topic together", func(t *testing.T) {
		cfg := validConfig()
		cfg.Telemetry = &TelemetryConfig{Broker: "tcp://localhost:1883"}
		test.That(t, cfg.Validate(), test.ShouldNotBeNil)
		cfg.Telemetry.Topic = "roamer/status"
		test.That(t, cfg.Validate(), test.ShouldBeNil)
	})
}

func TestRead(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "rover.json")
	test.That(t, os.WriteFile(good, []byte(`{
		"board": {"model": "fakeboard"},
		"sonars": {
			"front": {"trigger_pin": "1", "echo_interrupt_pin": "2"},
			"left": {"trigger_pin": "3", "echo_interrupt_pin": "4"},
			"right": {"trigger_pin": "5", "echo_interrupt_pin": "6"}
		},
		"drive": {
			"left": {"forward_pin": "7", "backward_pin": "8"},
			"right": {"forward_pin": "9", "backward_pin": "10"},
			"enable_pin": "11"
		}
	}`), 0o600), test.ShouldBeNil)

	cfg, err := Read(good)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Board.Model, test.ShouldEqual, BoardModelFake)
	test.That(t, cfg.Drive.EnablePin, test.ShouldEqual, "11")
	test.That(t, cfg.Telemetry, test.ShouldBeNil)

	_, err = Read(filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	bad := filepath.Join(dir, "bad.json")
	test.That(t, os.WriteFile(bad, []byte("{"), 0o600), test.ShouldBeNil)
	_, err = Read(bad)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReadSample(t *testing.T) {
	cfg, err := Read("../etc/rover.json")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Sonars.Front.TriggerPin, test.ShouldNotBeEmpty)
}
