package config

import (
	"io"

	"netstack/buffers"
	"netstack/quantization"
	"netstack/wire"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

type Config struct {
	LogLevel   string           `mapstructure:"log_level"`
	World      WorldConfig      `mapstructure:"world"`
	Rotation   RotationConfig   `mapstructure:"rotation"`
	Pool       PoolConfig       `mapstructure:"pool"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

type WorldConfig struct {
	X AxisConfig `mapstructure:"x"`
	Y AxisConfig `mapstructure:"y"`
	Z AxisConfig `mapstructure:"z"`
}

// AxisConfig describes the quantized range of one position axis. Bits wins
// over Precision when both are set.
type AxisConfig struct {
	Min       float64 `mapstructure:"min"`
	Max       float64 `mapstructure:"max"`
	Bits      int     `mapstructure:"bits"`
	Precision float64 `mapstructure:"precision"`
}

type RotationConfig struct {
	BitsPerElement int `mapstructure:"bits_per_element"`
}

type PoolConfig struct {
	MaxArrayLength     int  `mapstructure:"max_array_length"`
	MaxArraysPerBucket int  `mapstructure:"max_arrays_per_bucket"`
	LogEvents          bool `mapstructure:"log_events"`
}

type SimulationConfig struct {
	TickRateHz int `mapstructure:"tick_rate_hz"`
	Burst      int `mapstructure:"burst"`
	Players    int `mapstructure:"players"`
	Ticks      int `mapstructure:"ticks"`
}

func ReadConfig(r io.Reader) (*Config, error) {
	decoder := toml.NewDecoder(r)
	decoder.SetTagName("mapstructure")
	config := &Config{}
	if err := decoder.Decode(config); err != nil {
		return nil, errors.Wrap(err, "error decoding config file")
	}
	return config, nil
}

func (a AxisConfig) Range() (quantization.BoundedRange, error) {
	if a.Bits != 0 {
		return quantization.NewBoundedRange(a.Min, a.Max, a.Bits)
	}
	return quantization.NewBoundedRangePrecision(a.Min, a.Max, a.Precision)
}

func (c *Config) Schema() (*wire.Schema, error) {
	var ranges quantization.Ranges3
	for i, axis := range []AxisConfig{c.World.X, c.World.Y, c.World.Z} {
		r, err := axis.Range()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid range for axis %c", "xyz"[i])
		}
		ranges[i] = r
	}
	return wire.NewSchema(ranges, c.Rotation.BitsPerElement)
}

// NewPool builds an array pool from the [pool] section. Events go to
// listeners, and are also logged when log_events is set.
func (c *Config) NewPool(listeners ...buffers.EventListener) (*buffers.ArrayPool, error) {
	if c.Pool.LogEvents {
		listeners = append(listeners, buffers.NewLogListener())
	}
	var listener buffers.EventListener
	switch len(listeners) {
	case 0:
	case 1:
		listener = listeners[0]
	default:
		listener = buffers.MultiListener(listeners)
	}
	return buffers.NewArrayPool(c.Pool.MaxArrayLength, c.Pool.MaxArraysPerBucket, listener)
}
