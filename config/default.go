package config

import (
	"bytes"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"text/template"

	"netstack/buffers"
	"netstack/log"
	"netstack/quantization"

	"github.com/pkg/errors"
)

const ConfigFilename = "config.toml"

var DefaultConfig = Config{
	LogLevel: log.LevelInfo.String(),
	World: WorldConfig{
		X: defaultAxis,
		Y: AxisConfig{
			Min:  -10,
			Max:  40,
			Bits: 14,
		},
		Z: defaultAxis,
	},
	Rotation: RotationConfig{
		BitsPerElement: quantization.DefaultQuaternionBits,
	},
	Pool: PoolConfig{
		MaxArrayLength:     buffers.DefaultMaxArrayLength,
		MaxArraysPerBucket: buffers.DefaultMaxArraysPerBucket,
		LogEvents:          false,
	},
	Simulation: SimulationConfig{
		TickRateHz: 60,
		Burst:      1,
		Players:    16,
		Ticks:      120,
	},
}

var defaultAxis = AxisConfig{
	Min:  -50,
	Max:  50,
	Bits: 16,
}

var defaultConfigTemplate *template.Template

const defaultConfigTemplateText = `# netstack Config File

# Sets the log level. Can be one of the following values:
# - error
# - warn
# - info
# - debug
# - trace
log_level = "{{.LogLevel}}"

# Configures how positions are quantized. Each axis maps [min, max]
# onto an unsigned integer of the given width. Set bits to 0 to derive
# the width from precision, the largest tolerated step between codes.
[world]
{{- range $name, $axis := axes .World}}
  [world.{{$name}}]
    min = {{float $axis.Min}}
    max = {{float $axis.Max}}
    bits = {{$axis.Bits}}
    precision = {{float $axis.Precision}}
{{- end}}

# Configures smallest-three rotation packing. Each rotation
# uses 2 + 3 * bits_per_element bits.
[rotation]
  bits_per_element = {{.Rotation.BitsPerElement}}

# Configures the byte array pool used for outgoing packets.
[pool]
  # Largest array length served from a bucket.
  max_array_length = {{.Pool.MaxArrayLength}}
  # Number of arrays kept per bucket.
  max_arrays_per_bucket = {{.Pool.MaxArraysPerBucket}}
  # Logs every allocation, rent and return.
  log_events = {{.Pool.LogEvents}}

# Configures the simulate command.
[simulation]
  tick_rate_hz = {{.Simulation.TickRateHz}}
  burst = {{.Simulation.Burst}}
  players = {{.Simulation.Players}}
  ticks = {{.Simulation.Ticks}}
`

func GenerateDefaultConfigFile() []byte {
	buf := new(bytes.Buffer)
	if err := defaultConfigTemplate.Execute(buf, DefaultConfig); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func ReadConfigFile(homeDir string) (*Config, error) {
	f, err := os.OpenFile(path.Join(homeDir, ConfigFilename), os.O_RDONLY, 0755)
	if err != nil {
		return nil, errors.Wrap(err, "error opening config file for reading")
	}
	defer f.Close()
	cfg, err := ReadConfig(f)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}
	return cfg, nil
}

func WriteDefaultConfigFile(homeDir string) error {
	f, err := os.OpenFile(path.Join(homeDir, ConfigFilename), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "error opening config file for writing")
	}
	defer f.Close()
	rd := bytes.NewReader(GenerateDefaultConfigFile())
	if _, err := io.Copy(f, rd); err != nil {
		return errors.Wrap(err, "error writing config file")
	}
	return nil
}

// formatFloat always emits a decimal point so TOML reads the value back
// as a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func axes(w WorldConfig) map[string]AxisConfig {
	return map[string]AxisConfig{
		"x": w.X,
		"y": w.Y,
		"z": w.Z,
	}
}

func init() {
	tmpl := template.New("defaultConfig").Funcs(template.FuncMap{
		"float": formatFloat,
		"axes":  axes,
	})
	t, err := tmpl.Parse(defaultConfigTemplateText)
	if err != nil {
		panic(err)
	}
	defaultConfigTemplate = t
}
