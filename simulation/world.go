package simulation

import (
	"math"
	"math/rand"

	"netstack/quantization"
	"netstack/wire"
)

const (
	maxSpeed   = 8
	maxSpinRad = math.Pi
)

// world moves players in straight lines, bouncing off the edges of the
// schema's position ranges, while they spin around the vertical axis.
type world struct {
	bounds  quantization.Ranges3
	players []wire.PlayerState
	spin    []float64
	yaw     []float64
}

func newWorld(schema *wire.Schema, count int, rng *rand.Rand) *world {
	w := &world{
		bounds:  schema.Position,
		players: make([]wire.PlayerState, count),
		spin:    make([]float64, count),
		yaw:     make([]float64, count),
	}
	for i := range w.players {
		p := &w.players[i]
		p.ID = int32(i + 1)
		p.Position = quantization.Vector3{
			X: randIn(rng, w.bounds[0]),
			Y: randIn(rng, w.bounds[1]),
			Z: randIn(rng, w.bounds[2]),
		}
		p.Velocity = quantization.Vector3{
			X: float32((rng.Float64()*2 - 1) * maxSpeed),
			Y: float32((rng.Float64()*2 - 1) * maxSpeed),
			Z: float32((rng.Float64()*2 - 1) * maxSpeed),
		}
		w.spin[i] = (rng.Float64()*2 - 1) * maxSpinRad
		w.yaw[i] = rng.Float64() * 2 * math.Pi
		p.Rotation = yawQuaternion(w.yaw[i])
	}
	return w
}

func (w *world) step(dt float64) {
	for i := range w.players {
		p := &w.players[i]
		p.Position.X, p.Velocity.X = move(p.Position.X, p.Velocity.X, dt, w.bounds[0])
		p.Position.Y, p.Velocity.Y = move(p.Position.Y, p.Velocity.Y, dt, w.bounds[1])
		p.Position.Z, p.Velocity.Z = move(p.Position.Z, p.Velocity.Z, dt, w.bounds[2])
		w.yaw[i] = math.Mod(w.yaw[i]+w.spin[i]*dt, 2*math.Pi)
		p.Rotation = yawQuaternion(w.yaw[i])
	}
}

// snapshot copies the current player states.
func (w *world) snapshot() []wire.PlayerState {
	out := make([]wire.PlayerState, len(w.players))
	copy(out, w.players)
	return out
}

func move(pos float32, vel float32, dt float64, r quantization.BoundedRange) (float32, float32) {
	next := float64(pos) + float64(vel)*dt
	switch {
	case next < r.Min():
		return float32(r.Min()), -vel
	case next > r.Max():
		return float32(r.Max()), -vel
	default:
		return float32(next), vel
	}
}

func randIn(rng *rand.Rand, r quantization.BoundedRange) float32 {
	return float32(r.Min() + rng.Float64()*(r.Max()-r.Min()))
}

func yawQuaternion(yaw float64) quantization.Quaternion {
	s, c := math.Sincos(yaw / 2)
	return quantization.Quaternion{Y: float32(s), W: float32(c)}
}
