package kalman

import (
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func defaultConfig() Config {
	return Config{DT: 0.033, EP: 0.5, EQ: 0.5, ER: 0.5}
}

// TestKalmanScenarioS3 mirrors scenario S3: after three frames of constant
// x-motion at 1.0 m/s, the filter's velocity estimate converges near that
// value.
func TestKalmanScenarioS3(t *testing.T) {
	f := NewFilter(defaultConfig())
	state := f.NewState(3.0, 0.0)

	positions := []struct{ x, y float64 }{
		{3.033, 0},
		{3.066, 0},
	}
	prevX, prevY := 3.0, 0.0
	for _, p := range positions {
		predicted := f.Predict(state)
		vx := (p.x - prevX) / f.cfg.DT
		vy := (p.y - prevY) / f.cfg.DT
		z := mat.NewVecDense(4, []float64{p.x, p.y, vx, vy})
		state = f.Update(predicted, *z)
		prevX, prevY = p.x, p.y
	}

	_, _, vx, vy := state.PositionVelocity()
	test.That(t, vx, test.ShouldAlmostEqual, 1.0, 0.2)
	test.That(t, vy, test.ShouldAlmostEqual, 0.0, 0.05)
}

func TestKalmanCovarianceStaysSymmetricPSD(t *testing.T) {
	f := NewFilter(defaultConfig())
	state := f.NewState(0, 0)

	for i := 0; i < 5; i++ {
		predicted := f.Predict(state)
		z := mat.NewVecDense(4, []float64{float64(i) * 0.1, 0, 0.1 / f.cfg.DT, 0})
		state = f.Update(predicted, *z)

		rows, cols := state.P.Dims()
		test.That(t, rows, test.ShouldEqual, 4)
		test.That(t, cols, test.ShouldEqual, 4)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				test.That(t, state.P.At(r, c), test.ShouldAlmostEqual, state.P.At(c, r), 1e-9)
			}
			test.That(t, state.P.At(r, r) >= -1e-9, test.ShouldBeTrue)
		}
	}
}

func TestKalmanSingularInversionIsNoOp(t *testing.T) {
	// With EP=0 and ER=0 the innovation covariance H*P-*H^T + R is the zero
	// matrix on the very first update, which is singular.
	f := NewFilter(Config{DT: 0.033, EP: 0, EQ: 0, ER: 0})
	state := f.NewState(1, 1)
	predicted := f.Predict(state)

	z := mat.NewVecDense(4, []float64{5, 5, 5, 5})
	updated := f.Update(predicted, *z)

	px, py, pvx, pvy := predicted.PositionVelocity()
	ux, uy, uvx, uvy := updated.PositionVelocity()
	test.That(t, ux, test.ShouldAlmostEqual, px)
	test.That(t, uy, test.ShouldAlmostEqual, py)
	test.That(t, uvx, test.ShouldAlmostEqual, pvx)
	test.That(t, uvy, test.ShouldAlmostEqual, pvy)
}

func TestKalmanConfigKeysIndependent(t *testing.T) {
	cfg := Config{DT: 0.033, EP: 1.0, EQ: 2.0, ER: 3.0}
	f := NewFilter(cfg)
	state := f.NewState(0, 0)
	test.That(t, state.P.At(0, 0), test.ShouldEqual, 1.0)
	test.That(t, f.q.At(0, 0), test.ShouldEqual, 2.0)
	test.That(t, f.r.At(0, 0), test.ShouldEqual, 3.0)
}
