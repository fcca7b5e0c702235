// Package kalman implements C8, the KalmanBank: one 2D constant-velocity
// Kalman filter per Track, built with gonum matrices in the same
// matrix-configured-block idiom as the teacher's control package filter
// blocks (cf. control/iir_filters_test.go, control/pid_test.go).
package kalman

import (
	"gonum.org/v1/gonum/mat"
)

// Config bundles C8's tunables (§4.8, §6). EP, EQ, ER are decoded from
// their own distinct keys (§9 open question 3 — the source bug where EQ
// loaded under EP's key is not reproduced).
type Config struct {
	DT     float64 // time_difference, default 0.033 s
	EP, EQ, ER float64
}

// State is a constant-velocity state estimate [x, y, Vx, Vy] with its error
// covariance.
type State struct {
	X mat.VecDense
	P mat.Dense
}

// Filter is a single constant-velocity Kalman filter instance, configured
// once and reused across predict/update calls for one Track.
type Filter struct {
	cfg Config
	a   mat.Dense // state transition
	q   mat.Dense // process noise
	r   mat.Dense // observation noise
	h   mat.Dense // observation model (identity)
}

// NewFilter builds the A/Q/R/H matrices of §4.8 from cfg.
func NewFilter(cfg Config) *Filter {
	f := &Filter{cfg: cfg}

	f.a = *mat.NewDense(4, 4, []float64{
		1, 0, cfg.DT, 0,
		0, 1, 0, cfg.DT,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	f.q = *scaledIdentity(4, cfg.EQ)
	f.r = *scaledIdentity(4, cfg.ER)
	f.h = *scaledIdentity(4, 1)

	return f
}

func scaledIdentity(n int, scale float64) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, scale)
	}
	return m
}

// NewState returns the initial state centered at (x0, y0) with zero
// velocity and P0 = e_p * I, per §4.7 step 1.
func (f *Filter) NewState(x0, y0 float64) *State {
	s := &State{}
	s.X = *mat.NewVecDense(4, []float64{x0, y0, 0, 0})
	s.P = *scaledIdentity(4, f.cfg.EP)
	return s
}

// Predict returns the a priori state: x- = A*x, P- = A*P*A^T + Q.
func (f *Filter) Predict(s *State) *State {
	var xPrior mat.VecDense
	xPrior.MulVec(&f.a, &s.X)

	var ap, apat mat.Dense
	ap.Mul(&f.a, &s.P)
	apat.Mul(&ap, f.a.T())

	var pPrior mat.Dense
	pPrior.Add(&apat, &f.q)

	return &State{X: xPrior, P: pPrior}
}

// Update applies the Kalman correction given an observation z = [x, y, Vx,
// Vy] to a predicted (a priori) state. Per §7, if (H*P-*H^T + R) is
// singular, the update is a no-op and the predicted state/covariance is
// retained unchanged.
func (f *Filter) Update(predicted *State, z mat.VecDense) *State {
	var hp, hpht mat.Dense
	hp.Mul(&f.h, &predicted.P)
	hpht.Mul(&hp, f.h.T())

	var innovCov mat.Dense
	innovCov.Add(&hpht, &f.r)

	var innovCovInv mat.Dense
	if err := innovCovInv.Inverse(&innovCov); err != nil {
		return predicted
	}

	var pht mat.Dense
	pht.Mul(&predicted.P, f.h.T())

	var k mat.Dense
	k.Mul(&pht, &innovCovInv)

	var hx mat.VecDense
	hx.MulVec(&f.h, &predicted.X)

	var innovation mat.VecDense
	innovation.SubVec(&z, &hx)

	var correction mat.VecDense
	correction.MulVec(&k, &innovation)

	var xPosterior mat.VecDense
	xPosterior.AddVec(&predicted.X, &correction)

	var kh mat.Dense
	kh.Mul(&k, &f.h)

	n, _ := kh.Dims()
	var imKH mat.Dense
	imKH.Sub(scaledIdentity(n, 1), &kh)

	var pPosterior mat.Dense
	pPosterior.Mul(&imKH, &predicted.P)

	return &State{X: xPosterior, P: pPosterior}
}

// PositionVelocity returns (x, y, Vx, Vy) from a state vector.
func (s *State) PositionVelocity() (x, y, vx, vy float64) {
	return s.X.AtVec(0), s.X.AtVec(1), s.X.AtVec(2), s.X.AtVec(3)
}
