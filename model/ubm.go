package model

import (
	"math"

	"github.com/skillsenselab/vbdiar/errors"
)

// weightSumTolerance bounds how far mixture weights may drift from 1
// before the artifact is rejected. Within tolerance they are renormalized.
const weightSumTolerance = 1e-3

const log2Pi = 1.8378770664093453

// UBM is a diagonal-covariance Gaussian mixture over acoustic features.
// All slices are flat row-major K x D. Instances are read-only after
// construction and safe to share across goroutines.
type UBM struct {
	K int // mixture components
	D int // feature dimension

	Weights []float64 // K, strictly positive, sums to 1
	Means   []float64 // K x D
	InvVars []float64 // K x D, strictly positive

	logWeights   []float64
	logConsts    []float64
	meansInvVars []float64
}

// NewUBM validates mixture parameters and precomputes the per-component
// constants used by per-frame scoring. Weights whose sum is within
// tolerance of 1 are renormalized; anything further off is rejected.
func NewUBM(weights, means, invVars []float64, k, d int) (*UBM, error) {
	if k < 1 {
		return nil, errors.ModelFormatf("ubm must have at least one component, got %d", k)
	}
	if d < 1 {
		return nil, errors.ModelFormatf("ubm feature dimension must be positive, got %d", d)
	}
	if len(weights) != k {
		return nil, errors.ModelFormatf("ubm has %d weights, want %d", len(weights), k)
	}
	if len(means) != k*d {
		return nil, errors.ModelFormatf("ubm means have %d values, want %d", len(means), k*d)
	}
	if len(invVars) != k*d {
		return nil, errors.ModelFormatf("ubm inverse variances have %d values, want %d", len(invVars), k*d)
	}

	sum := 0.0
	for c, w := range weights {
		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, errors.ModelFormatf("ubm component %d has non-positive weight %g", c, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightSumTolerance {
		return nil, errors.ModelFormatf("ubm weights sum to %g, want 1 within %g", sum, weightSumTolerance)
	}
	for i, iv := range invVars {
		if iv <= 0 || math.IsNaN(iv) || math.IsInf(iv, 0) {
			return nil, errors.ModelFormatf("ubm component %d dim %d has non-positive inverse variance %g", i/d, i%d, iv)
		}
	}

	u := &UBM{
		K:            k,
		D:            d,
		Weights:      make([]float64, k),
		Means:        append([]float64(nil), means...),
		InvVars:      append([]float64(nil), invVars...),
		logWeights:   make([]float64, k),
		logConsts:    make([]float64, k),
		meansInvVars: make([]float64, k*d),
	}
	for c := 0; c < k; c++ {
		u.Weights[c] = weights[c] / sum
		u.logWeights[c] = math.Log(u.Weights[c])
	}
	for c := 0; c < k; c++ {
		// logConst_c = log(w_c) - 0.5*(sum_d(iv*m*m - log(iv)) + D*log(2*pi))
		acc := 0.0
		for j := c * d; j < (c+1)*d; j++ {
			m, iv := u.Means[j], u.InvVars[j]
			u.meansInvVars[j] = m * iv
			acc += iv*m*m - math.Log(iv)
		}
		u.logConsts[c] = u.logWeights[c] - 0.5*(acc+float64(d)*log2Pi)
	}
	return u, nil
}

// LogWeights returns the precomputed log mixture weights. Read-only.
func (u *UBM) LogWeights() []float64 { return u.logWeights }

// LogConsts returns the per-component Gaussian log-normalizers with the
// mixture weight folded in. A component's frame log-likelihood is
// LogConsts[c] - 0.5*sum_d(invVar*x*x) + sum_d(meanInvVar*x). Read-only.
func (u *UBM) LogConsts() []float64 { return u.logConsts }

// MeansInvVars returns the element-wise product of Means and InvVars,
// flat row-major K x D. Read-only.
func (u *UBM) MeansInvVars() []float64 { return u.meansInvVars }
