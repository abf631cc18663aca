package sim

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// jumpSampler 复合 Poisson 对数正态跳跃：每步跳跃次数 N ~ Poisson(λ·dt)，
// N > 0 时总对数跳幅近似为 Normal(N·μ, N·σ²).
type jumpSampler struct {
	poisson distuv.Poisson
	muJ     float64
	sigmaJ  float64
}

func newJumpSampler(lambda, muJ, sigmaJ, dt float64, rng *rand.Rand) jumpSampler {
	return jumpSampler{
		poisson: distuv.Poisson{Lambda: lambda * dt, Src: rng},
		muJ:     muJ,
		sigmaJ:  sigmaJ,
	}
}

// sample 返回一步内的总对数跳幅.
func (j jumpSampler) sample(rng *rand.Rand) float64 {
	if j.poisson.Lambda <= 0 {
		return 0
	}
	n := j.poisson.Rand()
	if n == 0 {
		return 0
	}
	return n*j.muJ + math.Sqrt(n)*j.sigmaJ*rng.NormFloat64()
}

func jumpsDeterministic(lambda, muJ, sigmaJ float64) bool {
	return lambda == 0 || muJ == 0 && sigmaJ == 0
}
