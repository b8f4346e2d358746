package elliptic

import "math"

// Config bounds the iteration of [Config.Iterate].
type Config struct {
	RTol    float64
	MaxIter int
}

func DefaultConfig() Config {
	return Config{RTol: 1e-8, MaxIter: 64}
}

// Iterate is the iterative core of Bulirsch's algorithm. The arguments are the
// state after setup: qc the running modulus, p the running parameter, g the
// previous arithmetic mean, cc and ss the running numerator coefficients, em
// the arithmetic mean and kk the geometric product. It stops when g and qc
// agree to RTol or after MaxIter rounds, whichever comes first.
func (c Config) Iterate(qc, p, g, cc, ss, em, kk float64) float64 {
	tol := c.RTol
	if tol <= 0 {
		tol = DefaultConfig().RTol
	}
	maxIter := c.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultConfig().MaxIter
	}
	for i := 0; i < maxIter && math.Abs(g-qc) >= g*tol; i++ {
		qc = 2 * math.Sqrt(kk)
		kk = qc * em
		f := cc
		cc += ss / p
		g = kk / p
		ss = 2 * (ss + f*g)
		p += g
		g = em
		em += qc
	}
	return math.Pi / 2 * (ss + cc*em) / (em * (em + p))
}

// Cel returns cel(kc, p, c, s). kc == 0 is the logarithmic singularity of the
// integral and yields NaN; callers are expected to branch before reaching it.
func (c Config) Cel(kc, p, cc, ss float64) float64 {
	if kc == 0 {
		return math.NaN()
	}
	k := math.Abs(kc)
	em := 1.0
	var pp float64
	if p > 0 {
		pp = math.Sqrt(p)
		ss /= pp
	} else {
		f := kc * kc
		q := 1 - f
		g := 1 - p
		f -= p
		q *= ss - cc*p
		pp = math.Sqrt(f / g)
		cc = (cc - ss) / g
		ss = -q/(g*g*pp) + cc*pp
	}
	f := cc
	cc += ss / pp
	g := k / pp
	ss = 2 * (ss + f*g)
	pp += g
	g = em
	em += k
	return c.Iterate(k, pp, g, cc, ss, em, k)
}

// Cel evaluates with the default configuration.
func Cel(kc, p, c, s float64) float64 {
	return DefaultConfig().Cel(kc, p, c, s)
}

// EllipK is the complete elliptic integral of the first kind K(m), m = k².
func EllipK(m float64) float64 {
	return Cel(math.Sqrt(1-m), 1, 1, 1)
}

// EllipE is the complete elliptic integral of the second kind E(m), m = k².
func EllipE(m float64) float64 {
	kc := math.Sqrt(1 - m)
	return Cel(kc, 1, 1, kc*kc)
}
