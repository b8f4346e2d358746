// Package elliptic evaluates Bulirsch's general complete elliptic integral
//
//	cel(kc, p, c, s) = ∫₀^{π/2} (c·cos²φ + s·sin²φ) / ((cos²φ + p·sin²φ)·√(cos²φ + kc²·sin²φ)) dφ
//
// which covers K, E and Π as special parameter choices. [Cel] performs the
// argument setup and [Config.Iterate] runs the AGM-like loop that converges
// quadratically. The iteration budget and tolerance are explicit so callers
// can thread them through from configuration.
//
// [EllipK] and [EllipE] expose K(m) and E(m) in the parameter m = k² for
// callers outside the field kernels, which use [Config.Cel] directly.
package elliptic
