// Package subspace tracks, online, a low-rank orthonormal basis for the
// delay-coordinate embedding of a scalar signal.
//
// Responsibilities: delay embedding, the exponentially decayed covariance
// estimate, the three basis-update rules (gradient, QR, SVD) with optional
// orthogonal-Procrustes realignment, and the per-sample projection that
// produces the trajectory, basis, distance and separation streams.
// Key types: Config, Mode, Embedder, Result.
//
// The recursion is strictly sequential. Analyze owns the basis and
// covariance state for the duration of a run and checks its context once per
// sample, returning the completed prefix when cancelled.
//
// Real signals are processed with gonum/mat; complex signals go through
// gonum's complex BLAS and the factorizations in internal/cla.
//
// No I/O, plotting or persistence is allowed in this package.
package subspace
