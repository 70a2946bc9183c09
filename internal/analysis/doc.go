// Package analysis post-processes trajectories produced by the integrators.
//
//   - [Spectrum]: power spectrum of one component of a uniform trajectory
//   - [EnsembleStats]: mean and variance across runs at every step
//   - [Sweep]: parameter sweep recording the extrema of the settled solution
//   - [DelayPortrait]: x(t) against x(t - tau), the natural phase plane of a DDE
//   - [Divergence]: distance and separation rate between two trajectories
//
// Lookups into a history that cannot be served are reported as errors
// wrapping [dynamo.PreconditionError] rather than panics.
package analysis
