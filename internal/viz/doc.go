// Package viz renders ensemble progress in the terminal.
//
// [EnsembleModel] is a Bubble Tea model fed with finished runs through an
// [Observer]. It shows progress, throughput and a histogram of the final
// value of one component.
//
// # Key Bindings
//
//	q, ctrl+c - cancel the ensemble and quit
package viz
