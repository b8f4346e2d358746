// Package compute provides the row runners used for data-parallel field
// evaluation.
//
//   - cpu: splits a row range into chunks, one goroutine per chunk
//   - serial: one call on the calling goroutine
//
// Kernels have no coupling between rows, so any chunking gives the same
// numbers:
//
//	b := compute.NewCPUBackend(0)
//	err := b.Rows(len(obs), func(lo, hi int) error {
//		_, err := kernels.Dipole(field.B, obs[lo:hi], moment[lo:hi])
//		return err
//	})
package compute
