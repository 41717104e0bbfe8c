//go:build !nosmote

package resample

const smoteAvailable = true
