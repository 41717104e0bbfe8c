//go:build nosmote

package resample

// Built with the nosmote tag: New reports ErrUnavailable.
const smoteAvailable = false
