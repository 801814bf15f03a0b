// Package utils holds small helpers shared across tales packages.
package utils

// Build metadata, set through -ldflags at release time.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
