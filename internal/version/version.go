// Package version holds the build identity of sonusmix; Version is written
// to the log at startup.
package version

const (
	Version      = "0.1.0"
	Product      = "sonusmix"
	Manufacturer = "sonusmix"
)
