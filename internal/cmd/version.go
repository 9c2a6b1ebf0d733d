package cmd

// version is overridden at build time using -ldflags.
var version = "dev"

// Version returns the build version string.
func Version() string {
	return version
}
