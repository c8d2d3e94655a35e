package version

// Version is the current metaquery release.
const Version = "0.4.0"

// BuildVersion returns the version string for display
func BuildVersion() string {
	return "metaquery version " + Version
}
