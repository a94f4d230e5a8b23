package version

// Version is the build version of the runner, set at build time:
// -ldflags "-X github.com/rxtech-lab/argo-bots/internal/version.Version=1.2.3"
// "main" marks a development build.
var Version = "main"

// GetVersion returns the build version.
func GetVersion() string {
	return Version
}
