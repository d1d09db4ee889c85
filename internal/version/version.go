package version

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/gendocs/internal/version.Version=v0.3.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Generator is the identifier written into generated document frontmatter.
func Generator() string {
	if Version == "unknown" {
		return "gendocs"
	}
	return "gendocs " + Version
}
