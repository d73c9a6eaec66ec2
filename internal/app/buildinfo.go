package app

// Build information populated via -ldflags at build time.
var (
	BuildVersion = "0.0.0-dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)

// UserAgent identifies the tool to the annotate service.
func UserAgent() string {
	return "wikilists/" + BuildVersion + " (+https://github.com/hyperifyio/wikilists)"
}
