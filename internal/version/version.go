package version

// Version is the application version. Override via ldflags:
//
//	go build -ldflags "-X KrishiMitra/internal/version.Version=1.2.3 -X KrishiMitra/internal/version.Build=153"
var Version = "0.1.0"

// Build is the build number, injected at compile time.
var Build = "dev"

// String renders "0.1.0 (build dev)" for banners and the version command.
func String() string {
	return Version + " (build " + Build + ")"
}
