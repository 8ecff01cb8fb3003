// Package version holds build metadata, set with -ldflags:
//
//	go build -ldflags "-X github.com/keshon/termcord/internal/version.Version=1.2.0"
package version

var (
	AppName   = "termcord"
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// String is the one line version banner.
func String() string {
	return AppName + " " + Version + " (" + Commit + ", " + BuildDate + ")"
}
