// Package version holds build identification.
package version

// Version is the release version, overridable at build time with
// -ldflags "-X room-studio/internal/version.Version=...".
var Version = "0.3.0"

// AppName is the user-visible application name.
const AppName = "Room Studio"

// AppID is the Fyne application identifier.
const AppID = "io.roomstudio.app"
