// Package version holds the version of sketchnb.
package version

import "github.com/sketchnb/sketchnb/internal/version"

// GitTag is the version of the latest release.
const GitTag = "v0.1.0"

// AppVersion contains version and Git commit information.
//
// The placeholders are replaced on `git archive` using the `export-subst` attribute.
var AppVersion = version.AppVersion(GitTag, "$Format:%(describe)$", "$Format:%H$")
