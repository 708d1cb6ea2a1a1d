package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
)

type VersionInfo struct {
	Version     string
	Commit      string
	CommitLink  string
	ReleaseLink string
}

const (
	BaseVersionControlURL string = "https://github.com/sketchnb/sketchnb"
)

// AppVersion determines version and commit information based on multiple data sources:
//   - Information added by `git archive` in the last two parameters.
//   - A hardcoded version number passed as first parameter.
//   - Commit information added to the binary by `go build`.
//
// It's supposed to be called like this, with the `export-subst` attribute set
// for the file in .gitattributes:
//
//	var AppVersion = version.AppVersion("v0.1.0", "$Format:%(describe)$", "$Format:%H$")
//
// When exported with `git archive` the placeholders are replaced and preferred. Otherwise, the
// hardcoded version is used, with the commit information from the build metadata.
func AppVersion(version, gitVersion, gitHash string) *VersionInfo {
	if !strings.HasPrefix(gitVersion, "$") && !strings.HasPrefix(gitHash, "$") {
		return newVersionInfo(gitVersion, gitVersion, gitHash)
	}

	var commit string
	releaseVersion := version
	if info, ok := debug.ReadBuildInfo(); ok {
		var modified bool
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				commit = setting.Value
			case "vcs.modified":
				modified, _ = strconv.ParseBool(setting.Value)
			}
		}
		if modified && commit != "" {
			version += "-dirty"
			commit += " (modified)"
		}
	}
	return newVersionInfo(version, releaseVersion, commit)
}

func newVersionInfo(version, releaseVersion, commit string) *VersionInfo {
	v := &VersionInfo{
		Version:     version,
		Commit:      commit,
		ReleaseLink: fmt.Sprintf("%s/releases/tag/%s", BaseVersionControlURL, releaseVersion),
	}
	if commit != "" {
		v.CommitLink = fmt.Sprintf("%s/tree/%s", BaseVersionControlURL, strings.TrimSuffix(commit, " (modified)"))
	}
	return v
}

// String returns the version.
func (v *VersionInfo) String() string {
	return v.Version
}

// Print writes verbose version output to w.
func (v *VersionInfo) Print(w io.Writer) {
	_, _ = fmt.Fprintln(w, "sketchnb version:", v.Version)
	_, _ = fmt.Fprintln(w)
	if v.CommitLink != "" {
		_, _ = fmt.Fprintln(w, "Version control info:")
		_, _ = fmt.Fprintf(w, "  Commit: %s\n", v.CommitLink)
		_, _ = fmt.Fprintf(w, "  Release: %s\n", v.ReleaseLink)
		_, _ = fmt.Fprintln(w)
	}
	_, _ = fmt.Fprintln(w, "Build info:")
	_, _ = fmt.Fprintf(w, "  Go version: %s (OS: %s, arch: %s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Markdown returns the version information formatted in Markdown, to be
// displayed in a notebook.
func (v *VersionInfo) Markdown() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "## sketchnb version: `%s`\n\n", v.Version)
	if v.CommitLink != "" {
		sb.WriteString("### Version Control Info\n")
		_, _ = fmt.Fprintf(&sb, "- Commit: [%s](%s)\n", v.Commit, v.CommitLink)
		_, _ = fmt.Fprintf(&sb, "- Release: [%s](%s)\n\n", v.Version, v.ReleaseLink)
	}
	sb.WriteString("### Build Info\n")
	_, _ = fmt.Fprintf(&sb, "- Go version: %s (OS: %s, Arch: %s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return sb.String()
}
