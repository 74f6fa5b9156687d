package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fatih/color"
)

// Build metadata; override with -ldflags "-X tensorc/internal/version.GitCommit=...".
var (
	Major = "0"
	Minor = "3"
	Patch = "0"
	Pre   = "dev"

	GitCommit = ""
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// String returns the plain semantic version.
func String() string {
	v := Major + "." + Minor + "." + Patch
	if Pre != "" {
		v += "-" + Pre
	}
	return v
}

// Colored is String with each component highlighted.
func Colored() string {
	v := majorColor.Sprint(Major) + "." + minorColor.Sprint(Minor) + "." + patchColor.Sprint(Patch)
	if Pre != "" {
		v += "-" + Pre
	}
	return v
}

// Info is the machine-readable build description.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func Current() Info {
	return Info{
		Version:   String(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Banner is the multi-line text printed by `tensorc version`.
func Banner(colored bool) string {
	var sb strings.Builder
	v := String()
	if colored {
		v = Colored()
	}
	fmt.Fprintf(&sb, "tensorc %s\n", v)
	info := Current()
	if info.GitCommit != "" {
		fmt.Fprintf(&sb, "commit:   %s\n", info.GitCommit)
	}
	if info.BuildDate != "" {
		fmt.Fprintf(&sb, "built:    %s\n", info.BuildDate)
	}
	fmt.Fprintf(&sb, "go:       %s %s\n", info.GoVersion, info.Platform)
	return sb.String()
}
