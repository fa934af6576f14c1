package version

import (
	"fmt"
	"runtime"
)

// DWLoaderVersion is the semver of DWLoader
type DWLoaderVersion struct {
	Major int    `json:"major"`
	Minor int    `json:"minor"`
	Patch int    `json:"patch"`
	Name  string `json:"name"`
}

func NewDWLoaderVersion() *DWLoaderVersion {
	return &DWLoaderVersion{
		Major: DWLoaderVerMajor,
		Minor: DWLoaderVerMinor,
		Patch: DWLoaderVerPatch,
		Name:  DWLoaderVerName,
	}
}

// SemVer returns the version in semver format
func (v *DWLoaderVersion) SemVer() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// String is the text printed by --version
func (v *DWLoaderVersion) String() string {
	return fmt.Sprintf("%s %s\n%s", v.Name, v.SemVer(), NewDWLoaderBuildInfo())
}

// DWLoaderBuild describes the build, filled through -ldflags
type DWLoaderBuild struct {
	GitHash   string `json:"gitHash"`
	GitRef    string `json:"gitRef"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

func NewDWLoaderBuildInfo() *DWLoaderBuild {
	return &DWLoaderBuild{
		GitHash:   GitHash,
		GitRef:    GitRef,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (v *DWLoaderBuild) String() string {
	return fmt.Sprintf("Go Version: %s\nPlatform: %s\nGit Ref: %s\nGitHash: %s", v.GoVersion, v.Platform, v.GitRef, v.GitHash)
}
