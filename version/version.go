package version

var (
	// DWLoaderVerMajor is the major version of DWLoader
	DWLoaderVerMajor = 0
	// DWLoaderVerMinor is the minor version of DWLoader
	DWLoaderVerMinor = 1
	// DWLoaderVerPatch is the patch version of DWLoader
	DWLoaderVerPatch = 0
	// DWLoaderVerName is an alternative name of the version
	DWLoaderVerName = "DWLoader"
	// GitHash is the current git commit hash
	GitHash = "Unknown"
	// GitRef is the current git reference name (branch or tag)
	GitRef = "Unknown"
)
