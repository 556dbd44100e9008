// Package interpreter identifies candidate Python executables: probing them
// for version/tag/platform information, reading ELF PT_INTERP entries on
// Linux to resolve musl-vs-glibc, and iterating a PATH-like search path for
// candidates.
package interpreter

// PlatformEnv holds the environment-marker-relevant platform fields
// reported by the probe script.
type PlatformEnv struct {
	OS             string `json:"os"`
	Machine        string `json:"machine"`
	Implementation string `json:"implementation"`
	FullVersion    string `json:"full_version"`
}

// Descriptor is the full interpreter descriptor defined in §3: identity,
// version, platform environment, and ordered compatibility tags.
type Descriptor struct {
	AbsolutePath     string      `json:"absolute_path"`
	CanonicalPath    string      `json:"canonical_path"`
	Prefix           string      `json:"prefix"`
	BasePrefix       string      `json:"base_prefix"`
	Major            int         `json:"major"`
	Minor            int         `json:"minor"`
	Micro            int         `json:"micro"`
	ReleaseLevel     string      `json:"release_level"`
	Platform         PlatformEnv `json:"platform"`
	IsFrameworkBuild bool        `json:"is_framework_build"`
	HasEnsurepip     bool        `json:"has_ensurepip"`
	Tags             []TagJSON   `json:"tags"`
}

// TagJSON mirrors tags.Tag in the probe script's JSON vocabulary; kept
// distinct from tags.Tag so this package has no import-cycle dependency on
// the tags package's construction helpers.
type TagJSON struct {
	Python   string `json:"python"`
	ABI      string `json:"abi"`
	Platform string `json:"platform"`
}
