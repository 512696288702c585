// Package config provides configuration management for the mediacheck
// verifier, including the player compatibility limits. The limits ship
// with defaults matching the target head unit but stay configurable:
// they are empirically derived from owner reports, not a published
// specification, and may need recalibration.
package config

// Default configuration values for mediacheck.
const (
	// DefaultWorkers is the worker count override; 0 means auto
	// (twice the available hardware parallelism).
	DefaultWorkers = 0

	// DefaultFormat is the default report output format.
	DefaultFormat = "pretty"

	// DefaultConfigDir is the default configuration directory path.
	DefaultConfigDir = "~/.config/mediacheck"
)

// Default player limits for the target head unit.
const (
	// DefaultMaxTotalFiles is the most files the player will index.
	DefaultMaxTotalFiles = 15000

	// DefaultMaxRootFolders is the most folders allowed in the root.
	DefaultMaxRootFolders = 1000

	// DefaultMaxFilesPerFolder is the most direct file children the
	// player reads per folder.
	DefaultMaxFilesPerFolder = 254

	// DefaultMaxNestingDepth is the deepest folder level the player
	// descends into.
	DefaultMaxNestingDepth = 8

	// DefaultMaxPathLength is the longest relative path, in
	// characters, the player resolves.
	DefaultMaxPathLength = 60

	// DefaultMaxFilenameLength is the longest filename the player
	// displays without truncation problems.
	DefaultMaxFilenameLength = 64

	// DefaultMinBitrateKbps and DefaultMaxBitrateKbps bound the MP3
	// bitrates the player decodes.
	DefaultMinBitrateKbps = 32
	DefaultMaxBitrateKbps = 320

	// DefaultForbiddenBitrateKbps is rejected by the player even
	// though it lies inside the supported range.
	DefaultForbiddenBitrateKbps = 144

	// DefaultMaxAlbumArtBytes is the largest embedded artwork the
	// player renders, roughly a 500x500 uncompressed image.
	DefaultMaxAlbumArtBytes = 750 * 1024

	// DefaultClusterSizeBytes is the FAT32 allocation unit size the
	// player seeks fastest with.
	DefaultClusterSizeBytes = 32768
)
