// Package issue provides the compatibility issue data model and the
// thread-safe collector that aggregates findings from concurrent scan
// workers into one deterministic report.
package issue

// Severity indicates how serious an issue is for the target player.
type Severity int

// Severities from most to least serious. Error-severity issues are
// expected to prevent playback; warnings may degrade it.
const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// String returns the uppercase severity name used in reports.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	case SeverityInfo:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}

// Category classifies a compatibility issue. The string form of each
// category is a durable contract: downstream remediation tools key off
// it to decide which fix applies, and must ignore unknown values.
type Category int

// Issue categories, ordered roughly from volume-level to file-level.
const (
	CategoryFilesystem Category = iota
	CategoryPartitionScheme
	CategoryClusterSize
	CategoryTotalFiles
	CategoryRootFolders
	CategoryFilesPerFolder
	CategoryNestingDepth
	CategoryPathLength
	CategoryFilenameLength
	CategoryInvalidCharacters
	CategoryUnsupportedFormat
	CategoryEncoding
	CategoryBitrate
	CategorySampleRate
	CategoryID3Tags
	CategoryAlbumArt
	CategoryReadError
)

// categoryNames maps categories to their report names. These names
// appear in the issue_type CSV column and must not change.
var categoryNames = map[Category]string{
	CategoryFilesystem:        "Filesystem",
	CategoryPartitionScheme:   "Partition Scheme",
	CategoryClusterSize:       "Cluster Size",
	CategoryTotalFiles:        "Total Files",
	CategoryRootFolders:       "Root Folders",
	CategoryFilesPerFolder:    "Files Per Folder",
	CategoryNestingDepth:      "Nesting Depth",
	CategoryPathLength:        "Path Length",
	CategoryFilenameLength:    "Filename Length",
	CategoryInvalidCharacters: "Invalid Characters",
	CategoryUnsupportedFormat: "Unsupported Formats",
	CategoryEncoding:          "Encoding",
	CategoryBitrate:           "Bitrate",
	CategorySampleRate:        "Sample Rate",
	CategoryID3Tags:           "ID3 Tags",
	CategoryAlbumArt:          "Album Art",
	CategoryReadError:         "Read Error",
}

// String returns the report name for the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "Unknown"
}

// Record is one detected compatibility violation. Records are immutable
// values: whichever stage detects the condition creates the record once
// and hands ownership to the Collector.
type Record struct {
	// Path is the file or directory path relative to the scan root.
	// Volume-level issues use an empty path.
	Path string `json:"path"`

	// Category classifies the issue for remediation dispatch.
	Category Category `json:"category"`

	// Severity indicates whether playback is prevented or degraded.
	Severity Severity `json:"severity"`

	// Description is the human-readable detail for the issue.
	Description string `json:"description"`
}
