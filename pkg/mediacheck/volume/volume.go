// Package volume inspects the filesystem, partition scheme, and
// allocation unit size of the mount backing the scan root. The target
// head unit only reads FAT-formatted MBR volumes, so an incompatible
// layout gates the whole scan.
//
// Introspection fails softly: any field the platform cannot determine
// is reported as Unknown with an Info-severity record rather than
// failing the scan.
package volume

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/jamesainslie/mediacheck/pkg/mediacheck/config"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/issue"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/logging"
)

// Filesystem identifies the filesystem family of the scanned volume.
type Filesystem int

// Filesystem families the inspector distinguishes.
const (
	FilesystemUnknown Filesystem = iota
	FilesystemFAT32
	FilesystemFAT16
	FilesystemNTFS
	FilesystemExFAT
	FilesystemOther
)

// String returns the display name of the filesystem family.
func (f Filesystem) String() string {
	switch f {
	case FilesystemFAT32:
		return "FAT32"
	case FilesystemFAT16:
		return "FAT16"
	case FilesystemNTFS:
		return "NTFS"
	case FilesystemExFAT:
		return "exFAT"
	case FilesystemOther:
		return "Other"
	default:
		return "Unknown"
	}
}

// PartitionScheme identifies the partition table format of the disk
// backing the volume.
type PartitionScheme int

// Partition table formats.
const (
	SchemeUnknown PartitionScheme = iota
	SchemeMBR
	SchemeGPT
)

// String returns the display name of the partition scheme.
func (s PartitionScheme) String() string {
	switch s {
	case SchemeMBR:
		return "MBR"
	case SchemeGPT:
		return "GPT"
	default:
		return "Unknown"
	}
}

// Profile describes the volume backing the scan root. It is created
// once per scan and read-only afterward.
type Profile struct {
	// Filesystem is the detected filesystem family.
	Filesystem Filesystem `json:"filesystem"`

	// FilesystemName is the raw type string the platform reported,
	// useful in descriptions when the family is Other.
	FilesystemName string `json:"filesystem_name,omitempty"`

	// PartitionScheme is the partition table format of the backing disk.
	PartitionScheme PartitionScheme `json:"partition_scheme"`

	// ClusterSizeBytes is the allocation unit size; 0 means unknown.
	ClusterSizeBytes int64 `json:"cluster_size_bytes,omitempty"`

	// Device is the backing device path, when determinable.
	Device string `json:"device,omitempty"`

	// MountPoint is the resolved mount point containing the scan root.
	MountPoint string `json:"mount_point,omitempty"`
}

// ErrUnavailable indicates the platform facility for a field is not
// implemented or not accessible; the field degrades to Unknown.
var ErrUnavailable = errors.New("volume introspection unavailable")

// Inspector detects volume properties for a mount path. The probe
// functions are swappable so tests can run without real devices.
type Inspector struct {
	log *logging.Logger

	// partitions lists mounted partitions; defaults to gopsutil.
	partitions func() ([]disk.PartitionStat, error)

	// scheme detects the partition table format of a device; the
	// default is platform-specific and may shell out.
	scheme func(ctx context.Context, device string) (PartitionScheme, error)

	// clusterSize reads the allocation unit size for a path.
	clusterSize func(path string) (int64, error)
}

// NewInspector creates an inspector using the native facilities of the
// current platform.
func NewInspector() *Inspector {
	return &Inspector{
		log:         logging.Get("volume"),
		partitions:  func() ([]disk.PartitionStat, error) { return disk.Partitions(true) },
		scheme:      detectScheme,
		clusterSize: detectClusterSize,
	}
}

// Inspect determines the volume profile for the given mount path.
// Fields that cannot be determined are left Unknown; Inspect itself
// never fails.
func (in *Inspector) Inspect(ctx context.Context, mountPath string) Profile {
	profile := Profile{}

	resolved, err := filepath.Abs(mountPath)
	if err != nil {
		resolved = mountPath
	}
	if target, err := filepath.EvalSymlinks(resolved); err == nil {
		resolved = target
	}

	parts, err := in.partitions()
	if err != nil {
		in.log.Warn("partition enumeration failed", "error", err)
	} else if part, ok := matchMount(resolved, parts); ok {
		profile.MountPoint = part.Mountpoint
		profile.Device = part.Device
		profile.Filesystem, profile.FilesystemName = normalizeFilesystem(part.Fstype)
	}

	if profile.Device != "" {
		scheme, err := in.scheme(ctx, profile.Device)
		if err != nil {
			in.log.Debug("partition scheme detection failed", "device", profile.Device, "error", err)
		} else {
			profile.PartitionScheme = scheme
		}
	}

	size, err := in.clusterSize(resolved)
	if err != nil {
		in.log.Debug("cluster size detection failed", "path", resolved, "error", err)
	} else {
		profile.ClusterSizeBytes = size
	}

	in.log.Info("volume inspected",
		"mount", profile.MountPoint,
		"filesystem", profile.Filesystem.String(),
		"scheme", profile.PartitionScheme.String(),
		"cluster_size", profile.ClusterSizeBytes)

	return profile
}

// matchMount finds the partition whose mount point is the longest
// prefix of the path, the mount actually containing it.
func matchMount(path string, parts []disk.PartitionStat) (disk.PartitionStat, bool) {
	var best disk.PartitionStat
	bestLen := 0
	for _, p := range parts {
		mp := p.Mountpoint
		if mp == "" {
			continue
		}
		if path == mp || strings.HasPrefix(path, withSeparator(mp)) {
			if len(mp) > bestLen {
				best = p
				bestLen = len(mp)
			}
		}
	}
	return best, bestLen > 0
}

// withSeparator appends the path separator unless the mount point is
// already a bare root like "/" or "C:\".
func withSeparator(mount string) string {
	if strings.HasSuffix(mount, string(os.PathSeparator)) {
		return mount
	}
	return mount + string(os.PathSeparator)
}

// normalizeFilesystem maps a raw platform fstype string onto the
// filesystem families the player cares about.
func normalizeFilesystem(fstype string) (Filesystem, string) {
	raw := strings.TrimSpace(fstype)
	switch strings.ToLower(raw) {
	case "":
		return FilesystemUnknown, raw
	case "vfat", "fat32", "fat", "msdos", "ms-dos fat32":
		return FilesystemFAT32, raw
	case "fat16", "ms-dos fat16":
		return FilesystemFAT16, raw
	case "ntfs", "ntfs3":
		return FilesystemNTFS, raw
	case "exfat":
		return FilesystemExFAT, raw
	default:
		return FilesystemOther, raw
	}
}

// Check derives issue records from a profile: hard incompatibilities,
// soft recommendations, and Info records for fields that could not be
// determined.
func Check(p Profile, limits config.Limits) []issue.Record {
	var records []issue.Record

	switch p.Filesystem {
	case FilesystemFAT32:
		// Compatible, nothing to report.
	case FilesystemFAT16:
		records = append(records, issue.Record{
			Category:    issue.CategoryFilesystem,
			Severity:    issue.SeverityInfo,
			Description: "filesystem is FAT16 (compatible, FAT32 preferred)",
		})
	case FilesystemUnknown:
		records = append(records, issue.Record{
			Category:    issue.CategoryFilesystem,
			Severity:    issue.SeverityInfo,
			Description: "filesystem type could not be determined",
		})
	default:
		name := p.Filesystem.String()
		if p.Filesystem == FilesystemOther && p.FilesystemName != "" {
			name = p.FilesystemName
		}
		records = append(records, issue.Record{
			Category:    issue.CategoryFilesystem,
			Severity:    issue.SeverityError,
			Description: fmt.Sprintf("filesystem is %s, must be FAT32", name),
		})
	}

	switch p.PartitionScheme {
	case SchemeMBR:
		// Compatible.
	case SchemeUnknown:
		records = append(records, issue.Record{
			Category:    issue.CategoryPartitionScheme,
			Severity:    issue.SeverityInfo,
			Description: "partition scheme could not be determined",
		})
	default:
		records = append(records, issue.Record{
			Category:    issue.CategoryPartitionScheme,
			Severity:    issue.SeverityWarning,
			Description: fmt.Sprintf("partition scheme is %s, MBR required", p.PartitionScheme),
		})
	}

	switch {
	case p.ClusterSizeBytes == 0:
		records = append(records, issue.Record{
			Category:    issue.CategoryClusterSize,
			Severity:    issue.SeverityInfo,
			Description: "cluster size could not be determined",
		})
	case p.ClusterSizeBytes != limits.ClusterSizeBytes:
		records = append(records, issue.Record{
			Category: issue.CategoryClusterSize,
			Severity: issue.SeverityInfo,
			Description: fmt.Sprintf("cluster size is %d bytes, %s recommended",
				p.ClusterSizeBytes, humanize.IBytes(uint64(limits.ClusterSizeBytes))),
		})
	}

	return records
}
