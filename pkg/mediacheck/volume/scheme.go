package volume

import "strings"

// parseLsblkScheme interprets `lsblk -no PTTYPE` output. lsblk prints
// "dos" for MBR tables and "gpt" for GPT; anything else degrades to
// Unknown rather than crashing the scan.
func parseLsblkScheme(output string) PartitionScheme {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case "dos", "mbr":
		return SchemeMBR
	case "gpt":
		return SchemeGPT
	default:
		return SchemeUnknown
	}
}

// parseDiskutilScheme scans `diskutil info` output for the partition
// scheme line. diskutil reports the scheme as a bundle name
// (FDisk_partition_scheme for MBR, GUID_partition_scheme for GPT).
func parseDiskutilScheme(output string) PartitionScheme {
	for _, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "partition type") && !strings.Contains(lower, "content (iocontent)") {
			continue
		}
		switch {
		case strings.Contains(lower, "fdisk_partition_scheme"), strings.Contains(lower, "mbr"):
			return SchemeMBR
		case strings.Contains(lower, "guid_partition_scheme"), strings.Contains(lower, "gpt"):
			return SchemeGPT
		}
	}
	return SchemeUnknown
}
