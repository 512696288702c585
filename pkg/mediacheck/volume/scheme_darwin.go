//go:build darwin

package volume

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

const schemeTimeout = 5 * time.Second

// detectScheme determines the partition table format on macOS by
// parsing `diskutil info` output for the device.
func detectScheme(ctx context.Context, device string) (PartitionScheme, error) {
	ctx, cancel := context.WithTimeout(ctx, schemeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "diskutil", "info", device).Output()
	if err != nil {
		return SchemeUnknown, fmt.Errorf("%w: diskutil: %v", ErrUnavailable, err)
	}
	return parseDiskutilScheme(string(out)), nil
}
