//go:build linux

package volume

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// schemeTimeout bounds the lsblk invocation so a wedged device node
// cannot stall the sequential phase.
const schemeTimeout = 5 * time.Second

// detectScheme determines the partition table format on Linux by
// asking lsblk for the parent table type of the device. The output is
// treated as opaque text to parse, not a stable API.
func detectScheme(ctx context.Context, device string) (PartitionScheme, error) {
	ctx, cancel := context.WithTimeout(ctx, schemeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "lsblk", "-no", "PTTYPE", device).Output()
	if err != nil {
		return SchemeUnknown, fmt.Errorf("%w: lsblk: %v", ErrUnavailable, err)
	}

	// A partition device prints an empty PTTYPE line of its own plus
	// the parent disk's table type; take the first non-empty line.
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) != "" {
			return parseLsblkScheme(line), nil
		}
	}
	return SchemeUnknown, nil
}
