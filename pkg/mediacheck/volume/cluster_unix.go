//go:build linux || darwin

package volume

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// detectClusterSize reads the filesystem block size, which for FAT
// volumes is the allocation unit (cluster) size.
func detectClusterSize(path string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("%w: statfs: %v", ErrUnavailable, err)
	}
	return int64(st.Bsize), nil
}
