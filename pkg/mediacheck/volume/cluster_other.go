//go:build !linux && !darwin

package volume

// detectClusterSize has no implementation on this platform; the field
// degrades to Unknown.
func detectClusterSize(_ string) (int64, error) {
	return 0, ErrUnavailable
}
