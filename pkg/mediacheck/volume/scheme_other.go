//go:build !linux && !darwin

package volume

import "context"

// detectScheme has no implementation on this platform; the field
// degrades to Unknown.
func detectScheme(_ context.Context, _ string) (PartitionScheme, error) {
	return SchemeUnknown, ErrUnavailable
}
