package audio

import (
	"bytes"
	"os"
)

// asfHeaderGUID is the ASF_Header_Object GUID that opens every
// WMA/WMV file.
var asfHeaderGUID = []byte{
	0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11,
	0xA6, 0xD9, 0x00, 0xAA, 0x00, 0x62, 0xCE, 0x6C,
}

// parseWMA verifies the ASF container signature. The player plays WMA
// as-is, so the check stops at recognizing the container.
func parseWMA(f *os.File, size int64) (Analysis, error) {
	if size < int64(len(asfHeaderGUID)) {
		return Analysis{}, parseErrorf(0, "file too short for ASF header")
	}

	guid := make([]byte, len(asfHeaderGUID))
	if _, err := f.ReadAt(guid, 0); err != nil {
		return Analysis{}, parseErrorf(0, "ASF header read failed: %v", err)
	}
	if !bytes.Equal(guid, asfHeaderGUID) {
		return Analysis{}, parseErrorf(0, "ASF header signature mismatch")
	}

	return Analysis{Container: ContainerWMA}, nil
}
