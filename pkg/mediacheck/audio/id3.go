package audio

import (
	"encoding/binary"
	"io"
)

// id3Info summarizes the ID3 tag containers of an MP3 file.
type id3Info struct {
	// version classifies the tag container combination found.
	version TagVersion

	// v2size is the total size of the leading ID3v2 container,
	// including its 10-byte header; 0 when absent. Frame sync
	// scanning starts here.
	v2size int64

	// artBytes is the payload length of the largest embedded
	// picture frame, 0 when none was found.
	artBytes int64
}

// id3v2HeaderLen is the fixed ID3v2 container header length.
const id3v2HeaderLen = 10

// id3v1TrailerLen is the fixed ID3v1 trailer length at end of file.
const id3v1TrailerLen = 128

// parseID3 reads the ID3v2 header at file start and the ID3v1 trailer
// at file end and classifies the tag situation. A malformed v2
// container that declares itself but cannot be read is a parse error;
// a merely absent tag is not.
func parseID3(r io.ReaderAt, size int64) (id3Info, error) {
	info := id3Info{version: TagNone}

	hasV1 := hasID3v1(r, size)

	header := make([]byte, id3v2HeaderLen)
	if _, err := r.ReadAt(header, 0); err != nil || string(header[0:3]) != "ID3" {
		// No v2 container at all.
		if hasV1 {
			info.version = TagID3v1Only
		}
		return info, nil
	}

	major := header[3]
	declared := synchsafe(header[6:10])
	info.v2size = id3v2HeaderLen + int64(declared)
	if info.v2size > size {
		return id3Info{}, parseErrorf(0, "ID3v2 tag size %d exceeds file size %d", info.v2size, size)
	}

	switch major {
	case 2:
		info.version = TagID3v22
	case 3:
		info.version = TagID3v23
	case 4:
		info.version = TagID3v24
	default:
		info.version = TagOther
	}

	info.artBytes = pictureFrameSize(r, major, id3v2HeaderLen, info.v2size)
	return info, nil
}

// hasID3v1 checks for the fixed 128-byte "TAG" trailer.
func hasID3v1(r io.ReaderAt, size int64) bool {
	if size < id3v1TrailerLen {
		return false
	}
	magic := make([]byte, 3)
	if _, err := r.ReadAt(magic, size-id3v1TrailerLen); err != nil {
		return false
	}
	return string(magic) == "TAG"
}

// pictureFrameSize walks the ID3v2 frames between start and end and
// returns the payload length of the largest picture frame (APIC, or
// PIC in the v2.2 layout). Malformed frame data stops the walk; the
// art estimate is best-effort.
func pictureFrameSize(r io.ReaderAt, major byte, start, end int64) int64 {
	idLen := int64(4)
	headerLen := int64(10)
	pictureID := "APIC"
	if major == 2 {
		// v2.2 uses 3-byte IDs and 3-byte sizes, no flags.
		idLen = 3
		headerLen = 6
		pictureID = "PIC"
	}

	var largest int64
	offset := start
	buf := make([]byte, headerLen)
	for offset+headerLen <= end {
		if _, err := r.ReadAt(buf, offset); err != nil {
			break
		}
		if buf[0] == 0 {
			// Padding reached.
			break
		}

		frameID := string(buf[:idLen])
		var frameSize int64
		switch {
		case major == 2:
			frameSize = int64(buf[3])<<16 | int64(buf[4])<<8 | int64(buf[5])
		case major >= 4:
			frameSize = int64(synchsafe(buf[4:8]))
		default:
			frameSize = int64(binary.BigEndian.Uint32(buf[4:8]))
		}
		if frameSize < 0 || offset+headerLen+frameSize > end {
			break
		}

		if frameID == pictureID && frameSize > largest {
			largest = frameSize
		}
		offset += headerLen + frameSize
	}
	return largest
}

// synchsafe decodes a 4-byte synchsafe integer (7 bits per byte).
func synchsafe(b []byte) uint32 {
	return uint32(b[0]&0x7F)<<21 | uint32(b[1]&0x7F)<<14 | uint32(b[2]&0x7F)<<7 | uint32(b[3]&0x7F)
}
