package audio

import (
	"encoding/binary"
	"io"
	"os"
)

// MPEG frame header field values after shifting, per the MPEG audio
// frame specification.
const (
	mpegVersion1  = 3
	mpegVersion2  = 2
	mpegLayerIII  = 1
	badBitrateIdx = 15
	badSampleIdx  = 3
)

// Bitrate lookup tables for Layer III, in kbps, indexed by the 4-bit
// bitrate index. Index 0 is free-format and index 15 is invalid.
var (
	bitrateMPEG1L3 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	bitrateMPEG2L3 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}
)

// Sample rate lookup tables in Hz, indexed by the 2-bit sample rate
// index. Index 3 is reserved.
var (
	sampleRateMPEG1 = [4]int{44100, 48000, 32000, 0}
	sampleRateMPEG2 = [4]int{22050, 24000, 16000, 0}
)

// Frame scanning bounds. The first frame must appear within
// maxSyncScan bytes of the tag end, and bitrate-mode inference samples
// at most maxSampledFrames headers spaced through the audio data.
const (
	maxSyncScan      = 64 * 1024
	resyncWindow     = 8 * 1024
	maxSampledFrames = 8
)

// frameHeader is one decoded MPEG audio frame header.
type frameHeader struct {
	version     int // raw 2-bit version field
	bitrateKbps int
	sampleRate  int
	channelMode int // raw 2-bit channel mode field
	padding     bool
}

// mono reports whether the frame is single channel.
func (h frameHeader) mono() bool { return h.channelMode == 3 }

// decodeFrameHeader validates and decodes a four-byte MPEG audio
// frame header. Only Layer III of MPEG versions 1 and 2 is accepted;
// everything the player plays is Layer III.
func decodeFrameHeader(raw uint32) (frameHeader, bool) {
	// 11-bit frame sync.
	if raw&0xFFE00000 != 0xFFE00000 {
		return frameHeader{}, false
	}

	version := int((raw >> 19) & 0x3)
	layer := int((raw >> 17) & 0x3)
	if version != mpegVersion1 && version != mpegVersion2 {
		return frameHeader{}, false
	}
	if layer != mpegLayerIII {
		return frameHeader{}, false
	}

	bitrateIdx := int((raw >> 12) & 0xF)
	sampleIdx := int((raw >> 10) & 0x3)
	if bitrateIdx == 0 || bitrateIdx == badBitrateIdx || sampleIdx == badSampleIdx {
		return frameHeader{}, false
	}

	h := frameHeader{
		version:     version,
		padding:     raw&0x200 != 0,
		channelMode: int((raw >> 6) & 0x3),
	}
	if version == mpegVersion1 {
		h.bitrateKbps = bitrateMPEG1L3[bitrateIdx]
		h.sampleRate = sampleRateMPEG1[sampleIdx]
	} else {
		h.bitrateKbps = bitrateMPEG2L3[bitrateIdx]
		h.sampleRate = sampleRateMPEG2[sampleIdx]
	}
	return h, true
}

// findFrame scans forward from offset for the next valid frame
// header, looking at most window bytes ahead. It returns the header
// and the offset it was found at.
func findFrame(r io.ReaderAt, offset, end int64, window int64) (frameHeader, int64, bool) {
	limit := offset + window
	if limit > end-4 {
		limit = end - 4
	}

	buf := make([]byte, 4)
	for ; offset <= limit; offset++ {
		if _, err := r.ReadAt(buf, offset); err != nil {
			return frameHeader{}, 0, false
		}
		if h, ok := decodeFrameHeader(binary.BigEndian.Uint32(buf)); ok {
			return h, offset, true
		}
	}
	return frameHeader{}, 0, false
}

// vbrMarkerAt checks for a Xing/Info/VBRI side-information block
// following the frame header at frameOffset. Encoders place Xing after
// the side info, whose length depends on MPEG version and channel
// mode; VBRI sits at a fixed 32-byte offset.
func vbrMarkerAt(r io.ReaderAt, frameOffset int64, h frameHeader) bool {
	var sideInfo int64
	switch {
	case h.version == mpegVersion1 && h.mono():
		sideInfo = 17
	case h.version == mpegVersion1:
		sideInfo = 32
	case h.mono():
		sideInfo = 9
	default:
		sideInfo = 17
	}

	buf := make([]byte, 4)
	if _, err := r.ReadAt(buf, frameOffset+4+sideInfo); err == nil {
		marker := string(buf)
		if marker == "Xing" || marker == "Info" {
			return true
		}
	}
	if _, err := r.ReadAt(buf, frameOffset+4+32); err == nil {
		if string(buf) == "VBRI" {
			return true
		}
	}
	return false
}

// parseMP3 analyzes an MP3 file: first frame header for bitrate and
// sample rate, spaced frame samples for CBR/VBR classification, and
// the ID3 tag containers for version and artwork size.
func parseMP3(f *os.File, size int64) (Analysis, error) {
	a := Analysis{Container: ContainerMP3}

	tag, err := parseID3(f, size)
	if err != nil {
		return Analysis{}, err
	}
	a.TagVersion = tag.version
	a.AlbumArtBytes = tag.artBytes

	first, firstOffset, ok := findFrame(f, tag.v2size, size, maxSyncScan)
	if !ok {
		return Analysis{}, parseErrorf(tag.v2size, "no valid MP3 frame header found")
	}
	a.BitrateKbps = first.bitrateKbps
	a.SampleRateHz = first.sampleRate

	a.Mode = classifyMode(f, first, firstOffset, size)
	return a, nil
}

// classifyMode infers CBR vs VBR. A VBR header marker is decisive;
// otherwise headers sampled at spaced offsets through the audio data
// are compared: any bitrate disagreement means VBR.
func classifyMode(r io.ReaderAt, first frameHeader, firstOffset, size int64) EncodingMode {
	if vbrMarkerAt(r, firstOffset, first) {
		return ModeVBR
	}

	audioSize := size - firstOffset
	if audioSize <= 0 {
		return ModeUnknown
	}

	sampled := 1 // the first frame
	step := audioSize / maxSampledFrames
	if step < 4 {
		return ModeCBR
	}

	for i := int64(1); i < maxSampledFrames; i++ {
		h, _, ok := findFrame(r, firstOffset+i*step, size, resyncWindow)
		if !ok {
			continue
		}
		sampled++
		if h.bitrateKbps != first.bitrateKbps {
			return ModeVBR
		}
	}

	if sampled == 1 {
		// Nothing beyond the first frame could be resynced; not
		// enough evidence to call it either way.
		return ModeUnknown
	}
	return ModeCBR
}
