package audio

import (
	"encoding/binary"
	"io"
	"os"
)

// atom is one MP4 box: its type and the byte range of its payload.
type atom struct {
	kind  string
	start int64 // payload start, after the size/type header
	end   int64
}

// findAtom scans the sibling atoms in [start, end) for the first atom
// of the given type.
func findAtom(r io.ReaderAt, start, end int64, kind string) (atom, bool) {
	header := make([]byte, 8)
	offset := start
	for offset+8 <= end {
		if _, err := r.ReadAt(header, offset); err != nil {
			return atom{}, false
		}
		size := int64(binary.BigEndian.Uint32(header[0:4]))
		name := string(header[4:8])
		payload := offset + 8

		switch size {
		case 0:
			// Atom extends to end of container.
			size = end - offset
		case 1:
			// 64-bit size follows the type.
			wide := make([]byte, 8)
			if _, err := r.ReadAt(wide, offset+8); err != nil {
				return atom{}, false
			}
			size = int64(binary.BigEndian.Uint64(wide))
			payload = offset + 16
		}
		if size < 8 || offset+size > end {
			return atom{}, false
		}

		if name == kind {
			return atom{kind: name, start: payload, end: offset + size}, true
		}
		offset += size
	}
	return atom{}, false
}

// descend follows a chain of nested container atoms from the given
// range, returning the innermost one.
func descend(r io.ReaderAt, start, end int64, path ...string) (atom, bool) {
	cur := atom{start: start, end: end}
	for _, kind := range path {
		next, ok := findAtom(r, cur.start, cur.end, kind)
		if !ok {
			return atom{}, false
		}
		cur = next
	}
	return cur, true
}

// stsd sample entry layout offsets, relative to the entry start.
const (
	sampleEntryFormatOff = 4
	sampleEntryRateOff   = 32 // 16.16 fixed point, audio entries only
	sampleEntryMinLen    = 36
)

// parseMP4 analyzes an MPEG-4 audio file. It locates the audio sample
// description inside moov/trak/mdia/minf/stbl/stsd and reads the
// declared sample rate. A drms sample format marks FairPlay DRM.
func parseMP4(f *os.File, size int64) (Analysis, error) {
	a := Analysis{Container: ContainerM4A}

	ftyp, ok := findAtom(f, 0, size, "ftyp")
	if !ok || ftyp.start != 8 {
		return Analysis{}, parseErrorf(0, "not an MP4 container, ftyp atom missing")
	}

	moov, ok := findAtom(f, 0, size, "moov")
	if !ok {
		return Analysis{}, parseErrorf(0, "moov atom missing")
	}

	// A file can carry several tracks; the first trak with an audio
	// sample entry wins.
	offset := moov.start
	for {
		trak, found := findAtom(f, offset, moov.end, "trak")
		if !found {
			break
		}
		offset = trak.end

		stsd, found := descend(f, trak.start, trak.end, "mdia", "minf", "stbl", "stsd")
		if !found {
			continue
		}
		rate, drm, found := readSampleEntry(f, stsd)
		if !found {
			continue
		}
		a.SampleRateHz = rate
		a.DRM = drm
		return a, nil
	}

	return Analysis{}, parseErrorf(moov.start, "no audio track found")
}

// readSampleEntry decodes the first audio sample entry of an stsd
// atom. The stsd payload starts with a version/flags word and an
// entry count, then the entries themselves.
func readSampleEntry(r io.ReaderAt, stsd atom) (rate int, drm bool, ok bool) {
	head := make([]byte, 8)
	if _, err := r.ReadAt(head, stsd.start); err != nil {
		return 0, false, false
	}
	count := binary.BigEndian.Uint32(head[4:8])

	offset := stsd.start + 8
	for i := uint32(0); i < count && offset+sampleEntryMinLen <= stsd.end; i++ {
		entry := make([]byte, sampleEntryMinLen)
		if _, err := r.ReadAt(entry, offset); err != nil {
			return 0, false, false
		}
		size := int64(binary.BigEndian.Uint32(entry[0:4]))
		if size < sampleEntryMinLen || offset+size > stsd.end {
			return 0, false, false
		}
		format := string(entry[sampleEntryFormatOff : sampleEntryFormatOff+4])

		switch format {
		case "mp4a", "alac", "samr":
			fixed := binary.BigEndian.Uint32(entry[sampleEntryRateOff : sampleEntryRateOff+4])
			return int(fixed >> 16), false, true
		case "drms", "drmi":
			// Protected variants of the audio entry. The rate field
			// sits at the same offset.
			fixed := binary.BigEndian.Uint32(entry[sampleEntryRateOff : sampleEntryRateOff+4])
			return int(fixed >> 16), true, true
		}
		offset += size
	}
	return 0, false, false
}
