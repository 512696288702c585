package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/mediacheck/pkg/mediacheck/config"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/issue"
)

// mp3Header builds one raw MPEG audio frame header.
func mp3Header(version, bitrateIdx, sampleIdx, channelMode uint32) []byte {
	raw := uint32(0xFFE00000) |
		version<<19 |
		mpegLayerIII<<17 |
		1<<16 | // no CRC
		bitrateIdx<<12 |
		sampleIdx<<10 |
		channelMode<<6
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, raw)
	return buf
}

// repeatHeader fills a buffer with back-to-back copies of one frame
// header so that resync succeeds at any sampled offset.
func repeatHeader(header []byte, count int) []byte {
	return bytes.Repeat(header, count)
}

// id3v23Tag builds an ID3v2.3 container holding a single APIC frame
// with an artBytes-sized payload.
func id3v23Tag(artBytes int) []byte {
	frame := make([]byte, 10+artBytes)
	copy(frame, "APIC")
	binary.BigEndian.PutUint32(frame[4:8], uint32(artBytes))

	tag := make([]byte, 10)
	copy(tag, "ID3")
	tag[3] = 3
	putSynchsafe(tag[6:10], uint32(len(frame)))
	return append(tag, frame...)
}

func putSynchsafe(dst []byte, v uint32) {
	dst[0] = byte(v >> 21 & 0x7F)
	dst[1] = byte(v >> 14 & 0x7F)
	dst[2] = byte(v >> 7 & 0x7F)
	dst[3] = byte(v & 0x7F)
}

// mp4Atom wraps a payload in a size/type box header.
func mp4Atom(kind string, payload []byte) []byte {
	buf := make([]byte, 8, 8+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(8+len(payload)))
	copy(buf[4:8], kind)
	return append(buf, payload...)
}

// m4aFixture builds a minimal MP4 audio file with one sample entry of
// the given format and sample rate.
func m4aFixture(format string, sampleRate uint32) []byte {
	entry := make([]byte, sampleEntryMinLen)
	binary.BigEndian.PutUint32(entry[0:4], sampleEntryMinLen)
	copy(entry[4:8], format)
	binary.BigEndian.PutUint32(entry[sampleEntryRateOff:], sampleRate<<16)

	stsdPayload := make([]byte, 8, 8+len(entry))
	binary.BigEndian.PutUint32(stsdPayload[4:8], 1)
	stsdPayload = append(stsdPayload, entry...)

	stsd := mp4Atom("stsd", stsdPayload)
	stbl := mp4Atom("stbl", stsd)
	minf := mp4Atom("minf", stbl)
	mdia := mp4Atom("mdia", minf)
	trak := mp4Atom("trak", mdia)
	moov := mp4Atom("moov", trak)
	ftyp := mp4Atom("ftyp", []byte("M4A \x00\x00\x00\x00"))
	return append(ftyp, moov...)
}

func writeFixture(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func categoriesOf(records []issue.Record) []issue.Category {
	cats := make([]issue.Category, 0, len(records))
	for _, r := range records {
		cats = append(cats, r.Category)
	}
	return cats
}

func TestAnalyzeCBR(t *testing.T) {
	probe := NewProbe(config.DefaultLimits())
	// 128 kbps, 44100 Hz, stereo MPEG1.
	data := repeatHeader(mp3Header(mpegVersion1, 9, 0, 0), 400)
	path := writeFixture(t, "steady.mp3", data)

	a := probe.Analyze(path)
	require.Nil(t, a.Err)
	assert.Equal(t, ContainerMP3, a.Container)
	assert.Equal(t, 128, a.BitrateKbps)
	assert.Equal(t, 44100, a.SampleRateHz)
	assert.Equal(t, ModeCBR, a.Mode)
	assert.Equal(t, TagNone, a.TagVersion)

	records := probe.Check("steady.mp3", a)
	assert.Equal(t, []issue.Category{issue.CategoryID3Tags}, categoriesOf(records))
}

func TestAnalyzeVBRByFrameDisagreement(t *testing.T) {
	probe := NewProbe(config.DefaultLimits())
	data := repeatHeader(mp3Header(mpegVersion1, 9, 0, 0), 200)
	data = append(data, repeatHeader(mp3Header(mpegVersion1, 11, 0, 0), 200)...)
	path := writeFixture(t, "shifty.mp3", data)

	a := probe.Analyze(path)
	require.Nil(t, a.Err)
	assert.Equal(t, ModeVBR, a.Mode)

	records := probe.Check("shifty.mp3", a)
	assert.Contains(t, categoriesOf(records), issue.CategoryEncoding)
}

func TestAnalyzeVBRByXingMarker(t *testing.T) {
	probe := NewProbe(config.DefaultLimits())
	// Stereo MPEG1 puts the marker after 32 bytes of side info.
	data := make([]byte, 512)
	copy(data, mp3Header(mpegVersion1, 9, 0, 0))
	copy(data[36:], "Xing")
	path := writeFixture(t, "xing.mp3", data)

	a := probe.Analyze(path)
	require.Nil(t, a.Err)
	assert.Equal(t, ModeVBR, a.Mode)
}

func TestAnalyzeForbiddenBitrate(t *testing.T) {
	probe := NewProbe(config.DefaultLimits())
	// 144 kbps exists only in the MPEG2 table.
	data := repeatHeader(mp3Header(mpegVersion2, 13, 1, 0), 400)
	path := writeFixture(t, "forbidden.mp3", data)

	a := probe.Analyze(path)
	require.Nil(t, a.Err)
	assert.Equal(t, 144, a.BitrateKbps)
	assert.Equal(t, 24000, a.SampleRateHz)

	records := probe.Check("forbidden.mp3", a)
	cats := categoriesOf(records)
	assert.Contains(t, cats, issue.CategoryBitrate)
	assert.Contains(t, cats, issue.CategorySampleRate)
	for _, r := range records {
		if r.Category == issue.CategoryBitrate {
			assert.Equal(t, issue.SeverityError, r.Severity)
			assert.Contains(t, r.Description, "explicitly not supported")
		}
	}
}

func TestAnalyzeID3Versions(t *testing.T) {
	frames := repeatHeader(mp3Header(mpegVersion1, 9, 0, 0), 200)

	t.Run("v2.3 with oversized artwork", func(t *testing.T) {
		limits := config.DefaultLimits()
		limits.MaxAlbumArtBytes = 100
		probe := NewProbe(limits)

		data := append(id3v23Tag(200), frames...)
		path := writeFixture(t, "art.mp3", data)

		a := probe.Analyze(path)
		require.Nil(t, a.Err)
		assert.Equal(t, TagID3v23, a.TagVersion)
		assert.Equal(t, int64(200), a.AlbumArtBytes)

		records := probe.Check("art.mp3", a)
		assert.Equal(t, []issue.Category{issue.CategoryAlbumArt}, categoriesOf(records))
	})

	t.Run("v2.4 flagged", func(t *testing.T) {
		probe := NewProbe(config.DefaultLimits())
		tag := make([]byte, 10)
		copy(tag, "ID3")
		tag[3] = 4
		path := writeFixture(t, "v24.mp3", append(tag, frames...))

		a := probe.Analyze(path)
		require.Nil(t, a.Err)
		assert.Equal(t, TagID3v24, a.TagVersion)

		records := probe.Check("v24.mp3", a)
		require.Len(t, records, 1)
		assert.Equal(t, issue.CategoryID3Tags, records[0].Category)
		assert.Contains(t, records[0].Description, "ID3v2.3 recommended")
	})

	t.Run("v1 only", func(t *testing.T) {
		probe := NewProbe(config.DefaultLimits())
		trailer := make([]byte, 128)
		copy(trailer, "TAG")
		path := writeFixture(t, "v1.mp3", append(frames, trailer...))

		a := probe.Analyze(path)
		require.Nil(t, a.Err)
		assert.Equal(t, TagID3v1Only, a.TagVersion)
	})
}

func TestAnalyzeGarbageInput(t *testing.T) {
	probe := NewProbe(config.DefaultLimits())
	path := writeFixture(t, "noise.mp3", make([]byte, 2048))

	a := probe.Analyze(path)
	require.NotNil(t, a.Err)

	records := probe.Check("noise.mp3", a)
	require.Len(t, records, 1)
	assert.Equal(t, issue.CategoryReadError, records[0].Category)
	assert.Equal(t, issue.SeverityWarning, records[0].Severity)
}

func TestAnalyzeUnsupportedExtension(t *testing.T) {
	probe := NewProbe(config.DefaultLimits())

	tests := []struct {
		path string
		name string
	}{
		{"album/track.flac", "FLAC"},
		{"album/track.ogg", "OGG"},
		{"album/track.wav", "WAV"},
		{"album/track.ape", "APE"},
		{"album/track.alac", "ALAC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The file is never opened: the extension alone decides.
			a := probe.Analyze(tt.path)
			assert.Nil(t, a.Err)
			assert.Equal(t, tt.name, a.Container.String())

			records := probe.Check(tt.path, a)
			require.Len(t, records, 1)
			assert.Equal(t, issue.CategoryUnsupportedFormat, records[0].Category)
			assert.Equal(t, issue.SeverityError, records[0].Severity)
			assert.Contains(t, records[0].Description, tt.name)
		})
	}
}

func TestAnalyzeMP4(t *testing.T) {
	probe := NewProbe(config.DefaultLimits())

	t.Run("clean m4a", func(t *testing.T) {
		path := writeFixture(t, "clean.m4a", m4aFixture("mp4a", 44100))

		a := probe.Analyze(path)
		require.Nil(t, a.Err)
		assert.Equal(t, ContainerM4A, a.Container)
		assert.Equal(t, 44100, a.SampleRateHz)
		assert.False(t, a.DRM)
		assert.Empty(t, probe.Check("clean.m4a", a))
	})

	t.Run("aac extension keeps AAC container", func(t *testing.T) {
		path := writeFixture(t, "radio.aac", m4aFixture("mp4a", 48000))

		a := probe.Analyze(path)
		require.Nil(t, a.Err)
		assert.Equal(t, ContainerAAC, a.Container)
	})

	t.Run("low sample rate", func(t *testing.T) {
		path := writeFixture(t, "low.m4a", m4aFixture("mp4a", 4000))

		a := probe.Analyze(path)
		require.Nil(t, a.Err)

		records := probe.Check("low.m4a", a)
		require.Len(t, records, 1)
		assert.Equal(t, issue.CategorySampleRate, records[0].Category)
	})

	t.Run("drms entry means DRM", func(t *testing.T) {
		path := writeFixture(t, "bought.m4a", m4aFixture("drms", 44100))

		a := probe.Analyze(path)
		require.Nil(t, a.Err)
		assert.True(t, a.DRM)

		records := probe.Check("bought.m4a", a)
		require.NotEmpty(t, records)
		assert.Equal(t, issue.CategoryEncoding, records[0].Category)
		assert.Equal(t, issue.SeverityError, records[0].Severity)
	})

	t.Run("m4p always DRM", func(t *testing.T) {
		path := writeFixture(t, "store.m4p", m4aFixture("mp4a", 44100))

		a := probe.Analyze(path)
		assert.True(t, a.DRM)
	})

	t.Run("not an mp4", func(t *testing.T) {
		path := writeFixture(t, "fake.m4a", make([]byte, 64))

		a := probe.Analyze(path)
		require.NotNil(t, a.Err)
		assert.Contains(t, a.Err.Reason, "ftyp")
	})
}

func TestAnalyzeWMA(t *testing.T) {
	probe := NewProbe(config.DefaultLimits())

	t.Run("valid ASF header", func(t *testing.T) {
		data := append(append([]byte{}, asfHeaderGUID...), make([]byte, 64)...)
		path := writeFixture(t, "song.wma", data)

		a := probe.Analyze(path)
		require.Nil(t, a.Err)
		assert.Equal(t, ContainerWMA, a.Container)
		assert.Empty(t, probe.Check("song.wma", a))
	})

	t.Run("bad signature", func(t *testing.T) {
		path := writeFixture(t, "bad.wma", make([]byte, 64))

		a := probe.Analyze(path)
		require.NotNil(t, a.Err)
	})
}

func TestDecodeFrameHeaderRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  uint32
	}{
		{"no sync", 0x00000000},
		{"layer I", 0xFFFF9000},
		{"reserved version", 0xFFEB9000},
		{"free format bitrate", 0xFFFB0000},
		{"invalid bitrate index", 0xFFFBF000},
		{"reserved sample rate", 0xFFFB9C00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := decodeFrameHeader(tt.raw)
			assert.False(t, ok)
		})
	}
}
