// Package audio performs per-file binary analysis of audio encoding
// parameters: container format, MP3 bitrate mode, sample rate, tag
// container version, embedded artwork size, and DRM markers.
//
// Analyze is a pure function of the file bytes. It never fails hard:
// malformed or unreadable input surfaces as an Unknown container with
// the parse failure attached, which the issue derivation turns into a
// Read Error record.
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/mediacheck/pkg/mediacheck/config"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/issue"
	"github.com/jamesainslie/mediacheck/pkg/mediacheck/logging"
)

// Container identifies the audio container format, detected from the
// file extension.
type Container int

// Container formats. FLAC, OGG, WAV, APE, and ALAC are recognized
// only to be flagged as unsupported by the player.
const (
	ContainerUnknown Container = iota
	ContainerMP3
	ContainerWMA
	ContainerAAC
	ContainerM4A
	ContainerM4B
	ContainerFLAC
	ContainerOGG
	ContainerWAV
	ContainerAPE
	ContainerALAC
)

// String returns the display name of the container.
func (c Container) String() string {
	switch c {
	case ContainerMP3:
		return "MP3"
	case ContainerWMA:
		return "WMA"
	case ContainerAAC:
		return "AAC"
	case ContainerM4A:
		return "M4A"
	case ContainerM4B:
		return "M4B"
	case ContainerFLAC:
		return "FLAC"
	case ContainerOGG:
		return "OGG"
	case ContainerWAV:
		return "WAV"
	case ContainerAPE:
		return "APE"
	case ContainerALAC:
		return "ALAC"
	default:
		return "Unknown"
	}
}

// EncodingMode is the MP3 bitrate mode classification.
type EncodingMode int

// Bitrate modes. Classification is heuristic: a bounded sample of
// frame headers, with a VBR header marker treated as decisive.
const (
	ModeUnknown EncodingMode = iota
	ModeCBR
	ModeVBR
)

// String returns the display name of the encoding mode.
func (m EncodingMode) String() string {
	switch m {
	case ModeCBR:
		return "CBR"
	case ModeVBR:
		return "VBR"
	default:
		return "Unknown"
	}
}

// TagVersion classifies the ID3 tag container of an MP3 file.
type TagVersion int

// Tag container versions. TagUnset means tag parsing did not run for
// this container type.
const (
	TagUnset TagVersion = iota
	TagNone
	TagID3v1Only
	TagID3v22
	TagID3v23
	TagID3v24
	TagOther
)

// String returns the display name of the tag version.
func (t TagVersion) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagID3v1Only:
		return "ID3v1 only"
	case TagID3v22:
		return "ID3v2.2"
	case TagID3v23:
		return "ID3v2.3"
	case TagID3v24:
		return "ID3v2.4"
	case TagOther:
		return "other"
	default:
		return "unset"
	}
}

// Analysis is the result of probing one file. It is produced once and
// never mutated; zero-valued fields mean the property could not be or
// was not determined.
type Analysis struct {
	Container     Container
	BitrateKbps   int
	Mode          EncodingMode
	SampleRateHz  int
	TagVersion    TagVersion
	AlbumArtBytes int64
	DRM           bool

	// Err holds the parse failure when Container is Unknown despite a
	// supported extension.
	Err *ParseError
}

// AAC-family sample rate limits the player's decoder accepts.
const (
	minAACSampleRate = 8000
	maxAACSampleRate = 96000
)

// validMP3SampleRates are the MP3 sample rates the player resamples
// correctly. Everything else plays at the wrong pitch or not at all.
var validMP3SampleRates = map[int]bool{
	32000: true,
	44100: true,
	48000: true,
}

// unsupportedExtensions are formats the player will never decode;
// they are flagged without opening the file.
var unsupportedExtensions = map[string]Container{
	".flac": ContainerFLAC,
	".ogg":  ContainerOGG,
	".wav":  ContainerWAV,
	".ape":  ContainerAPE,
	".alac": ContainerALAC,
}

// Probe analyzes audio files against the player limits.
type Probe struct {
	limits config.Limits
	log    *logging.Logger
}

// NewProbe creates a probe with the given limits.
func NewProbe(limits config.Limits) *Probe {
	limits.Normalize()
	return &Probe{
		limits: limits,
		log:    logging.Get("audio"),
	}
}

// Analyze probes a single file. It reads only the bytes of the file
// and never raises for malformed input.
func (p *Probe) Analyze(path string) Analysis {
	ext := strings.ToLower(filepath.Ext(path))

	if c, ok := unsupportedExtensions[ext]; ok {
		// Unsupported formats are flagged from the extension alone;
		// parsing them would not change the verdict.
		return Analysis{Container: c}
	}

	switch ext {
	case ".mp3":
		return p.analyzeWith(path, parseMP3)
	case ".wma":
		return p.analyzeWith(path, parseWMA)
	case ".m4a", ".m4b", ".aac", ".m4p":
		a := p.analyzeWith(path, parseMP4)
		if a.Err == nil {
			switch ext {
			case ".m4b":
				a.Container = ContainerM4B
			case ".aac":
				a.Container = ContainerAAC
			}
		}
		if ext == ".m4p" {
			// iTunes-protected files carry DRM regardless of what
			// the atoms say.
			a.DRM = true
		}
		return a
	default:
		// Not an audio file the player would try to play.
		return Analysis{Container: ContainerUnknown}
	}
}

// analyzeWith opens the file and runs one container parser over it.
func (p *Probe) analyzeWith(path string, parse func(f *os.File, size int64) (Analysis, error)) Analysis {
	f, err := os.Open(path)
	if err != nil {
		return Analysis{Err: &ParseError{Reason: fmt.Sprintf("open failed: %v", err)}}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Analysis{Err: &ParseError{Reason: fmt.Sprintf("stat failed: %v", err)}}
	}

	a, err := parse(f, info.Size())
	if err != nil {
		p.log.Debug("parse failed", "path", path, "error", err)
		var perr *ParseError
		if !asParseError(err, &perr) {
			perr = &ParseError{Reason: err.Error()}
		}
		return Analysis{Err: perr}
	}
	return a
}

// Check derives the issue records for one analyzed file. relPath is
// the root-relative path used in the records.
func (p *Probe) Check(relPath string, a Analysis) []issue.Record {
	var records []issue.Record

	if a.DRM {
		records = append(records, issue.Record{
			Path:        relPath,
			Category:    issue.CategoryEncoding,
			Severity:    issue.SeverityError,
			Description: "likely DRM-protected, will not play",
		})
	}

	if a.Err != nil {
		return append(records, issue.Record{
			Path:        relPath,
			Category:    issue.CategoryReadError,
			Severity:    issue.SeverityWarning,
			Description: a.Err.Reason,
		})
	}

	switch a.Container {
	case ContainerFLAC, ContainerOGG, ContainerWAV, ContainerAPE, ContainerALAC:
		return append(records, issue.Record{
			Path:     relPath,
			Category: issue.CategoryUnsupportedFormat,
			Severity: issue.SeverityError,
			Description: fmt.Sprintf("%s is not supported by the player",
				a.Container),
		})
	case ContainerMP3:
		records = append(records, p.checkMP3(relPath, a)...)
	case ContainerAAC, ContainerM4A, ContainerM4B:
		records = append(records, p.checkMP4(relPath, a)...)
	}

	return records
}

// checkMP3 applies the MP3 encoding, tag, and artwork rules.
func (p *Probe) checkMP3(relPath string, a Analysis) []issue.Record {
	var records []issue.Record

	if a.Mode == ModeVBR {
		records = append(records, issue.Record{
			Path:        relPath,
			Category:    issue.CategoryEncoding,
			Severity:    issue.SeverityWarning,
			Description: "VBR instead of CBR encoding, strongly discouraged",
		})
	}

	if a.BitrateKbps > 0 {
		switch {
		case a.BitrateKbps == p.limits.ForbiddenBitrateKbps:
			// Inside the supported range but rejected by the player
			// firmware anyway.
			records = append(records, issue.Record{
				Path:     relPath,
				Category: issue.CategoryBitrate,
				Severity: issue.SeverityError,
				Description: fmt.Sprintf("%d kbps is explicitly not supported",
					a.BitrateKbps),
			})
		case a.BitrateKbps < p.limits.MinBitrateKbps || a.BitrateKbps > p.limits.MaxBitrateKbps:
			records = append(records, issue.Record{
				Path:     relPath,
				Category: issue.CategoryBitrate,
				Severity: issue.SeverityError,
				Description: fmt.Sprintf("bitrate %d kbps outside supported range %d-%d",
					a.BitrateKbps, p.limits.MinBitrateKbps, p.limits.MaxBitrateKbps),
			})
		}
	}

	if a.SampleRateHz > 0 && !validMP3SampleRates[a.SampleRateHz] {
		records = append(records, issue.Record{
			Path:     relPath,
			Category: issue.CategorySampleRate,
			Severity: issue.SeverityWarning,
			Description: fmt.Sprintf("sample rate %d Hz, 44100 Hz recommended",
				a.SampleRateHz),
		})
	}

	switch a.TagVersion {
	case TagID3v23, TagUnset:
		// v2.3 is the target; nothing to report.
	case TagID3v24:
		records = append(records, issue.Record{
			Path:        relPath,
			Category:    issue.CategoryID3Tags,
			Severity:    issue.SeverityWarning,
			Description: "ID3v2.4 tags are problematic, ID3v2.3 recommended",
		})
	case TagID3v1Only:
		records = append(records, issue.Record{
			Path:        relPath,
			Category:    issue.CategoryID3Tags,
			Severity:    issue.SeverityWarning,
			Description: "only ID3v1 tags present, no ID3v2",
		})
	case TagNone:
		records = append(records, issue.Record{
			Path:        relPath,
			Category:    issue.CategoryID3Tags,
			Severity:    issue.SeverityWarning,
			Description: "no ID3 tags found",
		})
	default:
		records = append(records, issue.Record{
			Path:        relPath,
			Category:    issue.CategoryID3Tags,
			Severity:    issue.SeverityWarning,
			Description: fmt.Sprintf("unusual ID3 version (%s)", a.TagVersion),
		})
	}

	if a.AlbumArtBytes > p.limits.MaxAlbumArtBytes {
		records = append(records, issue.Record{
			Path:     relPath,
			Category: issue.CategoryAlbumArt,
			Severity: issue.SeverityWarning,
			Description: fmt.Sprintf("embedded artwork is %s, keep under %s",
				humanize.IBytes(uint64(a.AlbumArtBytes)),
				humanize.IBytes(uint64(p.limits.MaxAlbumArtBytes))),
		})
	}

	return records
}

// checkMP4 applies the AAC-family rules. DRM is handled by the caller
// because it applies even when atom parsing failed.
func (p *Probe) checkMP4(relPath string, a Analysis) []issue.Record {
	var records []issue.Record

	if a.SampleRateHz > 0 && (a.SampleRateHz < minAACSampleRate || a.SampleRateHz > maxAACSampleRate) {
		records = append(records, issue.Record{
			Path:     relPath,
			Category: issue.CategorySampleRate,
			Severity: issue.SeverityWarning,
			Description: fmt.Sprintf("sample rate %d Hz outside supported range %d-%d Hz",
				a.SampleRateHz, minAACSampleRate, maxAACSampleRate),
		})
	}

	return records
}
