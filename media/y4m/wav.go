package y4m

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/opd-ai/playback/media"
)

// wavChunkSeconds is the audible length of one decoded WAV chunk.
const wavChunkSeconds = 0.020

// wavSource reads a 16-bit PCM RIFF/WAVE file as an audio track.
type wavSource struct {
	file *os.File
	fmt  media.AudioFormat

	dataOffset int64
	dataLen    int64
	position   int64 // sample frames consumed
}

// openWAV parses the RIFF header and locates the PCM data chunk.
func openWAV(path string) (*wavSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	src := &wavSource{file: f}
	if err := src.parseHeader(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

func (s *wavSource) parseHeader() error {
	var riff [12]byte
	if _, err := io.ReadFull(s.file, riff[:]); err != nil {
		return fmt.Errorf("failed to read RIFF header: %w", err)
	}
	if string(riff[:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return fmt.Errorf("not a RIFF/WAVE file")
	}

	var haveFmt bool
	offset := int64(12)
	for {
		var chunk [8]byte
		if _, err := s.file.ReadAt(chunk[:], offset); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read chunk header: %w", err)
		}
		id := string(chunk[:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			var body [16]byte
			if _, err := s.file.ReadAt(body[:], offset+8); err != nil {
				return fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			if format := binary.LittleEndian.Uint16(body[0:2]); format != 1 {
				return fmt.Errorf("unsupported WAV format %d (only PCM)", format)
			}
			channels := binary.LittleEndian.Uint16(body[2:4])
			rate := binary.LittleEndian.Uint32(body[4:8])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if bits != 16 {
				return fmt.Errorf("unsupported sample width %d (only 16-bit)", bits)
			}
			if channels == 0 || channels > 2 || rate == 0 {
				return fmt.Errorf("unsupported WAV layout: %d channels at %d Hz", channels, rate)
			}
			s.fmt = media.AudioFormat{SampleRate: rate, Channels: uint8(channels)}
			haveFmt = true
		case "data":
			s.dataOffset = offset + 8
			s.dataLen = size
		}

		// Chunks are word-aligned.
		offset += 8 + size + size%2
	}

	if !haveFmt || s.dataOffset == 0 {
		return fmt.Errorf("missing fmt or data chunk")
	}
	return nil
}

func (s *wavSource) format() media.AudioFormat { return s.fmt }

func (s *wavSource) decode(out *media.AudioFrame) bool {
	frameBytes := int64(2 * s.fmt.Channels)
	totalFrames := s.dataLen / frameBytes
	if s.position >= totalFrames {
		return false
	}

	want := int64(wavChunkSeconds * float64(s.fmt.SampleRate))
	if rest := totalFrames - s.position; want > rest {
		want = rest
	}

	raw := make([]byte, want*frameBytes)
	if _, err := s.file.ReadAt(raw, s.dataOffset+s.position*frameBytes); err != nil {
		return false
	}

	pcm := make([]int16, want*int64(s.fmt.Channels))
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}

	out.PCM = pcm
	out.Format = s.fmt
	out.PTS = float64(s.position) / float64(s.fmt.SampleRate)
	s.position += want
	return true
}

func (s *wavSource) seek(seconds float64) error {
	frame := int64(seconds * float64(s.fmt.SampleRate))
	total := s.dataLen / int64(2*s.fmt.Channels)
	if frame > total {
		frame = total
	}
	if frame < 0 {
		frame = 0
	}
	s.position = frame
	return nil
}

func (s *wavSource) clock() float64 {
	return float64(s.position) / float64(s.fmt.SampleRate)
}

func (s *wavSource) close() error {
	return s.file.Close()
}
