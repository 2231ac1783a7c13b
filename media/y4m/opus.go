package y4m

import (
	"fmt"
	"io"
	"os"

	"github.com/pion/opus"
	"github.com/pion/opus/pkg/oggreader"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/playback/media"
)

// opusDecodeBuffer sizes the per-packet PCM buffer: 1920 samples covers a
// 40ms frame at 48kHz.
const opusDecodeBuffer = 1920 * 2

// opusSource reads an Ogg Opus file as an audio track, decoding packets
// with the pure Go pion/opus decoder.
type opusSource struct {
	file    *os.File
	fmt     media.AudioFormat
	ogg     *oggreader.OggReader
	decoder opus.Decoder

	pending  [][]byte
	position float64 // seconds of decoded audio
}

// openOpus opens the container and reads the identification header.
func openOpus(path string) (*opusSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	src := &opusSource{file: f}
	if err := src.reset(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// reset rewinds the container and restarts the packet stream.
func (s *opusSource) reset() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	ogg, header, err := oggreader.NewWith(s.file)
	if err != nil {
		return fmt.Errorf("failed to parse Ogg container: %w", err)
	}

	channels := header.Channels
	if channels == 0 || channels > 2 {
		return fmt.Errorf("unsupported channel count %d", channels)
	}

	s.ogg = ogg
	s.fmt = media.AudioFormat{SampleRate: 48000, Channels: channels}
	s.decoder = opus.NewDecoder()
	s.pending = nil
	s.position = 0
	return nil
}

func (s *opusSource) format() media.AudioFormat { return s.fmt }

// nextPacket returns the next Opus packet, pulling Ogg pages as needed.
func (s *opusSource) nextPacket() ([]byte, bool) {
	for len(s.pending) == 0 {
		segments, _, err := s.ogg.ParseNextPage()
		if err != nil {
			return nil, false
		}
		s.pending = segments
	}
	packet := s.pending[0]
	s.pending = s.pending[1:]
	return packet, true
}

func (s *opusSource) decode(out *media.AudioFrame) bool {
	packet, ok := s.nextPacket()
	if !ok {
		return false
	}

	raw := make([]byte, opusDecodeBuffer)
	bandwidth, isStereo, err := s.decoder.Decode(packet, raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "opusSource.decode",
			"packet_size": len(packet),
			"error":       err.Error(),
		}).Warn("Opus packet decode failed")
		return false
	}

	sampleCount := len(raw) / 2
	channels := 1
	if isStereo {
		channels = 2
	}

	pcm := make([]int16, sampleCount)
	for i := 0; i < sampleCount; i++ {
		pcm[i] = int16(raw[2*i]) | int16(raw[2*i+1])<<8
	}

	rate := uint32(bandwidth.SampleRate())
	if rate == 0 {
		rate = s.fmt.SampleRate
	}

	out.PCM = pcm
	out.Format = media.AudioFormat{SampleRate: rate, Channels: uint8(channels)}
	out.PTS = s.position
	s.position += float64(sampleCount/channels) / float64(rate)
	return true
}

// seek restarts the stream and discards decoded audio until the target
// position. Coarse, but exact granule tracking is not worth the
// complexity for a sidecar track that follows the video clock anyway.
func (s *opusSource) seek(seconds float64) error {
	if err := s.reset(); err != nil {
		return err
	}
	var frame media.AudioFrame
	for s.position < seconds {
		if !s.decode(&frame) {
			break
		}
	}
	return nil
}

func (s *opusSource) clock() float64 { return s.position }

func (s *opusSource) close() error { return s.file.Close() }
