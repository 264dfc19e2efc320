package player

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// pcmDecoder yields 16-bit little-endian PCM at its native channel count.
type pcmDecoder interface {
	io.Reader
	Length() int64 // output bytes, 0 if unknown
	SampleRate() int
	ChannelCount() int
}

var decoders = map[string]func(*os.File) (pcmDecoder, error){
	".mp3":  newMP3Decoder,
	".wav":  newWAVDecoder,
	".flac": newFLACDecoder,
	".ogg":  newOGGDecoder,
}

// Supported reports whether path has a playable extension.
func Supported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// SupportedExtensions lists playable extensions.
func SupportedExtensions() []string {
	return []string{".flac", ".mp3", ".ogg", ".wav"}
}

func openDecoder(f *os.File) (pcmDecoder, error) {
	ext := strings.ToLower(filepath.Ext(f.Name()))
	open, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
	dec, err := open(f)
	if err != nil {
		return nil, err
	}
	if ch := dec.ChannelCount(); ch < 1 || ch > 2 {
		return nil, fmt.Errorf("unsupported channel count: %d", ch)
	}
	return dec, nil
}

func clamp16(v int) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	}
	return int16(v)
}

// pending holds converted bytes that did not fit the caller's buffer.
type pending struct {
	rest []byte
}

func (p *pending) drain(dst []byte) int {
	n := copy(dst, p.rest)
	p.rest = p.rest[n:]
	return n
}

func (p *pending) emit(dst, raw []byte) int {
	n := copy(dst, raw)
	if n < len(raw) {
		p.rest = raw[n:]
	}
	return n
}

// stereo widens a mono decoder by duplicating each sample.
type stereo struct {
	src pcmDecoder
	in  []byte
	pending
}

func toStereo(d pcmDecoder) pcmDecoder {
	if d.ChannelCount() == 2 {
		return d
	}
	return &stereo{src: d}
}

func (s *stereo) Read(p []byte) (int, error) {
	if len(s.rest) > 0 {
		return s.drain(p), nil
	}
	want := max(len(p)/4*2, 2)
	if cap(s.in) < want {
		s.in = make([]byte, want)
	}
	n, err := s.src.Read(s.in[:want])
	n -= n % 2
	if n == 0 {
		return 0, err
	}
	raw := make([]byte, n*2)
	for i := 0; i < n; i += 2 {
		copy(raw[i*2:], s.in[i:i+2])
		copy(raw[i*2+2:], s.in[i:i+2])
	}
	return s.emit(p, raw), err
}

func (s *stereo) Length() int64     { return s.src.Length() * 2 }
func (s *stereo) SampleRate() int   { return s.src.SampleRate() }
func (s *stereo) ChannelCount() int { return 2 }

type mp3Decoder struct {
	dec *mp3.Decoder
}

func newMP3Decoder(f *os.File) (pcmDecoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return &mp3Decoder{dec: dec}, nil
}

func (d *mp3Decoder) Read(p []byte) (int, error) { return d.dec.Read(p) }
func (d *mp3Decoder) Length() int64              { return d.dec.Length() }
func (d *mp3Decoder) SampleRate() int            { return d.dec.SampleRate() }
func (d *mp3Decoder) ChannelCount() int          { return 2 }

// wavDecoder converts integer PCM of any common depth to 16-bit using the
// go-audio sample buffer.
type wavDecoder struct {
	dec      *wav.Decoder
	buf      *audio.IntBuffer
	depth    int
	channels int
	rate     int
	length   int64
	pending
}

func newWAVDecoder(f *os.File) (pcmDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	depth := int(dec.BitDepth)
	if channels == 0 || depth == 0 {
		return nil, fmt.Errorf("invalid WAV format")
	}
	frames := dec.PCMLen() / int64(channels*depth/8)

	return &wavDecoder{
		dec: dec,
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: channels, SampleRate: int(dec.SampleRate)},
			Data:   make([]int, 4096*channels),
		},
		depth:    depth,
		channels: channels,
		rate:     int(dec.SampleRate),
		length:   frames * int64(channels) * 2,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if len(d.rest) > 0 {
		return d.drain(p), nil
	}
	n, err := d.dec.PCMBuffer(d.buf)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	raw := make([]byte, n*2)
	for i, v := range d.buf.Data[:n] {
		var s int
		switch d.depth {
		case 8:
			s = (v - 128) << 8
		case 16:
			s = v
		default:
			s = v >> (d.depth - 16)
		}
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(clamp16(s)))
	}
	return d.emit(p, raw), nil
}

func (d *wavDecoder) Length() int64     { return d.length }
func (d *wavDecoder) SampleRate() int   { return d.rate }
func (d *wavDecoder) ChannelCount() int { return d.channels }

type flacDecoder struct {
	stream   *flac.Stream
	channels int
	rate     int
	bps      int
	length   int64
	pending
}

func newFLACDecoder(f *os.File) (pcmDecoder, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	return &flacDecoder{
		stream:   stream,
		channels: int(info.NChannels),
		rate:     int(info.SampleRate),
		bps:      int(info.BitsPerSample),
		length:   int64(info.NSamples) * int64(info.NChannels) * 2,
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if len(d.rest) > 0 {
		return d.drain(p), nil
	}
	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	n := int(frame.Subframes[0].NSamples)
	raw := make([]byte, n*d.channels*2)
	for i := range n {
		for ch := range d.channels {
			s := int(frame.Subframes[ch].Samples[i])
			switch {
			case d.bps > 16:
				s >>= d.bps - 16
			case d.bps < 16:
				s <<= 16 - d.bps
			}
			binary.LittleEndian.PutUint16(raw[(i*d.channels+ch)*2:], uint16(clamp16(s)))
		}
	}
	return d.emit(p, raw), nil
}

func (d *flacDecoder) Length() int64     { return d.length }
func (d *flacDecoder) SampleRate() int   { return d.rate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

type oggDecoder struct {
	reader  *oggvorbis.Reader
	samples []float32
	length  int64
	pending
}

func newOGGDecoder(f *os.File) (pcmDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	return &oggDecoder{
		reader: reader,
		length: reader.Length() * int64(reader.Channels()) * 2,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if len(d.rest) > 0 {
		return d.drain(p), nil
	}
	want := max(len(p)/2, d.reader.Channels())
	if cap(d.samples) < want {
		d.samples = make([]float32, want)
	}
	n, err := d.reader.Read(d.samples[:want])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	raw := make([]byte, n*2)
	for i, s := range d.samples[:n] {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(clamp16(int(s*32767))))
	}
	return d.emit(p, raw), err
}

func (d *oggDecoder) Length() int64     { return d.length }
func (d *oggDecoder) SampleRate() int   { return d.reader.SampleRate() }
func (d *oggDecoder) ChannelCount() int { return d.reader.Channels() }
