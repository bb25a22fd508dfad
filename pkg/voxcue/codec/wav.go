// Package codec implements the Codec collaborator spec §1/§6 describe as
// an external dependency of the core: on-disk WAV container
// encode/decode and sample-rate/channel-count canonicalization, so the
// mixer only ever sees spec §4.7's canonical PCM format. Grounded on
// loqalabs-loqa-core's internal/stt exec_recognizer.go, which uses the
// same go-audio/wav + go-audio/audio pairing to round-trip raw PCM
// through a WAV container.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/voxcue/voxcue/pkg/voxcue/errorsx"
	"github.com/voxcue/voxcue/pkg/voxcue/pcm"
)

// EncodeWAV writes buf as a WAV container to w. Errors are wrapped as
// errorsx.KindCodec, per spec §7: "CodecError — returned from the codec
// collaborator; surfaced to caller verbatim."
func EncodeWAV(w io.Writer, buf pcm.Buffer) error {
	if err := buf.Validate(); err != nil {
		return errorsx.Wrap(err, errorsx.KindCodec)
	}

	intBuf := &goaudio.IntBuffer{
		Format: &goaudio.Format{NumChannels: buf.ChannelCount, SampleRate: buf.SampleRate},
		Data:   samplesToInts(buf.Samples),
	}

	// wav.NewEncoder requires io.WriteSeeker to back-patch header size
	// fields after the payload is written; buffer in memory so callers
	// can still pass a plain io.Writer.
	ws := &memWriteSeeker{}
	enc := wav.NewEncoder(ws, buf.SampleRate, 16, buf.ChannelCount, 1)
	if err := enc.Write(intBuf); err != nil {
		return errorsx.Wrap(fmt.Errorf("encode wav: %w", err), errorsx.KindCodec)
	}
	if err := enc.Close(); err != nil {
		return errorsx.Wrap(fmt.Errorf("close wav encoder: %w", err), errorsx.KindCodec)
	}
	if _, err := w.Write(ws.buf); err != nil {
		return errorsx.Wrap(fmt.Errorf("write wav: %w", err), errorsx.KindCodec)
	}
	return nil
}

// memWriteSeeker is an in-memory io.WriteSeeker used to satisfy
// wav.NewEncoder, which needs to seek back and patch header fields
// after the payload size is known.
type memWriteSeeker struct {
	buf []byte
	pos int64
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	n := copy(m.buf[m.pos:end], p)
	m.pos = end
	return n, nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = m.pos + offset
	case io.SeekEnd:
		newPos = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("memWriteSeeker: invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("memWriteSeeker: negative position")
	}
	m.pos = newPos
	return newPos, nil
}

// DecodeWAV reads a WAV container from r and returns its PCM payload.
// The returned Buffer carries whatever sample rate/channel count the
// file declared; callers must Canonicalize it before it reaches the
// mixer.
func DecodeWAV(r io.ReadSeeker) (pcm.Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return pcm.Buffer{}, errorsx.Wrap(fmt.Errorf("decode wav: not a valid WAV file"), errorsx.KindCodec)
	}

	intBuf, err := dec.FullPCMBuffer()
	if err != nil {
		return pcm.Buffer{}, errorsx.Wrap(fmt.Errorf("decode wav: %w", err), errorsx.KindCodec)
	}

	return pcm.Buffer{
		Samples:      intsToSamples(intBuf.Data),
		SampleRate:   int(dec.SampleRate),
		ChannelCount: int(dec.NumChans),
	}, nil
}

func samplesToInts(raw []byte) []int {
	out := make([]int, len(raw)/2)
	for i := range out {
		out[i] = int(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	return out
}

func intsToSamples(ints []int) []byte {
	out := make([]byte, len(ints)*2)
	for i, v := range ints {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

// EncodeWAVBytes is a convenience wrapper returning the encoded bytes
// directly, for callers (e.g. the CLI) that don't hold an io.Writer.
func EncodeWAVBytes(buf pcm.Buffer) ([]byte, error) {
	var b bytes.Buffer
	if err := EncodeWAV(&b, buf); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
