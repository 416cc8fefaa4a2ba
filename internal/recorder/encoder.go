package recorder

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// Encoder packages raw PCM into a transportable container.
type Encoder interface {
	MIMEType() string
	Encode(pcm []byte, sampleRate int, channels int) ([]byte, error)
}

// preferredMIMETypes orders container preference: opus in a container when an
// encoder for it is present, WAV as the always-available fallback.
var preferredMIMETypes = []string{
	"audio/ogg;codecs=opus",
	"audio/wav",
}

// DefaultEncoders lists the encoders compiled into this build.
func DefaultEncoders() []Encoder {
	return []Encoder{WAVEncoder{}}
}

// SelectEncoder probes the preference list against the available encoders and
// returns the best match.
func SelectEncoder(available []Encoder) Encoder {
	for _, mime := range preferredMIMETypes {
		for _, enc := range available {
			if enc.MIMEType() == mime {
				return enc
			}
		}
	}
	if len(available) > 0 {
		return available[0]
	}
	return WAVEncoder{}
}

// WAVEncoder wraps little-endian PCM16 in a RIFF/WAVE container.
type WAVEncoder struct{}

func (WAVEncoder) MIMEType() string { return "audio/wav" }

func (WAVEncoder) Encode(pcm []byte, sampleRate int, channels int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, errors.New("no samples to encode")
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if channels <= 0 {
		channels = 1
	}

	const bitsPerSample = 16
	byteRate := sampleRate * channels * (bitsPerSample / 8)
	blockAlign := channels * (bitsPerSample / 8)

	header := make([]byte, 44)
	copy(header[0:4], []byte("RIFF"))
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(pcm)))
	copy(header[8:12], []byte("WAVE"))
	copy(header[12:16], []byte("fmt "))
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], []byte("data"))
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(pcm)))

	var out bytes.Buffer
	out.Grow(len(header) + len(pcm))
	out.Write(header)
	out.Write(pcm)
	return out.Bytes(), nil
}
