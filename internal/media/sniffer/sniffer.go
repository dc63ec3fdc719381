// Package sniffer detects uploaded audio types from magic bytes. Declared
// content types are advisory; the bytes decide.
package sniffer

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
)

type AudioType string

const (
	TypeMP3 AudioType = "mp3"
	TypeWAV AudioType = "wav"
	TypeOGG AudioType = "ogg"
)

var ErrUnknownType = errors.New("unknown audio type")

type Result struct {
	Type AudioType
	MIME string
}

func Detect(r io.Reader) (Result, []byte, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Result{}, nil, err
	}
	head = head[:n]

	result, err := DetectHead(head)
	return result, head, err
}

func DetectHead(head []byte) (Result, error) {
	if len(head) == 0 {
		return Result{}, ErrUnknownType
	}

	if isMP3(head) {
		return Result{Type: TypeMP3, MIME: "audio/mpeg"}, nil
	}
	if isWAV(head) {
		return Result{Type: TypeWAV, MIME: "audio/wav"}, nil
	}
	if isOGG(head) {
		return Result{Type: TypeOGG, MIME: "audio/ogg"}, nil
	}

	return Result{}, ErrUnknownType
}

func isMP3(head []byte) bool {
	if len(head) >= 3 && bytes.Equal(head[:3], []byte("ID3")) {
		return true
	}
	// Raw MPEG frame sync: 11 set bits.
	return len(head) >= 2 && head[0] == 0xff && head[1]&0xe0 == 0xe0
}

func isWAV(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WAVE"))
}

func isOGG(head []byte) bool {
	return len(head) >= 4 && bytes.Equal(head[:4], []byte("OggS"))
}

func MimeTypeFromHTTP(header http.Header) string {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		return ""
	}
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		return strings.TrimSpace(contentType[:idx])
	}
	return strings.TrimSpace(contentType)
}
