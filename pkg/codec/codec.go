// Package codec compresses large note bodies for storage.
//
// Bodies at or above CompressionThreshold bytes are zlib-deflated and
// base64 encoded, but only when the encoded text comes out shorter than
// the input. Failures are logged and never returned: the caller always
// gets a usable body back, compressed or not.
package codec

import (
	"bytes"
	"encoding/base64"
	"io"

	"github.com/klauspost/compress/zlib"

	"notebins/pkg/logger"
)

// CompressionThreshold is the body size, in bytes, below which content
// is stored as-is.
const CompressionThreshold = 10 * 1024

// Compress returns the stored form of content and whether it is compressed.
func Compress(content string) (string, bool) {
	if len(content) < CompressionThreshold {
		return content, false
	}

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := io.WriteString(w, content); err != nil {
		logger.Sugar.Warnf("codec: compression failed, storing uncompressed: %v", err)
		return content, false
	}
	if err := w.Close(); err != nil {
		logger.Sugar.Warnf("codec: compression failed, storing uncompressed: %v", err)
		return content, false
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	if len(encoded) >= len(content) {
		return content, false
	}
	return encoded, true
}

// Decompress reverses Compress. Payloads that fail to decode are returned
// unchanged.
func Decompress(payload string, isCompressed bool) string {
	if !isCompressed {
		return payload
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		logger.Sugar.Warnf("codec: decompression failed, returning stored payload: %v", err)
		return payload
	}

	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		logger.Sugar.Warnf("codec: decompression failed, returning stored payload: %v", err)
		return payload
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		logger.Sugar.Warnf("codec: decompression failed, returning stored payload: %v", err)
		return payload
	}
	return string(out)
}
