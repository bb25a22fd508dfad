package httpvoice

import (
	"bytes"
	"encoding/base64"
	"io"
)

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

func decodeBase64PCM(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
