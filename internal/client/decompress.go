package client

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
)

type compressionError struct {
	encoding string
	err      error
}

func (e *compressionError) Error() string {
	return fmt.Sprintf("decompress %s body: %v", e.encoding, e.err)
}

func (e *compressionError) Unwrap() error {
	return e.err
}

// decompressMiddleware replaces a br encoded body with its decoded bytes.
// resty gunzips gzip bodies itself before response middleware runs.
func decompressMiddleware(_ *resty.Client, resp *resty.Response) error {
	encoding := contentEncoding(resp)
	if encoding != "br" || len(resp.Body()) == 0 {
		return nil
	}

	decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(resp.Body())))
	if err != nil {
		return &compressionError{encoding: encoding, err: err}
	}

	resp.SetBody(decompressed)
	resp.Header().Del("Content-Encoding")
	return nil
}

func contentEncoding(resp *resty.Response) string {
	if resp == nil || resp.RawResponse == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(resp.Header().Get("Content-Encoding")))
}

// gzipFailure reports whether err came from resty gunzipping a gzip body.
func gzipFailure(resp *resty.Response, err error) bool {
	if contentEncoding(resp) != "gzip" {
		return false
	}
	var corrupt flate.CorruptInputError
	return errors.Is(err, gzip.ErrHeader) ||
		errors.Is(err, gzip.ErrChecksum) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.As(err, &corrupt)
}
