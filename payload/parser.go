// Package payload implements the PayloadParser: it turns an HTTP POST body
// into a metadata map and a named-dump map, transparently gzip-decoding the
// body when declared, and demultiplexing the resulting multipart form.
package payload

import (
	"bytes"
	"compress/gzip"
	"crypto/md5"
	"encoding/hex"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/mozilla/antenna/crashreport"
	"github.com/mozilla/antenna/metrics"
)

// Parser extracts (metadata, dumps) pairs from submitted crash reports.
type Parser struct {
	Metrics metrics.Metrics
}

// New returns a Parser that reports through m.
func New(m metrics.Metrics) *Parser {
	return &Parser{Metrics: m}
}

func empty() (crashreport.Metadata, map[string][]byte) {
	return crashreport.Metadata{}, map[string][]byte{}
}

// Parse implements the PayloadParser contract.
//
// Every rejection condition below is not an error: Parse returns empty
// metadata and dumps, and the caller is expected to still proceed to issue
// a response with a freshly generated crash ID. That quirk -- a malformed
// submission still produces a 200 with a crash ID -- is preserved on
// purpose; see the submission endpoint for why.
func (p *Parser) Parse(r *http.Request) (crashreport.Metadata, map[string][]byte) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return empty()
	}

	ctParts := strings.SplitN(contentType, ";", 2)
	if len(ctParts) != 2 || strings.TrimSpace(ctParts[0]) != "multipart/form-data" {
		return empty()
	}
	boundaryPart := strings.TrimSpace(ctParts[1])
	if !strings.HasPrefix(boundaryPart, "boundary=") {
		return empty()
	}
	boundary := strings.TrimPrefix(boundaryPart, "boundary=")

	if r.ContentLength <= 0 {
		return empty()
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, r.ContentLength))
	if err != nil {
		return empty()
	}

	if strings.EqualFold(r.Header.Get("Content-Encoding"), "gzip") {
		compressedSize := len(body)
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			p.Metrics.Incr(metrics.CounterBadGzippedCrash)
			return empty()
		}
		decompressed, err := io.ReadAll(gz)
		if err != nil {
			p.Metrics.Incr(metrics.CounterBadGzippedCrash)
			return empty()
		}
		p.Metrics.Incr(metrics.CounterGzippedCrash)
		p.Metrics.Histogram(metrics.HistogramCrashSizeCompressed, float64(compressedSize))
		body = decompressed
	} else {
		p.Metrics.Histogram(metrics.HistogramCrashSizeUncompresed, float64(len(body)))
	}

	return p.demux(body, boundary)
}

// demux walks every part of the multipart body, classifying each one as a
// dump or a text metadata field.
func (p *Parser) demux(body []byte, boundary string) (crashreport.Metadata, map[string][]byte) {
	metadata := crashreport.Metadata{}
	dumps := map[string][]byte{}

	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		name := part.FormName()
		if name == "dump_checksums" {
			continue
		}

		data, err := io.ReadAll(part)
		if err != nil {
			continue
		}

		contentType := part.Header.Get("Content-Type")
		looksLikeDump := strings.HasPrefix(contentType, "application/octet-stream") ||
			part.FileName() != "" ||
			!utf8.Valid(data)
		if looksLikeDump {
			dumps[name] = data
			metadata.Checksums()[name] = md5Hex(data)
		} else {
			metadata[name] = stripNulls(string(data))
		}
	}

	return metadata, dumps
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// stripNulls removes every U+0000 code point from s.
func stripNulls(s string) string {
	if !strings.ContainsRune(s, 0) {
		return s
	}
	return strings.ReplaceAll(s, "\x00", "")
}
