package polyhttp

import (
	"bytes"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// CompressBody applies the negotiated encoding to body, returning the
// encoded bytes and the Content-Encoding token to advertise. On any encoder
// failure it downgrades to identity (the caller logs the warning via
// internal/netlog) rather than fail the whole response, since a correct
// uncompressed body is always better than none.
//
// Grounded on spec §2's compression negotiation and wired against the
// teacher's domain dependency set enriched from the rest of the retrieval
// pack: klauspost/compress (gzip, zstd) and andybalholm/brotli, none of
// which the teacher itself imports — HTTP/2 alone has no response
// compression step, so this is new surface built in the teacher's
// byte-buffer-first style (append into a pooled buffer, return a slice).
func CompressBody(encoding string, body []byte) (encoded []byte, used string, err error) {
	switch encoding {
	case "gzip":
		var buf bytes.Buffer
		w, werr := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
		if werr != nil {
			return body, "", werr
		}
		if _, err = w.Write(body); err != nil {
			return body, "", err
		}
		if err = w.Close(); err != nil {
			return body, "", err
		}
		return buf.Bytes(), "gzip", nil

	case "br":
		var buf bytes.Buffer
		w := brotli.NewWriter(&buf)
		if _, err = w.Write(body); err != nil {
			return body, "", err
		}
		if err = w.Close(); err != nil {
			return body, "", err
		}
		return buf.Bytes(), "br", nil

	case "zstd":
		var buf bytes.Buffer
		w, werr := zstd.NewWriter(&buf)
		if werr != nil {
			return body, "", werr
		}
		if _, err = w.Write(body); err != nil {
			return body, "", err
		}
		if err = w.Close(); err != nil {
			return body, "", err
		}
		return buf.Bytes(), "zstd", nil

	case "deflate":
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err = w.Write(body); err != nil {
			return body, "", err
		}
		if err = w.Close(); err != nil {
			return body, "", err
		}
		return buf.Bytes(), "deflate", nil

	default:
		return body, "", nil
	}
}
