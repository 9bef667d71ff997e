package pageexport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// trustedDownloadHosts are the domains an export download link may point at:
// Coda itself, its content host, and the cloud bucket that serves exports.
// The set is fixed for the life of the process.
var trustedDownloadHosts = []string{
	"coda.io",
	"codahosted.io",
	"storage.googleapis.com",
}

// TrustedDownloadHosts returns a copy of the download allow-list.
func TrustedDownloadHosts() []string {
	return slices.Clone(trustedDownloadHosts)
}

// isTrustedHost reports whether host ends with one of the trusted domains.
//
// This is a plain suffix match, so "docs.coda.io" is accepted and so is
// "evil-coda.io". A dot-delimited match would reject the latter; see the
// allow-list entry in DESIGN.md before changing it.
func isTrustedHost(host string) bool {
	host = strings.ToLower(host)
	for _, domain := range trustedDownloadHosts {
		if strings.HasSuffix(host, domain) {
			return true
		}
	}
	return false
}

// checkDownloadURL parses link and verifies its host. It never touches the
// network.
func checkDownloadURL(link string) error {
	u, err := url.Parse(link)
	if err != nil {
		return &Error{Kind: KindInvalidURL, Op: "download", Err: err}
	}
	return checkDownloadTarget(u)
}

// checkDownloadTarget applies the scheme and host rules to u. The download
// client runs it again on every redirect hop.
func checkDownloadTarget(u *url.URL) error {
	if u.Scheme != "https" && u.Scheme != "http" {
		return &Error{Kind: KindInvalidURL, Op: "download", Err: fmt.Errorf("unsupported scheme %q in %q", u.Scheme, u)}
	}
	host := u.Hostname()
	if host == "" {
		return &Error{Kind: KindInvalidURL, Op: "download", Err: fmt.Errorf("no host in %q", u)}
	}
	if !isTrustedHost(host) {
		return &Error{Kind: KindUntrustedHost, Op: "download", Host: host}
	}
	return nil
}

// DefaultMaxContentBytes caps the inflated size of an export.
const DefaultMaxContentBytes int64 = 256 << 20

// errContentTooLarge is wrapped when an inflated payload passes the cap.
var errContentTooLarge = errors.New("inflated content too large")

// gzipMagic is the two-byte header of every gzip stream.
var gzipMagic = []byte{0x1f, 0x8b}

// decodeContent turns downloaded bytes into text, inflating gzip payloads of
// up to limit bytes. Invalid UTF-8 is replaced rather than rejected.
func decodeContent(data []byte, limit int64) (string, error) {
	if bytes.HasPrefix(data, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return "", err
		}
		defer zr.Close()

		inflated, err := io.ReadAll(io.LimitReader(zr, limit+1))
		if err != nil {
			return "", err
		}
		if int64(len(inflated)) > limit {
			return "", fmt.Errorf("%w: more than %d bytes", errContentTooLarge, limit)
		}
		data = inflated
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
