package pageexport

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Kind classifies why an export did not produce content.
type Kind int

const (
	// KindTransport is any failure of an individual API or download call.
	KindTransport Kind = iota + 1
	// KindRemoteFailed means the API reported the export as failed.
	KindRemoteFailed
	// KindTimedOut means the poll budget ran out before a terminal status.
	KindTimedOut
	// KindNoDownloadLink means the export completed without a download link.
	KindNoDownloadLink
	// KindUntrustedHost means the download link points outside the allow-list.
	KindUntrustedHost
	// KindInvalidURL means the download link could not be parsed.
	KindInvalidURL
	// KindDecompressFailed means the gzip payload was corrupt.
	KindDecompressFailed
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRemoteFailed:
		return "remote_failed"
	case KindTimedOut:
		return "timed_out"
	case KindNoDownloadLink:
		return "no_download_link"
	case KindUntrustedHost:
		return "untrusted_host"
	case KindInvalidURL:
		return "invalid_url"
	case KindDecompressFailed:
		return "decompress_failed"
	default:
		return "unknown"
	}
}

// unknownRemoteError stands in when a failed export carries no message.
const unknownRemoteError = "Unknown error"

// Error is returned by ExportPage for every unsuccessful run.
type Error struct {
	Kind Kind
	// Op names the step that failed: "initiate", "poll", "download" or "page metadata".
	Op string
	// Message is the remote failure reason (KindRemoteFailed).
	Message string
	// Host is the rejected download host (KindUntrustedHost).
	Host string
	// Elapsed is the exhausted poll budget (KindTimedOut).
	Elapsed time.Duration
	// Err is the underlying cause, when there is one.
	Err error
}

// Error implements the error interface. Each kind has its own wording so the
// calling agent can tell them apart.
func (e *Error) Error() string {
	switch e.Kind {
	case KindRemoteFailed:
		return "Export failed: " + e.Message
	case KindTimedOut:
		return "Export timed out after " + formatSeconds(e.Elapsed) + " seconds"
	case KindNoDownloadLink:
		return "Export complete but no download link provided"
	case KindUntrustedHost:
		return fmt.Sprintf("Export download link points to untrusted host %q", e.Host)
	case KindInvalidURL:
		return fmt.Sprintf("Export download link is not a valid URL: %v", e.Err)
	case KindDecompressFailed:
		return fmt.Sprintf("Failed to decompress gzip export content: %v", e.Err)
	default:
		return fmt.Sprintf("page export %s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of an export error, or 0 if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func transportError(op string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
