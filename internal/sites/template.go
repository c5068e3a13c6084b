// Package sites implements the per-site adapter contract: composing a
// download URL from a template, validating the fetched bytes, enforcing a
// per-site rate limit, and the built-in tracker-domain table loaded into
// the identifier at startup.
package sites

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/graft-pt/graft/internal/graft"
	"github.com/graft-pt/graft/internal/models"
)

// sharedTransport is reused across every site's requests so connections
// pool instead of each site adapter paying its own TCP/TLS handshake cost.
var sharedTransport = func() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 10
	t.IdleConnTimeout = 90 * time.Second
	t.ForceAttemptHTTP2 = true
	return t
}()

// SharedHTTPClient is the process-wide client every site download
// (Registry.DownloadTorrent) uses.
var SharedHTTPClient = &http.Client{
	Timeout:   30 * time.Second,
	Transport: sharedTransport,
}

const bencodeAnnouncePrefix = "d8:announce"

// Template composes a download URL for a given torrent id and passkey, and
// carries the compiled pattern used to extract a torrent id from an
// announce URL when query parameters don't carry one.
type Template interface {
	// DownloadURL builds the URL that fetches a .torrent's bytes.
	DownloadURL(baseURL, torrentID, passkey string) string
	// IDPattern returns the compiled regex whose first capture group yields
	// a torrent id from an announce URL specific to this template.
	IDPattern() *regexp.Regexp
}

type nexusPHPTemplate struct{ idPattern *regexp.Regexp }
type unit3DTemplate struct{ idPattern *regexp.Regexp }
type gazelleTemplate struct{ idPattern *regexp.Regexp }

func (t nexusPHPTemplate) DownloadURL(baseURL, torrentID, passkey string) string {
	return fmt.Sprintf("%s/download.php?id=%s&passkey=%s", strings.TrimSuffix(baseURL, "/"), torrentID, passkey)
}
func (t nexusPHPTemplate) IDPattern() *regexp.Regexp { return t.idPattern }

func (t unit3DTemplate) DownloadURL(baseURL, torrentID, passkey string) string {
	return fmt.Sprintf("%s/torrents/download/%s?torrent_pass=%s", strings.TrimSuffix(baseURL, "/"), torrentID, passkey)
}
func (t unit3DTemplate) IDPattern() *regexp.Regexp { return t.idPattern }

func (t gazelleTemplate) DownloadURL(baseURL, torrentID, passkey string) string {
	return fmt.Sprintf("%s/torrents.php?action=download&id=%s&torrent_pass=%s", strings.TrimSuffix(baseURL, "/"), torrentID, passkey)
}
func (t gazelleTemplate) IDPattern() *regexp.Regexp { return t.idPattern }

// NewTemplate constructs the Template implementation for a site's
// configured template tag.
func NewTemplate(kind models.TemplateType) (Template, error) {
	switch kind {
	case models.TemplateNexusPHP:
		return nexusPHPTemplate{idPattern: regexp.MustCompile(`[?&]id=(\d+)`)}, nil
	case models.TemplateUnit3D:
		return unit3DTemplate{idPattern: regexp.MustCompile(`/torrents/download/(\d+)`)}, nil
	case models.TemplateGazelle:
		return gazelleTemplate{idPattern: regexp.MustCompile(`[?&]id=(\d+)`)}, nil
	default:
		return nil, graft.New(graft.KindConfig, "sites.NewTemplate", fmt.Errorf("unknown template %q", kind))
	}
}

// ValidateDownload applies the content-type-or-prefix check: sites often
// return an HTML login page on auth failure rather than a proper HTTP
// error, so the only reliable signal is the body shape itself.
func ValidateDownload(contentType string, body []byte) error {
	if strings.Contains(strings.ToLower(contentType), "bittorrent") {
		return nil
	}
	if bytes.HasPrefix(body, []byte(bencodeAnnouncePrefix)) {
		return nil
	}
	return graft.New(graft.KindNotFound, "sites.ValidateDownload", fmt.Errorf("response is not a bencoded torrent"))
}

// DownloadErrorReason names the reasons a download can fail. Fetch does not
// return these values; it reports the same cases as graft kinds (NotFound,
// AuthFailed, RateLimited, Unreachable).
type DownloadErrorReason string

const (
	DownloadNotFound    DownloadErrorReason = "not_found"
	DownloadForbidden   DownloadErrorReason = "forbidden"
	DownloadRateLimited DownloadErrorReason = "rate_limited"
	DownloadTransport   DownloadErrorReason = "transport"
)

// Fetch performs the HTTP GET for a site's download URL and classifies the
// outcome into a graft error kind. It does not wait on a rate limiter;
// Registry.DownloadTorrent does that before calling it.
func Fetch(ctx context.Context, client *http.Client, url string, cookie string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, graft.New(graft.KindUnreachable, "sites.Fetch", err)
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, graft.New(graft.KindUnreachable, "sites.Fetch", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return nil, graft.New(graft.KindRateLimited, "sites.Fetch", fmt.Errorf("rate limited (429)"))
	case http.StatusForbidden:
		return nil, graft.New(graft.KindAuthFailed, "sites.Fetch", fmt.Errorf("forbidden (403)"))
	case http.StatusNotFound:
		return nil, graft.New(graft.KindNotFound, "sites.Fetch", fmt.Errorf("not found (404)"))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, graft.New(graft.KindUnreachable, "sites.Fetch", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, graft.New(graft.KindUnreachable, "sites.Fetch", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	if err := ValidateDownload(resp.Header.Get("Content-Type"), body); err != nil {
		return nil, err
	}
	return body, nil
}
