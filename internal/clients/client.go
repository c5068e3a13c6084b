// Package clients defines the download-client adapter contract: a uniform
// view over qBittorrent and Transmission that the importer, planner, and
// executor consume without knowing which protocol backs a given client.
package clients

import "context"

// TorrentView is the adapter-neutral projection of one torrent as reported
// by a download client.
type TorrentView struct {
	InfoHash  string
	Name      string
	Size      int64
	State     string
	SavePath  string
	Category  string
	Tags      []string
	Trackers  []string // ordered announce URLs, first match wins during import
	AddedOn   int64
	Files     []TorrentFile // empty when the client listing doesn't carry a file list
}

type TorrentFile struct {
	Path string
	Size int64
}

// AddOptions configures an add_torrent call.
type AddOptions struct {
	SavePath     string
	Category     string
	Tags         []string
	Paused       bool
	SkipChecking bool
}

// Client is the closed sum-type contract every download-client adapter
// implements. Variants: qBittorrent (session-cookie auth), Transmission
// (CSRF-token header) — no other variants are known.
type Client interface {
	TestConnection(ctx context.Context) error
	ListTorrents(ctx context.Context) ([]TorrentView, error)
	// AddTorrent must be idempotent by info-hash: a second add of the same
	// hash returns success without duplicating the torrent.
	AddTorrent(ctx context.Context, torrentBytes []byte, opts AddOptions) (infoHash string, err error)
	Remove(ctx context.Context, infoHash string) error
	Pause(ctx context.Context, infoHash string) error
	Resume(ctx context.Context, infoHash string) error
	Recheck(ctx context.Context, infoHash string) error
}
