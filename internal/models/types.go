// Package models defines the persisted record types and the store types
// that read and write them. Every store accepts a dbinterface.Querier so
// callers can run a store method against the shared *database.DB, a *sql.Tx
// to compose multiple writes atomically, or (in tests) a bare *sql.DB.
package models

import "time"

type ClientType string

const (
	ClientTypeQBittorrent  ClientType = "qbittorrent"
	ClientTypeTransmission ClientType = "transmission"
)

// Client is a configured download client the core reads torrents from or
// adds torrents to.
type Client struct {
	ID                string
	Name              string
	Variant           ClientType
	Host              string
	Port              int
	Username          string
	PasswordEncrypted string
	HTTPS             bool
	Enabled           bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type TemplateType string

const (
	TemplateNexusPHP TemplateType = "nexusphp"
	TemplateUnit3D   TemplateType = "unit3d"
	TemplateGazelle  TemplateType = "gazelle"
)

// Site is a configured private tracker the reseed pipeline can fetch
// torrents from.
type Site struct {
	ID              string
	Name            string
	BaseURL         string
	Template        TemplateType
	Passkey         string
	CookieEncrypted string
	Enabled         bool
	RPM             int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TrackerDomain binds an announce-URL domain to the site it identifies.
type TrackerDomain struct {
	Domain string
	SiteID string
}

// Fingerprint is a content-addressed structural description of a torrent's
// payload, used to recognize the same content across sites that don't share
// an info-hash (e.g. re-announced or re-packed releases).
type Fingerprint struct {
	ID              int64
	TotalSize       uint64
	FileCount       uint32
	LargestFileSize uint64
	FilesHash       string // empty when Structural fidelity only
	CreatedAt       time.Time
}

// IndexEntry is one row of the torrent index: a piece of content known to
// exist on a given site.
type IndexEntry struct {
	ID            int64
	InfoHash      string
	SiteID        string
	TorrentID     string
	FingerprintID int64 // 0 when absent
	Name          string
	Size          int64
	SavePath      string
	SourceClient  string
	CreatedAt     time.Time
}

// Match is a candidate cross-site reseed opportunity returned by
// find_matches, carrying the confidence tier that produced it.
type Match struct {
	IndexEntry
	// SourceHash is the hash (from the query's input set) that triggered
	// this match: its own info_hash for an exact match, or the hash of
	// whichever queried torrent shares its fingerprint for a structural one.
	SourceHash string
	Confidence float64
}

// ReseedTask is a user-configured automated reseed job.
type ReseedTask struct {
	ID             string
	Name           string
	SourceClientID string
	TargetClientID string
	TargetSiteIDs  []string
	CronExpr       string
	AddPaused      bool
	Enabled        bool
	LastRun        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type HistoryStatus string

const (
	HistoryStatusSuccess HistoryStatus = "success"
	HistoryStatusFailed  HistoryStatus = "failed"
	HistoryStatusSkipped HistoryStatus = "skipped"
)

// HistoryEntry is one append-only record of a reseed attempt's outcome.
type HistoryEntry struct {
	ID         int64
	TaskID     string
	InfoHash   string
	SourceSite string
	TargetSite string
	Status     HistoryStatus
	Message    string
	CreatedAt  time.Time
}

// IndexStats summarizes the torrent index for operator visibility.
type IndexStats struct {
	Total  int
	BySite []SiteIndexCount
}

type SiteIndexCount struct {
	SiteID string
	Count  int
}
