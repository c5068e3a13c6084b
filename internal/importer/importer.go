// Package importer walks a download client's torrent listing, classifies
// each torrent via the tracker identifier, and persists matches via the
// index store.
package importer

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/graft-pt/graft/internal/clients"
	"github.com/graft-pt/graft/internal/fingerprint"
	"github.com/graft-pt/graft/internal/models"
	"github.com/graft-pt/graft/internal/tracker"
)

// Result carries the run's counters.
type Result struct {
	Total        int
	Imported     int
	Skipped      int
	Unrecognized int
}

// Import enumerates client's torrents once (no pagination in either
// backend), walks each torrent's announce list through ident (first match
// wins), and upserts a matching entry. The operation is single-pass and
// non-transactional across torrents: each torrent's upsert is its own small
// transaction, so a mid-run failure only loses the in-flight torrent — a
// re-run converges the rest.
func Import(
	ctx context.Context,
	client clients.Client,
	sourceLabel string,
	idx *models.IndexStore,
	fp *models.FingerprintStore,
	ident *tracker.Identifier,
) (Result, error) {
	var result Result

	torrents, err := client.ListTorrents(ctx)
	if err != nil {
		return result, err
	}
	result.Total = len(torrents)

	for _, t := range torrents {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		res, matched := identifyFirst(ident, t.Trackers)
		if !matched {
			result.Unrecognized++
			continue
		}

		already, err := idx.Exists(ctx, t.InfoHash, res.SiteID)
		if err != nil {
			log.Warn().Err(err).Str("hash", t.InfoHash).Msg("failed to check existing index entry")
			continue
		}

		entry := &models.IndexEntry{
			InfoHash:     t.InfoHash,
			SiteID:       res.SiteID,
			TorrentID:    res.TorrentID,
			Name:         t.Name,
			Size:         t.Size,
			SavePath:     t.SavePath,
			SourceClient: sourceLabel,
		}

		if len(t.Files) > 0 {
			meta := fingerprint.TorrentMeta{
				TotalSize:       uint64(t.Size),
				FileCount:       uint32(len(t.Files)),
				LargestFileSize: largestFile(t.Files),
				Files:           toFingerprintFiles(t.Files),
			}
			computed, err := fingerprint.Compute(meta)
			if err != nil {
				log.Warn().Err(err).Str("hash", t.InfoHash).Msg("failed to compute fingerprint, indexing without one")
			} else {
				fingerprintID, err := fp.EnsureFingerprint(ctx, &models.Fingerprint{
					TotalSize:       computed.TotalSize,
					FileCount:       computed.FileCount,
					LargestFileSize: computed.LargestFileSize,
					FilesHash:       computed.FilesHash,
				})
				if err != nil {
					log.Warn().Err(err).Str("hash", t.InfoHash).Msg("failed to ensure fingerprint")
				} else {
					entry.FingerprintID = fingerprintID
				}
			}
		}

		if err := idx.UpsertEntry(ctx, entry); err != nil {
			log.Warn().Err(err).Str("hash", t.InfoHash).Msg("failed to upsert index entry")
			continue
		}

		if already {
			result.Skipped++
		} else {
			result.Imported++
		}
	}

	return result, nil
}

func identifyFirst(ident *tracker.Identifier, announceURLs []string) (tracker.Resolution, bool) {
	for _, url := range announceURLs {
		if res, ok := ident.Identify(url); ok {
			return res, true
		}
	}
	return tracker.Resolution{}, false
}

func largestFile(files []clients.TorrentFile) uint64 {
	var max uint64
	for _, f := range files {
		if uint64(f.Size) > max {
			max = uint64(f.Size)
		}
	}
	return max
}

func toFingerprintFiles(files []clients.TorrentFile) []fingerprint.File {
	out := make([]fingerprint.File, len(files))
	for i, f := range files {
		out[i] = fingerprint.File{Path: strings.TrimPrefix(f.Path, "/"), Size: uint64(f.Size)}
	}
	return out
}
