// Package reseed implements the cross-site reseed pipeline: a pure planner
// that proposes matches, and an executor that fetches, adds, and records
// them under rate-limit and retry discipline.
package reseed

import (
	"context"
	"strings"

	"github.com/graft-pt/graft/internal/clients"
	"github.com/graft-pt/graft/internal/models"
	"github.com/graft-pt/graft/internal/tracker"
)

// Match is one candidate cross-site reseed opportunity.
type Match struct {
	SourceHash      string
	SourceName      string
	SourceSite      string // empty when the source torrent's own site is unknown
	TargetSite      string
	TargetTorrentID string // the index entry's torrent id; "unknown" when the importer could not extract one
	TargetHash      string
	SavePath        string
	Size            int64
	Confidence      float64
}

// Plan is the planner's output: a snapshot safe to act on or discard.
type Plan struct {
	Matches   []Match
	TotalSize int64
}

// Planner produces a preview of cross-site matches. It never mutates state
// and is safe to call concurrently — every call builds an independent
// snapshot from a single read pass.
type Planner struct {
	idx   *models.IndexStore
	ident *tracker.Identifier
}

func NewPlanner(idx *models.IndexStore, ident *tracker.Identifier) *Planner {
	return &Planner{idx: idx, ident: ident}
}

// Plan lists sourceClient's torrents, batches their info-hashes into one
// find_matches call against targetSites, suppresses self-reseed (a match
// whose target site is the source torrent's own site, resolved from the
// source torrent's own trackers), joins each surviving match with its
// source torrent for name/save-path, then drops matches the target client
// already holds.
func (p *Planner) Plan(ctx context.Context, sourceClient clients.Client, targetClient clients.Client, targetSites []string) (*Plan, error) {
	sourceTorrents, err := sourceClient.ListTorrents(ctx)
	if err != nil {
		return nil, err
	}

	sourceByHash := make(map[string]clients.TorrentView, len(sourceTorrents))
	hashes := make([]string, 0, len(sourceTorrents))
	for _, t := range sourceTorrents {
		hash := strings.ToLower(t.InfoHash)
		sourceByHash[hash] = t
		hashes = append(hashes, hash)
	}

	if len(hashes) == 0 {
		return &Plan{}, nil
	}

	rawMatches, err := p.idx.FindMatches(ctx, hashes, targetSites)
	if err != nil {
		return nil, err
	}

	targetTorrents, err := targetClient.ListTorrents(ctx)
	if err != nil {
		return nil, err
	}
	targetHas := make(map[string]bool, len(targetTorrents))
	for _, t := range targetTorrents {
		targetHas[strings.ToLower(t.InfoHash)] = true
	}

	var plan Plan
	for _, m := range rawMatches {
		sourceHash := strings.ToLower(m.SourceHash)
		if sourceHash == "" {
			continue
		}
		source, ok := sourceByHash[sourceHash]
		if !ok {
			continue
		}

		res, known := identifyFirst(p.ident, source.Trackers)
		if known && res.SiteID == m.SiteID {
			continue
		}

		if targetHas[strings.ToLower(m.InfoHash)] {
			continue
		}

		sourceSite := ""
		if known {
			sourceSite = res.SiteID
		}

		plan.Matches = append(plan.Matches, Match{
			SourceHash:      sourceHash,
			SourceName:      source.Name,
			SourceSite:      sourceSite,
			TargetSite:      m.SiteID,
			TargetTorrentID: m.TorrentID,
			TargetHash:      strings.ToLower(m.InfoHash),
			SavePath:        source.SavePath,
			Size:            m.Size,
			Confidence:      m.Confidence,
		})
		plan.TotalSize += m.Size
	}

	return &plan, nil
}

func identifyFirst(ident *tracker.Identifier, announceURLs []string) (tracker.Resolution, bool) {
	for _, url := range announceURLs {
		if res, ok := ident.Identify(url); ok {
			return res, true
		}
	}
	return tracker.Resolution{}, false
}
