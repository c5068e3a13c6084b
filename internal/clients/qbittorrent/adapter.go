// Package qbittorrent adapts github.com/autobrr/go-qbittorrent to the
// clients.Client contract.
package qbittorrent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog/log"

	"github.com/graft-pt/graft/internal/clients"
	"github.com/graft-pt/graft/internal/graft"
	"github.com/graft-pt/graft/internal/torrentfile"
)

// Adapter wraps a qbt.Client, embedding it the way the sister qBittorrent
// wrapper in this codebase's broader install base does, but trimmed to the
// narrower surface the reseed pipeline actually consumes (no WebAPI-version
// feature detection — this package never calls SetTags).
type Adapter struct {
	*qbt.Client
}

// NewAdapter logs in and returns a ready-to-use Adapter.
func NewAdapter(ctx context.Context, host, username, password string) (*Adapter, error) {
	client := qbt.NewClient(qbt.Config{
		Host:     host,
		Username: username,
		Password: password,
		Timeout:  30,
	})

	loginCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := client.LoginCtx(loginCtx); err != nil {
		return nil, graft.New(graft.KindAuthFailed, "qbittorrent.NewAdapter", err)
	}

	return &Adapter{Client: client}, nil
}

func (a *Adapter) TestConnection(ctx context.Context) error {
	if _, err := a.GetWebAPIVersionCtx(ctx); err != nil {
		if loginErr := a.LoginCtx(ctx); loginErr != nil {
			return graft.New(graft.KindAuthFailed, "qbittorrent.TestConnection", loginErr)
		}
		if _, err := a.GetWebAPIVersionCtx(ctx); err != nil {
			return graft.New(graft.KindUnreachable, "qbittorrent.TestConnection", err)
		}
	}
	return nil
}

func (a *Adapter) ListTorrents(ctx context.Context) ([]clients.TorrentView, error) {
	torrents, err := a.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{})
	if err != nil {
		return nil, graft.New(graft.KindUnreachable, "qbittorrent.ListTorrents", err)
	}

	views := make([]clients.TorrentView, 0, len(torrents))
	for _, t := range torrents {
		trackers, err := a.GetTorrentTrackersCtx(ctx, t.Hash)
		if err != nil {
			log.Warn().Err(err).Str("hash", t.Hash).Msg("failed to fetch torrent trackers")
		}
		urls := make([]string, 0, len(trackers))
		for _, tr := range trackers {
			if tr.Url != "" {
				urls = append(urls, tr.Url)
			}
		}

		var tags []string
		if t.Tags != "" {
			for _, tag := range strings.Split(t.Tags, ",") {
				tags = append(tags, strings.TrimSpace(tag))
			}
		}

		qbtFiles, err := a.GetFilesInformationCtx(ctx, t.Hash)
		if err != nil {
			log.Warn().Err(err).Str("hash", t.Hash).Msg("failed to fetch torrent files")
		}
		var files []clients.TorrentFile
		if qbtFiles != nil {
			files = make([]clients.TorrentFile, 0, len(*qbtFiles))
			for _, f := range *qbtFiles {
				files = append(files, clients.TorrentFile{Path: f.Name, Size: f.Size})
			}
		}

		views = append(views, clients.TorrentView{
			InfoHash: strings.ToLower(t.Hash),
			Name:     t.Name,
			Size:     t.Size,
			State:    string(t.State),
			SavePath: t.SavePath,
			Category: t.Category,
			Tags:     tags,
			Trackers: urls,
			AddedOn:  t.AddedOn,
			Files:    files,
		})
	}
	return views, nil
}

func (a *Adapter) AddTorrent(ctx context.Context, torrentBytes []byte, opts clients.AddOptions) (string, error) {
	options := map[string]string{
		"paused":        strconv.FormatBool(opts.Paused),
		"skip_checking": strconv.FormatBool(opts.SkipChecking),
	}
	if opts.SavePath != "" {
		options["savepath"] = opts.SavePath
		options["autoTMM"] = "false"
	}
	if opts.Category != "" {
		options["category"] = opts.Category
	}
	if len(opts.Tags) > 0 {
		options["tags"] = strings.Join(opts.Tags, ",")
	}

	if err := a.AddTorrentFromMemoryCtx(ctx, torrentBytes, options); err != nil {
		return "", graft.New(graft.KindAddFailed, "qbittorrent.AddTorrent", err)
	}

	hash, err := torrentfile.InfoHash(torrentBytes)
	if err != nil {
		return "", graft.New(graft.KindAddFailed, "qbittorrent.AddTorrent", fmt.Errorf("added but could not derive info-hash: %w", err))
	}
	return hash, nil
}

func (a *Adapter) Remove(ctx context.Context, infoHash string) error {
	if err := a.DeleteTorrentsCtx(ctx, []string{infoHash}, false); err != nil {
		return graft.New(graft.KindUnreachable, "qbittorrent.Remove", err)
	}
	return nil
}

func (a *Adapter) Pause(ctx context.Context, infoHash string) error {
	if err := a.PauseCtx(ctx, []string{infoHash}); err != nil {
		return graft.New(graft.KindUnreachable, "qbittorrent.Pause", err)
	}
	return nil
}

func (a *Adapter) Resume(ctx context.Context, infoHash string) error {
	if err := a.ResumeCtx(ctx, []string{infoHash}); err != nil {
		return graft.New(graft.KindUnreachable, "qbittorrent.Resume", err)
	}
	return nil
}

func (a *Adapter) Recheck(ctx context.Context, infoHash string) error {
	if err := a.RecheckCtx(ctx, []string{infoHash}); err != nil {
		return graft.New(graft.KindUnreachable, "qbittorrent.Recheck", err)
	}
	return nil
}
