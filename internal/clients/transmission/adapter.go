// Package transmission hand-rolls a minimal Transmission RPC client: no
// example in the retrieval pack implements this protocol, so the wire
// shape here follows Transmission's own documented RPC spec (CSRF
// handshake via X-Transmission-Session-Id, torrent-get, torrent-add)
// structured the same way as this codebase's other HTTP-based adapters —
// a shared *http.Client, zerolog logging, context-aware methods.
package transmission

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/graft-pt/graft/internal/clients"
	"github.com/graft-pt/graft/internal/graft"
)

const sessionIDHeader = "X-Transmission-Session-Id"

// Adapter speaks Transmission's JSON-RPC endpoint (typically
// /transmission/rpc), re-handshaking its CSRF token whenever the server
// rejects a stale one.
type Adapter struct {
	rpcURL     string
	username   string
	password   string
	httpClient *http.Client

	mu        sync.RWMutex
	sessionID string
}

func NewAdapter(host string, https bool, username, password string) *Adapter {
	scheme := "http"
	if https {
		scheme = "https"
	}
	return &Adapter{
		rpcURL:   fmt.Sprintf("%s://%s/transmission/rpc", scheme, host),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type rpcRequest struct {
	Method    string `json:"method"`
	Arguments any    `json:"arguments,omitempty"`
	Tag       int    `json:"tag,omitempty"`
}

type rpcResponse struct {
	Result    string          `json:"result"`
	Arguments json.RawMessage `json:"arguments"`
}

// call performs one RPC round-trip, transparently handshaking the CSRF
// session id on the first 409 response and retrying exactly once.
func (a *Adapter) call(ctx context.Context, method string, args any, out any) error {
	body, err := json.Marshal(rpcRequest{Method: method, Arguments: args})
	if err != nil {
		return graft.New(graft.KindUnreachable, "transmission.call", err)
	}

	resp, err := a.do(ctx, body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusConflict {
		a.refreshSessionID(resp)
		resp.Body.Close()
		resp, err = a.do(ctx, body)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return graft.New(graft.KindUnreachable, "transmission.call", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return graft.New(graft.KindAuthFailed, "transmission.call", fmt.Errorf("unauthorized"))
	}
	if resp.StatusCode != http.StatusOK {
		return graft.New(graft.KindUnreachable, "transmission.call", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return graft.New(graft.KindUnreachable, "transmission.call", err)
	}
	if rpcResp.Result != "success" {
		return graft.New(graft.KindAddFailed, "transmission.call", fmt.Errorf("rpc error: %s", rpcResp.Result))
	}
	if out != nil && len(rpcResp.Arguments) > 0 {
		if err := json.Unmarshal(rpcResp.Arguments, out); err != nil {
			return graft.New(graft.KindUnreachable, "transmission.call", err)
		}
	}
	return nil
}

func (a *Adapter) do(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, graft.New(graft.KindUnreachable, "transmission.do", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.username != "" {
		req.SetBasicAuth(a.username, a.password)
	}

	a.mu.RLock()
	sessionID := a.sessionID
	a.mu.RUnlock()
	if sessionID != "" {
		req.Header.Set(sessionIDHeader, sessionID)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, graft.New(graft.KindUnreachable, "transmission.do", err)
	}
	return resp, nil
}

func (a *Adapter) refreshSessionID(resp *http.Response) {
	id := resp.Header.Get(sessionIDHeader)
	if id == "" {
		return
	}
	a.mu.Lock()
	a.sessionID = id
	a.mu.Unlock()
	log.Debug().Msg("refreshed transmission session id")
}

func (a *Adapter) TestConnection(ctx context.Context) error {
	return a.call(ctx, "session-get", nil, nil)
}

type torrentGetArgs struct {
	Fields []string `json:"fields"`
}

type transmissionTracker struct {
	Announce string `json:"announce"`
}

type transmissionFile struct {
	Name   string `json:"name"`
	Length int64  `json:"length"`
}

type transmissionTorrent struct {
	HashString  string                `json:"hashString"`
	Name        string                `json:"name"`
	TotalSize   int64                 `json:"totalSize"`
	Status      int                   `json:"status"`
	DownloadDir string                `json:"downloadDir"`
	Trackers    []transmissionTracker `json:"trackers"`
	AddedDate   int64                 `json:"addedDate"`
	Files       []transmissionFile    `json:"files"`
}

type torrentGetResult struct {
	Torrents []transmissionTorrent `json:"torrents"`
}

var statusNames = map[int]string{
	0: "stopped",
	1: "check_wait",
	2: "checking",
	3: "download_wait",
	4: "downloading",
	5: "seed_wait",
	6: "seeding",
}

func (a *Adapter) ListTorrents(ctx context.Context) ([]clients.TorrentView, error) {
	var result torrentGetResult
	err := a.call(ctx, "torrent-get", torrentGetArgs{
		Fields: []string{"hashString", "name", "totalSize", "status", "downloadDir", "trackers", "addedDate", "files"},
	}, &result)
	if err != nil {
		return nil, err
	}

	views := make([]clients.TorrentView, 0, len(result.Torrents))
	for _, t := range result.Torrents {
		urls := make([]string, 0, len(t.Trackers))
		for _, tr := range t.Trackers {
			urls = append(urls, tr.Announce)
		}
		var files []clients.TorrentFile
		if len(t.Files) > 0 {
			files = make([]clients.TorrentFile, 0, len(t.Files))
			for _, f := range t.Files {
				files = append(files, clients.TorrentFile{Path: f.Name, Size: f.Length})
			}
		}
		views = append(views, clients.TorrentView{
			InfoHash: strings.ToLower(t.HashString),
			Name:     t.Name,
			Size:     t.TotalSize,
			State:    statusNames[t.Status],
			SavePath: t.DownloadDir,
			Trackers: urls,
			AddedOn:  t.AddedDate,
			Files:    files,
		})
	}
	return views, nil
}

type torrentAddArgs struct {
	Metainfo    string `json:"metainfo"`
	DownloadDir string `json:"download-dir,omitempty"`
	Paused      bool   `json:"paused"`
}

type torrentAddResult struct {
	TorrentAdded     *transmissionTorrent `json:"torrent-added"`
	TorrentDuplicate *transmissionTorrent `json:"torrent-duplicate"`
}

func (a *Adapter) AddTorrent(ctx context.Context, torrentBytes []byte, opts clients.AddOptions) (string, error) {
	var result torrentAddResult
	err := a.call(ctx, "torrent-add", torrentAddArgs{
		Metainfo:    base64.StdEncoding.EncodeToString(torrentBytes),
		DownloadDir: opts.SavePath,
		Paused:      opts.Paused,
	}, &result)
	if err != nil {
		return "", graft.New(graft.KindAddFailed, "transmission.AddTorrent", err)
	}

	if result.TorrentAdded != nil {
		return strings.ToLower(result.TorrentAdded.HashString), nil
	}
	if result.TorrentDuplicate != nil {
		return strings.ToLower(result.TorrentDuplicate.HashString), nil
	}
	return "", graft.New(graft.KindAddFailed, "transmission.AddTorrent", fmt.Errorf("no torrent-added or torrent-duplicate in response"))
}

type torrentActionArgs struct {
	IDs []string `json:"ids"`
}

func (a *Adapter) Remove(ctx context.Context, infoHash string) error {
	return a.wrapAction(ctx, "torrent-remove", infoHash, "Remove")
}

func (a *Adapter) Pause(ctx context.Context, infoHash string) error {
	return a.wrapAction(ctx, "torrent-stop", infoHash, "Pause")
}

func (a *Adapter) Resume(ctx context.Context, infoHash string) error {
	return a.wrapAction(ctx, "torrent-start", infoHash, "Resume")
}

func (a *Adapter) Recheck(ctx context.Context, infoHash string) error {
	return a.wrapAction(ctx, "torrent-verify", infoHash, "Recheck")
}

func (a *Adapter) wrapAction(ctx context.Context, method, infoHash, op string) error {
	if err := a.call(ctx, method, torrentActionArgs{IDs: []string{infoHash}}, nil); err != nil {
		return graft.New(graft.KindUnreachable, "transmission."+op, err)
	}
	return nil
}
