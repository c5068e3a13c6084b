// Package torrentfile validates raw .torrent bytes structurally and derives
// a torrent's info-hash, independent of any assumption about what a
// third-party bencode library's own hash helpers might return.
package torrentfile

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/bencode"

	"github.com/graft-pt/graft/internal/graft"
)

// rawTorrent captures only the top-level "info" key, preserved as its
// original bencoded bytes via bencode.RawMessage so the info-hash is
// computed over exactly the bytes the file carried rather than a
// re-encoding that could disagree with the source in key ordering.
type rawTorrent struct {
	Info bencode.RawMessage `bencode:"info"`
}

// Validate performs the executor's cheap structural check: bytes must begin
// with 'd' and parse as a bencoded dict containing an "info" key. No
// piece-hash verification is performed — the target client does that.
func Validate(data []byte) error {
	if len(data) == 0 || data[0] != 'd' {
		return graft.New(graft.KindMalformedTorrent, "torrentfile.Validate", fmt.Errorf("does not start with a bencoded dict"))
	}
	var t rawTorrent
	if err := bencode.DecodeBytes(data, &t); err != nil {
		return graft.New(graft.KindMalformedTorrent, "torrentfile.Validate", err)
	}
	if len(t.Info) == 0 {
		return graft.New(graft.KindMalformedTorrent, "torrentfile.Validate", fmt.Errorf("missing info dict"))
	}
	return nil
}

// InfoHash computes the lowercase-hex SHA-1 info-hash of raw .torrent bytes,
// hashing the original bencoded "info" value bytes directly rather than
// re-encoding the decoded struct (bencode encoding is canonical for valid
// torrents, so the raw substring the file itself carried is authoritative).
func InfoHash(data []byte) (string, error) {
	var t rawTorrent
	if err := bencode.DecodeBytes(data, &t); err != nil {
		return "", graft.New(graft.KindMalformedTorrent, "torrentfile.InfoHash", err)
	}
	if len(t.Info) == 0 {
		return "", graft.New(graft.KindMalformedTorrent, "torrentfile.InfoHash", fmt.Errorf("missing info dict"))
	}

	sum := sha1.Sum(t.Info)
	return hex.EncodeToString(sum[:]), nil
}
