// Package fingerprint computes a content fingerprint from torrent metadata
// at one of three fidelity levels, used by the index to recognize the same
// content across sites that don't share an info-hash.
package fingerprint

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/graft-pt/graft/internal/graft"
)

// Level indicates which fidelity tier a Fingerprint was computed at.
type Level int

const (
	// Structural is computed from total size, file count, and largest file
	// size alone — enough to rule out most mismatches but not authoritative.
	Structural Level = iota
	// Full adds a digest over the sorted (path, size) file list.
	Full
	// Exact means the info-hash itself is known and authoritative; this
	// package does not compute it (see internal/torrentfile), but the level
	// is named here so callers can express it uniformly.
	Exact
)

// File is one entry of a torrent's file list.
type File struct {
	Path string
	Size uint64
}

// TorrentMeta is the subset of torrent metadata the fingerprint function
// needs. Files may be nil when only a client's torrent listing (not the
// .torrent itself) was available, in which case the fingerprint is
// Structural.
type TorrentMeta struct {
	TotalSize       uint64
	FileCount       uint32
	LargestFileSize uint64
	Files           []File
}

// Fingerprint is the computed structural description of a torrent's payload.
type Fingerprint struct {
	Level           Level
	TotalSize       uint64
	FileCount       uint32
	LargestFileSize uint64
	FilesHash       string // hex-encoded SHA-1, empty at Structural level
}

// Compute derives a Fingerprint from torrent metadata. When meta.Files is
// non-empty it additionally computes a digest over the canonical encoding of
// (path, size) pairs sorted by path; any path with a leading slash or a "."
// or ".." segment fails the whole computation with MalformedTorrent, since a
// fingerprint built on an unnormalized path would silently disagree with one
// built on the normalized form for otherwise-identical content.
func Compute(meta TorrentMeta) (Fingerprint, error) {
	fp := Fingerprint{
		Level:           Structural,
		TotalSize:       meta.TotalSize,
		FileCount:       meta.FileCount,
		LargestFileSize: meta.LargestFileSize,
	}

	if len(meta.Files) == 0 {
		return fp, nil
	}

	sorted := make([]File, len(meta.Files))
	copy(sorted, meta.Files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	h := sha1.New()
	for _, f := range sorted {
		if err := validatePath(f.Path); err != nil {
			return Fingerprint{}, graft.New(graft.KindMalformedTorrent, "fingerprint.Compute", err)
		}
		h.Write([]byte(f.Path))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatUint(f.Size, 10)))
		h.Write([]byte{'\n'})
	}

	fp.Level = Full
	fp.FilesHash = hex.EncodeToString(h.Sum(nil))
	return fp, nil
}

func validatePath(path string) error {
	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("path %q has a leading slash", path)
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == "." || segment == ".." {
			return fmt.Errorf("path %q contains a %q segment", path, segment)
		}
	}
	return nil
}
