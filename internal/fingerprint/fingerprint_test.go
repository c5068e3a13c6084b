package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graft-pt/graft/internal/graft"
)

func TestComputeStructuralWhenNoFiles(t *testing.T) {
	fp, err := Compute(TorrentMeta{TotalSize: 1000, FileCount: 1, LargestFileSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, Structural, fp.Level)
	assert.Empty(t, fp.FilesHash)
}

func TestComputeFullIsOrderIndependent(t *testing.T) {
	meta1 := TorrentMeta{
		TotalSize: 30, FileCount: 2, LargestFileSize: 20,
		Files: []File{{Path: "b/two.bin", Size: 20}, {Path: "a/one.bin", Size: 10}},
	}
	meta2 := TorrentMeta{
		TotalSize: 30, FileCount: 2, LargestFileSize: 20,
		Files: []File{{Path: "a/one.bin", Size: 10}, {Path: "b/two.bin", Size: 20}},
	}

	fp1, err := Compute(meta1)
	require.NoError(t, err)
	fp2, err := Compute(meta2)
	require.NoError(t, err)

	assert.Equal(t, Full, fp1.Level)
	assert.Equal(t, fp1.FilesHash, fp2.FilesHash)
}

func TestComputeDifferentContentDiffers(t *testing.T) {
	fp1, err := Compute(TorrentMeta{Files: []File{{Path: "a.bin", Size: 10}}})
	require.NoError(t, err)
	fp2, err := Compute(TorrentMeta{Files: []File{{Path: "a.bin", Size: 11}}})
	require.NoError(t, err)

	assert.NotEqual(t, fp1.FilesHash, fp2.FilesHash)
}

func TestComputeRejectsLeadingSlash(t *testing.T) {
	_, err := Compute(TorrentMeta{Files: []File{{Path: "/etc/passwd", Size: 1}}})
	require.Error(t, err)
	kind, ok := graft.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, graft.KindMalformedTorrent, kind)
}

func TestComputeRejectsDotDotSegment(t *testing.T) {
	_, err := Compute(TorrentMeta{Files: []File{{Path: "a/../b", Size: 1}}})
	require.Error(t, err)
	kind, ok := graft.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, graft.KindMalformedTorrent, kind)
}
