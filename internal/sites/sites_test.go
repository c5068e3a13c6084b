package sites

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graft-pt/graft/internal/graft"
	"github.com/graft-pt/graft/internal/models"
	"github.com/graft-pt/graft/internal/tracker"
)

func TestTemplateDownloadURLs(t *testing.T) {
	nexus, err := NewTemplate(models.TemplateNexusPHP)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/download.php?id=42&passkey=abc", nexus.DownloadURL("https://example.com/", "42", "abc"))

	unit3d, err := NewTemplate(models.TemplateUnit3D)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/torrents/download/42?torrent_pass=abc", unit3d.DownloadURL("https://example.com", "42", "abc"))

	gazelle, err := NewTemplate(models.TemplateGazelle)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/torrents.php?action=download&id=42&torrent_pass=abc", gazelle.DownloadURL("https://example.com", "42", "abc"))
}

func TestNewTemplateUnknownKind(t *testing.T) {
	_, err := NewTemplate(models.TemplateType("unknown"))
	require.Error(t, err)
	kind, ok := graft.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, graft.KindConfig, kind)
}

func TestValidateDownload(t *testing.T) {
	require.NoError(t, ValidateDownload("application/x-bittorrent", []byte("anything")))
	require.NoError(t, ValidateDownload("text/html", []byte("d8:announce...")))
	require.Error(t, ValidateDownload("text/html", []byte("<html>login</html>")))
}

func TestLimiterRegistryFixedAfterFirstUse(t *testing.T) {
	lr := NewLimiterRegistry()
	l1 := lr.Get("site-a", 60)
	l2 := lr.Get("site-a", 1)
	assert.Same(t, l1, l2)
}

func TestRegistryLoadBuiltinsRegistersTemplatesAndDomains(t *testing.T) {
	ident := tracker.NewIdentifier()
	reg := NewRegistry(ident)
	require.NoError(t, reg.LoadBuiltins())

	site, ok := reg.Site("mteam")
	require.True(t, ok)
	assert.Equal(t, "M-Team", site.Name)
	assert.False(t, site.Enabled)

	res, ok := ident.Identify("https://kp.m-team.cc/announce")
	require.True(t, ok)
	assert.Equal(t, "mteam", res.SiteID)
}

func TestRegistryDownloadTorrentRequiresPasskey(t *testing.T) {
	ident := tracker.NewIdentifier()
	reg := NewRegistry(ident)
	require.NoError(t, reg.Register(&models.Site{
		ID: "test-site", Template: models.TemplateNexusPHP, BaseURL: "https://example.com", RPM: 60,
	}))

	_, err := reg.DownloadTorrent(context.Background(), "test-site", "1")
	require.Error(t, err)
	kind, ok := graft.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, graft.KindConfig, kind)
}

func TestRegistryDownloadTorrentSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-bittorrent")
		_, _ = w.Write([]byte("d8:announce...e"))
	}))
	defer srv.Close()

	ident := tracker.NewIdentifier()
	reg := NewRegistry(ident)
	require.NoError(t, reg.Register(&models.Site{
		ID: "test-site", Template: models.TemplateNexusPHP, BaseURL: srv.URL, Passkey: "abc", RPM: 600,
	}))

	body, err := reg.DownloadTorrent(context.Background(), "test-site", "1")
	require.NoError(t, err)
	assert.Equal(t, "d8:announce...e", string(body))
}

func TestRegistryDownloadTorrentUnknownSite(t *testing.T) {
	ident := tracker.NewIdentifier()
	reg := NewRegistry(ident)
	_, err := reg.DownloadTorrent(context.Background(), "missing", "1")
	require.Error(t, err)
}
