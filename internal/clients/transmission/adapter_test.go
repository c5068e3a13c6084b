package transmission_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graft-pt/graft/internal/clients"
	"github.com/graft-pt/graft/internal/clients/transmission"
)

const sessionIDHeader = "X-Transmission-Session-Id"

func newTestServer(t *testing.T, handler func(method string) (status int, body string)) *httptest.Server {
	t.Helper()
	var sessionID = "abc123"
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(sessionIDHeader) != sessionID {
			w.Header().Set(sessionIDHeader, sessionID)
			w.WriteHeader(http.StatusConflict)
			return
		}

		var req struct {
			Method string `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		status, body := handler(req.Method)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func hostOf(t *testing.T, url string) string {
	t.Helper()
	return strings.TrimPrefix(url, "http://")
}

func TestAdapterListTorrentsHandshakesSession(t *testing.T) {
	srv := newTestServer(t, func(method string) (int, string) {
		assert.Equal(t, "torrent-get", method)
		return http.StatusOK, `{"result":"success","arguments":{"torrents":[
			{"hashString":"ABCDEF0123456789ABCDEF0123456789ABCDEF01","name":"thing","totalSize":100,"status":6,"downloadDir":"/downloads","trackers":[{"announce":"https://a.example/announce"}],"addedDate":1,
			 "files":[{"name":"thing/episode1.mkv","length":100}]}
		]}}`
	})
	defer srv.Close()

	adapter := transmission.NewAdapter(hostOf(t, srv.URL), false, "", "")
	torrents, err := adapter.ListTorrents(context.Background())
	require.NoError(t, err)
	require.Len(t, torrents, 1)
	assert.Equal(t, "abcdef0123456789abcdef0123456789abcdef01", torrents[0].InfoHash)
	assert.Equal(t, "seeding", torrents[0].State)
	assert.Equal(t, []string{"https://a.example/announce"}, torrents[0].Trackers)
	require.Len(t, torrents[0].Files, 1)
	assert.Equal(t, "thing/episode1.mkv", torrents[0].Files[0].Path)
	assert.Equal(t, int64(100), torrents[0].Files[0].Size)
}

func TestAdapterAddTorrentReturnsHashOnDuplicate(t *testing.T) {
	srv := newTestServer(t, func(method string) (int, string) {
		assert.Equal(t, "torrent-add", method)
		return http.StatusOK, `{"result":"success","arguments":{"torrent-duplicate":{"hashString":"FEDCBA0123456789FEDCBA0123456789FEDCBA01"}}}`
	})
	defer srv.Close()

	adapter := transmission.NewAdapter(hostOf(t, srv.URL), false, "", "")
	hash, err := adapter.AddTorrent(context.Background(), []byte("d8:announce...e"), clients.AddOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fedcba0123456789fedcba0123456789fedcba01", hash)
}

func TestAdapterCallFailureSurfacesRPCError(t *testing.T) {
	srv := newTestServer(t, func(method string) (int, string) {
		return http.StatusOK, `{"result":"no such torrent"}`
	})
	defer srv.Close()

	adapter := transmission.NewAdapter(hostOf(t, srv.URL), false, "", "")
	require.Error(t, adapter.Remove(context.Background(), "deadbeef"))
}
