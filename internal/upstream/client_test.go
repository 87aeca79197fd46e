package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGenresDecodesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/genres" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"link":"/genres/12","name":"Rock"},{"link":"/genres/34","name":"Baroque"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	genres, err := client.Genres(context.Background())
	if err != nil {
		t.Fatalf("拉取流派失败: %v", err)
	}
	if len(genres) != 2 || genres[0].Name != "Rock" || genres[1].Link != "/genres/34" {
		t.Fatalf("解码结果不符: %+v", genres)
	}
}

func TestGenreAlbumsSendsAlbumsAllQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"albums":[{"link":"/albums/7","artist":"Bob","title":"First"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	albums, err := client.GenreAlbums(context.Background(), "/genres/12")
	if err != nil {
		t.Fatalf("拉取流派内容失败: %v", err)
	}
	if gotQuery != "albums=all" {
		t.Fatalf("期望 query albums=all，得到 %s", gotQuery)
	}
	if len(albums) != 1 || albums[0].Artist != "Bob" {
		t.Fatalf("专辑解码结果不符: %+v", albums)
	}
}

func TestAlbumNon200ReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	_, err := client.Album(context.Background(), "7")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("期望 StatusError，得到 %v", err)
	}
	if statusErr.Code != http.StatusNotFound {
		t.Fatalf("状态码不符: %d", statusErr.Code)
	}
}

func TestArtistDecodesGroupedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artists/Prince" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Prince":[{"link":"/albums/1","artist":"Prince","title":"One"}],"PRINCE":[{"link":"/albums/2","artist":"PRINCE","title":"Two"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	grouped, err := client.Artist(context.Background(), "Prince")
	if err != nil {
		t.Fatalf("拉取艺术家失败: %v", err)
	}
	if len(grouped) != 2 || len(grouped["Prince"]) != 1 || grouped["PRINCE"][0].Title != "Two" {
		t.Fatalf("分组解码结果不符: %+v", grouped)
	}
}

func TestPlayPostsPassthroughBody(t *testing.T) {
	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if err := client.Play(context.Background(), "42", "7"); err != nil {
		t.Fatalf("播放透传失败: %v", err)
	}
	if gotPath != "/player/play" {
		t.Fatalf("期望 /player/play，得到 %s", gotPath)
	}

	var payload map[string]string
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("请求体不是 JSON: %v", err)
	}
	if payload["album"] != "42" || payload["track"] != "7" {
		t.Fatalf("透传内容不符: %v", payload)
	}
}

func TestNewClientDefaultsTimeout(t *testing.T) {
	client := NewClient("http://piju:5000", 0)
	if client.http.Timeout != 30*time.Second {
		t.Fatalf("未配置超时应退回 30s，得到 %v", client.http.Timeout)
	}
}
