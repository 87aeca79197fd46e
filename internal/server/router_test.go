package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	logrustest "github.com/sirupsen/logrus/hooks/test"

	"github.com/tune-hub/tune-hub/internal/genre"
	"github.com/tune-hub/tune-hub/internal/library"
)

type fakeLibrary struct {
	genres  []genre.Display
	albums  map[string][]*library.Album
	byID    map[string]*library.Album
	artists map[string]*library.Artist
	err     error
}

func (f *fakeLibrary) Genres(ctx context.Context) ([]genre.Display, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.genres, nil
}

func (f *fakeLibrary) GenreAlbums(ctx context.Context, name string) ([]*library.Album, error) {
	if f.err != nil {
		return nil, f.err
	}
	albums, ok := f.albums[name]
	if !ok {
		return nil, library.ErrNotFound
	}
	return albums, nil
}

func (f *fakeLibrary) AlbumByID(ctx context.Context, id string) (*library.Album, error) {
	album, ok := f.byID[id]
	if !ok {
		return nil, library.ErrNotFound
	}
	return album, nil
}

func (f *fakeLibrary) ArtistByName(ctx context.Context, name string) (*library.Artist, error) {
	artist, ok := f.artists[name]
	if !ok {
		return nil, library.ErrNotFound
	}
	return artist, nil
}

type fakePlayer struct {
	albumID string
	trackID string
	err     error
}

func (f *fakePlayer) Play(ctx context.Context, albumID, trackID string) error {
	f.albumID = albumID
	f.trackID = trackID
	return f.err
}

func newTestApp(t *testing.T, lib LibraryService, player Player) *fiber.App {
	t.Helper()
	logger, _ := logrustest.NewNullLogger()
	app, err := NewApp(AppOptions{
		Logger:     logger,
		Library:    lib,
		Player:     player,
		ListenPort: 5080,
	})
	if err != nil {
		t.Fatalf("构建应用失败: %v", err)
	}
	return app
}

func TestGenresEndpoint(t *testing.T) {
	lib := &fakeLibrary{genres: []genre.Display{genre.Classical, genre.Jazz}}
	app := newTestApp(t, lib, &fakePlayer{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/genres", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("期望 200，得到 %d", resp.StatusCode)
	}
	if reqID := resp.Header.Get("X-Request-ID"); reqID == "" {
		t.Fatal("应设置 X-Request-ID 响应头")
	}

	var payload []map[string]string
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("响应不是 JSON: %v", err)
	}
	if len(payload) != 2 || payload[0]["name"] != "Classical" {
		t.Fatalf("流派列表不符: %v", payload)
	}
}

func TestGenreContentsIncludesAnchorIndex(t *testing.T) {
	lib := &fakeLibrary{
		albums: map[string][]*library.Album{
			"Jazz": {
				{ID: "1", Artist: "Miles Davis", Anchor: "M"},
				{ID: "2", Artist: "Monk", Anchor: "M"},
				{ID: "3", Artist: "3rd Bass", Anchor: library.AnchorNumeric},
			},
		},
	}
	app := newTestApp(t, lib, &fakePlayer{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/genres/Jazz", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("期望 200，得到 %d", resp.StatusCode)
	}

	var payload struct {
		GenreName           string            `json:"genre_name"`
		Letters             string            `json:"letters"`
		HaveAnchors         map[string]bool   `json:"have_anchors"`
		FirstAlbumForAnchor map[string]string `json:"first_album_for_anchor"`
	}
	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("响应不是 JSON: %v", err)
	}

	if payload.GenreName != "Jazz" || payload.Letters != "#ABCDEFGHIJKLMNOPQRSTUVWXYZ" {
		t.Fatalf("基础字段不符: %+v", payload)
	}
	if !payload.HaveAnchors["M"] || !payload.HaveAnchors["num"] || payload.HaveAnchors["Z"] {
		t.Fatalf("锚点存在性不符: %v", payload.HaveAnchors)
	}
	if payload.FirstAlbumForAnchor["M"] != "1" || payload.FirstAlbumForAnchor["num"] != "3" {
		t.Fatalf("锚点首张专辑不符: %v", payload.FirstAlbumForAnchor)
	}
}

func TestGenreContentsUnknownReturns404(t *testing.T) {
	app := newTestApp(t, &fakeLibrary{albums: map[string][]*library.Album{}}, &fakePlayer{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/genres/NoSuchGenre", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("未知分组应 404，得到 %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"error":"not_found"}` {
		t.Fatalf("错误体不符: %s", string(body))
	}
}

func TestUpstreamFailureReturns502(t *testing.T) {
	lib := &fakeLibrary{err: errors.New("connection refused")}
	app := newTestApp(t, lib, &fakePlayer{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/genres", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Fatalf("上游故障应 502，得到 %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"error":"upstream_failed"}` {
		t.Fatalf("错误体不符: %s", string(body))
	}
}

func TestAlbumEndpointNotFound(t *testing.T) {
	app := newTestApp(t, &fakeLibrary{byID: map[string]*library.Album{}}, &fakePlayer{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/albums/42", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("缺失专辑应 404，得到 %d", resp.StatusCode)
	}
}

func TestArtistEndpointDecodesEscapedName(t *testing.T) {
	lib := &fakeLibrary{
		artists: map[string]*library.Artist{
			"Miles Davis": {Name: "Miles Davis"},
		},
	}
	app := newTestApp(t, lib, &fakePlayer{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/artists/Miles%20Davis", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("期望 200，得到 %d", resp.StatusCode)
	}
}

func TestPlayEndpointPassesThrough(t *testing.T) {
	player := &fakePlayer{}
	app := newTestApp(t, &fakeLibrary{}, player)

	req := httptest.NewRequest("POST", "/api/play",
		strings.NewReader(`{"album":"42","track":"7"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("播放透传应 204，得到 %d", resp.StatusCode)
	}
	if player.albumID != "42" || player.trackID != "7" {
		t.Fatalf("透传参数不符: %s/%s", player.albumID, player.trackID)
	}
}

func TestPlayEndpointRejectsBadBody(t *testing.T) {
	app := newTestApp(t, &fakeLibrary{}, &fakePlayer{})

	req := httptest.NewRequest("POST", "/api/play", strings.NewReader("not json"))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("非法请求体应 400，得到 %d", resp.StatusCode)
	}
}

func TestNewAppValidatesOptions(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	if _, err := NewApp(AppOptions{Logger: logger, Library: &fakeLibrary{}, Player: &fakePlayer{}}); err == nil {
		t.Fatal("缺失监听端口应报错")
	}
	if _, err := NewApp(AppOptions{Library: &fakeLibrary{}, Player: &fakePlayer{}, ListenPort: 1}); err == nil {
		t.Fatal("缺失 logger 应报错")
	}
}
