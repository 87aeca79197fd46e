package server

import (
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/tune-hub/tune-hub/internal/library"
	"github.com/tune-hub/tune-hub/internal/logging"
)

// asciiUppercase 与锚点条目的固定顺序：num 在前，之后是 26 个字母。
const asciiUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

type genrePayload struct {
	Name string `json:"name"`
}

type genreContentsPayload struct {
	GenreName string           `json:"genre_name"`
	Albums    []*library.Album `json:"albums"`
	// Letters/HaveAnchors/FirstAlbumForAnchor 供展示层渲染字母导航条。
	Letters             string            `json:"letters"`
	HaveAnchors         map[string]bool   `json:"have_anchors"`
	FirstAlbumForAnchor map[string]string `json:"first_album_for_anchor"`
}

type playRequest struct {
	Album string `json:"album"`
	Track string `json:"track"`
}

func registerRoutes(app *fiber.App, opts AppOptions) {
	app.Get("/api/genres", func(c fiber.Ctx) error {
		started := time.Now()
		genres, err := opts.Library.Genres(requestContext(c))
		if err != nil {
			return writeFailure(c, opts, "genres", started, err)
		}

		payload := make([]genrePayload, len(genres))
		for i, g := range genres {
			payload[i] = genrePayload{Name: g.Name}
		}
		logSuccess(c, opts, "genres", started, fiber.StatusOK)
		return c.JSON(payload)
	})

	app.Get("/api/genres/:name", func(c fiber.Ctx) error {
		started := time.Now()
		name := pathParam(c, "name")
		albums, err := opts.Library.GenreAlbums(requestContext(c), name)
		if err != nil {
			return writeFailure(c, opts, "genre_contents", started, err)
		}

		payload := genreContentsPayload{
			GenreName: name,
			Albums:    albums,
			Letters:   "#" + asciiUppercase,
		}
		payload.HaveAnchors, payload.FirstAlbumForAnchor = buildAnchorIndex(albums)
		logSuccess(c, opts, "genre_contents", started, fiber.StatusOK)
		return c.JSON(payload)
	})

	app.Get("/api/albums/:id", func(c fiber.Ctx) error {
		started := time.Now()
		album, err := opts.Library.AlbumByID(requestContext(c), pathParam(c, "id"))
		if err != nil {
			return writeFailure(c, opts, "album", started, err)
		}
		logSuccess(c, opts, "album", started, fiber.StatusOK)
		return c.JSON(album)
	})

	app.Get("/api/artists/:name", func(c fiber.Ctx) error {
		started := time.Now()
		artist, err := opts.Library.ArtistByName(requestContext(c), pathParam(c, "name"))
		if err != nil {
			return writeFailure(c, opts, "artist", started, err)
		}
		logSuccess(c, opts, "artist", started, fiber.StatusOK)
		return c.JSON(artist)
	})

	app.Post("/api/play", func(c fiber.Ctx) error {
		started := time.Now()
		var req playRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
		}
		if err := opts.Player.Play(requestContext(c), req.Album, req.Track); err != nil {
			return writeFailure(c, opts, "play", started, err)
		}
		logSuccess(c, opts, "play", started, fiber.StatusNoContent)
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// buildAnchorIndex 为字母导航条汇总：哪些锚点有内容、每个锚点的
// 第一张专辑。专辑列表已按流派比较器排好序。
func buildAnchorIndex(albums []*library.Album) (map[string]bool, map[string]string) {
	present := make(map[string]struct{}, len(albums))
	first := make(map[string]string)
	for _, album := range albums {
		present[album.Anchor] = struct{}{}
		if _, ok := first[album.Anchor]; !ok {
			first[album.Anchor] = album.ID
		}
	}

	have := make(map[string]bool, len(asciiUppercase)+1)
	have[library.AnchorNumeric] = hasAnchor(present, library.AnchorNumeric)
	for _, letter := range asciiUppercase {
		have[string(letter)] = hasAnchor(present, string(letter))
	}
	return have, first
}

func hasAnchor(present map[string]struct{}, anchor string) bool {
	_, ok := present[anchor]
	return ok
}

// pathParam 解码路径参数，艺术家名可能包含空格等转义字符。
func pathParam(c fiber.Ctx, name string) string {
	raw := c.Params(name)
	if unescaped, err := url.PathUnescape(raw); err == nil {
		return unescaped
	}
	return raw
}

// writeFailure 统一错误映射：未知键返回 404，上游故障返回 502，
// 其余视为内部错误。
func writeFailure(c fiber.Ctx, opts AppOptions, route string, started time.Time, err error) error {
	status := fiber.StatusBadGateway
	code := "upstream_failed"
	if errors.Is(err, library.ErrNotFound) {
		status = fiber.StatusNotFound
		code = "not_found"
	}

	fields := logging.RequestFields(route, c.Method(), status)
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	fields["error"] = err.Error()
	if reqID := RequestID(c); reqID != "" {
		fields["request_id"] = reqID
	}
	if status == fiber.StatusNotFound {
		opts.Logger.WithFields(fields).Warn("query_not_found")
	} else {
		opts.Logger.WithFields(fields).Error("query_failed")
	}

	return c.Status(status).JSON(fiber.Map{"error": code})
}

func logSuccess(c fiber.Ctx, opts AppOptions, route string, started time.Time, status int) {
	fields := logging.RequestFields(route, c.Method(), status)
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if reqID := RequestID(c); reqID != "" {
		fields["request_id"] = reqID
	}
	opts.Logger.WithFields(fields).Info("query_complete")
}
