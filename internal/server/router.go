// Package server 暴露面向展示层的 JSON 查询接口，自身不持有任何
// 业务状态，全部数据都来自注入的缓存核心。
package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tune-hub/tune-hub/internal/genre"
	"github.com/tune-hub/tune-hub/internal/library"
)

// LibraryService 是缓存核心对展示层暴露的四个查询操作，
// 测试时可注入假实现。
type LibraryService interface {
	Genres(ctx context.Context) ([]genre.Display, error)
	GenreAlbums(ctx context.Context, name string) ([]*library.Album, error)
	AlbumByID(ctx context.Context, id string) (*library.Album, error)
	ArtistByName(ctx context.Context, name string) (*library.Artist, error)
}

// Player 把播放指令透传给上游播放器。
type Player interface {
	Play(ctx context.Context, albumID, trackID string) error
}

// AppOptions 控制 Fiber 应用的依赖注入与监听端口。
type AppOptions struct {
	Logger     *logrus.Logger
	Library    LibraryService
	Player     Player
	ListenPort int
}

const contextKeyRequestID = "_tunehub_request_id"

// NewApp 构建带 recover 与请求 ID 中间件的 Fiber 应用并注册全部路由。
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Library == nil {
		return nil, errors.New("library service is required")
	}
	if opts.Player == nil {
		return nil, errors.New("player is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())

	registerRoutes(app, opts)

	return app, nil
}

// requestIDMiddleware 为每个请求生成 ID 并回写响应头，便于日志关联。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID 返回中间件写入的请求标识。
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func requestContext(c fiber.Ctx) context.Context {
	ctx := c.Context()
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
