package library

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/tune-hub/tune-hub/internal/genre"
	"github.com/tune-hub/tune-hub/internal/upstream"
)

// ErrNotFound 表示查询键在缓存与上游都不存在，与上游连接失败是
// 两类不同的错误。
var ErrNotFound = errors.New("library entry not found")

// Source 抽象上游访问，生产环境由 *upstream.Client 实现，
// 测试用带调用计数的假实现替换。
type Source interface {
	Genres(ctx context.Context) ([]upstream.Genre, error)
	GenreAlbums(ctx context.Context, link string) ([]upstream.Album, error)
	Album(ctx context.Context, id string) (upstream.Album, error)
	Artist(ctx context.Context, name string) (map[string][]upstream.Album, error)
}

// Cache 独占四张进程生命周期的缓存表：流派索引、按流派的专辑列表、
// 按 ID 的专辑详情、按小写名的艺术家详情。填充是惰性且幂等的，
// 条目一旦写入既不过期也不淘汰；填充失败不会留下半成品，下次调用
// 会从头重新拉取。同一键的并发填充由 singleflight 合并为一次上游请求。
type Cache struct {
	source Source
	logger *logrus.Logger
	group  singleflight.Group

	mu sync.RWMutex
	// 流派索引：展示分组列表 + 正/反向链接映射，构建一次后只读。
	displayGenres []genre.Display
	genreLinks    map[string][]string
	genreFromLink map[string]string

	albumsInGenre map[string][]*Album
	albumByID     map[string]*Album
	artistByName  map[string]*Artist
}

// NewCache 在进程启动时构建一次并注入各请求处理器；除进程退出外
// 无需任何清理。
func NewCache(source Source, logger *logrus.Logger) *Cache {
	return &Cache{
		source:        source,
		logger:        logger,
		albumsInGenre: make(map[string][]*Album),
		albumByID:     make(map[string]*Album),
		artistByName:  make(map[string]*Artist),
	}
}

// EnsureGenreIndex 惰性构建流派索引。已构建时是空操作；上游失败
// 对本次请求是致命的，不保留任何部分结果。
func (c *Cache) EnsureGenreIndex(ctx context.Context) error {
	c.mu.RLock()
	built := c.displayGenres != nil
	c.mu.RUnlock()
	if built {
		return nil
	}

	_, err, _ := c.group.Do("genres", func() (any, error) {
		c.mu.RLock()
		built := c.displayGenres != nil
		c.mu.RUnlock()
		if built {
			return nil, nil
		}

		serverGenres, err := c.source.Genres(ctx)
		if err != nil {
			return nil, fmt.Errorf("populate genre index: %w", err)
		}

		links := make(map[string][]string)
		fromLink := make(map[string]string, len(serverGenres))
		seen := make(map[string]struct{})
		for _, sg := range serverGenres {
			display, ok := genre.Classify(sg.Name)
			if !ok {
				// 不算错误：归入兜底分组，但要留下可运维的告警。
				c.logger.WithFields(logrus.Fields{
					"action": "genre_classify",
					"genre":  sg.Name,
					"link":   sg.Link,
				}).Warn("无法归类的上游流派，已归入 Uncategorised")
				display = genre.Uncategorised
			}
			links[display.Name] = append(links[display.Name], sg.Link)
			fromLink[sg.Link] = display.Name
			seen[display.Name] = struct{}{}
		}

		names := make([]string, 0, len(seen))
		for name := range seen {
			names = append(names, name)
		}
		genre.SortDisplayed(names)

		displays := make([]genre.Display, len(names))
		for i, name := range names {
			displays[i] = genre.Display{Name: name, Rank: genre.Rank(name)}
		}

		c.mu.Lock()
		c.displayGenres = displays
		c.genreLinks = links
		c.genreFromLink = fromLink
		c.mu.Unlock()

		c.logger.WithFields(logrus.Fields{
			"action":         "genre_index",
			"server_genres":  len(serverGenres),
			"display_genres": len(displays),
		}).Debug("流派索引构建完成")
		return nil, nil
	})
	return err
}

// Genres 返回已观测到的展示分组，按固定 Rank 排好序。
func (c *Cache) Genres(ctx context.Context) ([]genre.Display, error) {
	if err := c.EnsureGenreIndex(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]genre.Display, len(c.displayGenres))
	copy(result, c.displayGenres)
	return result, nil
}

// GenreAlbums 返回展示分组下的专辑列表。未知分组名返回 ErrNotFound；
// 首次访问会拉取该分组聚合的每一个上游流派链接，按专辑 ID 去重后
// 用流派比较器排序并缓存。
func (c *Cache) GenreAlbums(ctx context.Context, genreName string) ([]*Album, error) {
	if err := c.EnsureGenreIndex(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	cached, ok := c.albumsInGenre[genreName]
	links, known := c.genreLinks[genreName]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}
	if !known {
		return nil, ErrNotFound
	}

	result, err, _ := c.group.Do("genre:"+genreName, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.albumsInGenre[genreName]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		// 同一张专辑可能经由两个上游流派链接归到同一个展示分组，
		// 按 ID 去重保证只出现一次。
		var albums []*Album
		seen := make(map[string]struct{})
		for _, link := range links {
			rawAlbums, err := c.source.GenreAlbums(ctx, link)
			if err != nil {
				return nil, fmt.Errorf("populate genre %q: %w", genreName, err)
			}
			for _, raw := range rawAlbums {
				album, err := c.addAlbum(raw)
				if err != nil {
					return nil, err
				}
				if _, dup := seen[album.ID]; dup {
					continue
				}
				seen[album.ID] = struct{}{}
				albums = append(albums, album)
			}
		}

		sortAlbumsForGenre(albums)

		c.mu.Lock()
		c.albumsInGenre[genreName] = albums
		c.mu.Unlock()
		return albums, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*Album), nil
}

// AlbumByID 返回专辑详情。上游的非 200（含 404）对单实体查询一律
// 解释为 not found，而不是服务器错误。
func (c *Cache) AlbumByID(ctx context.Context, albumID string) (*Album, error) {
	// 规范化需要流派反查表，先保证索引可用。
	if err := c.EnsureGenreIndex(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	cached, ok := c.albumByID[albumID]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := c.group.Do("album:"+albumID, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.albumByID[albumID]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		raw, err := c.source.Album(ctx, albumID)
		if err != nil {
			var statusErr *upstream.StatusError
			if errors.As(err, &statusErr) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("populate album %q: %w", albumID, err)
		}
		return c.addAlbum(raw)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Album), nil
}

// ArtistByName 返回艺术家详情。缓存键统一小写，向上游查询则保留
// 调用方的原始大小写——上游查找是否大小写敏感不归本层管。
func (c *Cache) ArtistByName(ctx context.Context, name string) (*Artist, error) {
	if err := c.EnsureGenreIndex(ctx); err != nil {
		return nil, err
	}

	key := strings.ToLower(name)
	c.mu.RLock()
	cached, ok := c.artistByName[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := c.group.Do("artist:"+key, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.artistByName[key]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		grouped, err := c.source.Artist(ctx, name)
		if err != nil {
			var statusErr *upstream.StatusError
			if errors.As(err, &statusErr) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("populate artist %q: %w", name, err)
		}

		artist, err := c.addArtist(grouped)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.artistByName[key] = artist
		c.mu.Unlock()
		return artist, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Artist), nil
}

// addAlbum 规范化一条专辑并写入 albumByID。规范化是幂等的，
// 覆盖同 ID 的旧条目是安全的。
func (c *Cache) addAlbum(raw upstream.Album) (*Album, error) {
	album, err := normalizeAlbum(raw, c.displayForLink)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.albumByID[album.ID] = album
	c.mu.Unlock()
	return album, nil
}

// addArtist 合并同一逻辑艺术家的全部大小写分组：专辑拼接后按发行年
// 升序（缺失年份排最后），展示名取字典序最小的分组键，保证与上游
// 返回顺序无关。
func (c *Cache) addArtist(grouped map[string][]upstream.Album) (*Artist, error) {
	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)

	var albums []*Album
	for _, name := range names {
		for _, raw := range grouped[name] {
			album, err := c.addAlbum(raw)
			if err != nil {
				return nil, err
			}
			albums = append(albums, album)
		}
	}
	sortAlbumsByYear(albums)

	displayed := ""
	if len(names) > 0 {
		displayed = names[0]
	}
	return &Artist{Name: displayed, Albums: albums}, nil
}

// displayForLink 反查上游流派链接对应的展示分组名；索引构建完成后
// 该表只读。
func (c *Cache) displayForLink(link string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.genreFromLink[link]
}
