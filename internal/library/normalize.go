package library

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tune-hub/tune-hub/internal/upstream"
)

// 缺失盘号让音轨排到末尾，缺失发行年让专辑在艺术家视图中排到末尾。
const (
	missingDiskSentinel = 9999
	missingYearSentinel = 9999
)

// AnchorNumeric 是非字母艺术家名（含缺失）的锚点哨兵。
const AnchorNumeric = "num"

// IDFromLink 取资源链接 `.../{id}` 的末段作为实体 ID。没有分隔符
// 说明上游数据已经损坏，按不可恢复错误处理。
func IDFromLink(link string) (string, error) {
	idx := strings.LastIndex(link, "/")
	if idx < 0 {
		return "", fmt.Errorf("malformed resource link %q", link)
	}
	return link[idx+1:], nil
}

// anchorFor 取艺术家名首字符，折叠变音符并转大写；结果不是 26 个
// 纯字母之一（空名、数字或符号开头）时返回 AnchorNumeric。
func anchorFor(artist string) string {
	folded := asciiFold(artist)
	if folded == "" {
		return AnchorNumeric
	}
	first := []rune(folded)[0]
	if first >= 'a' && first <= 'z' {
		first -= 'a' - 'A'
	}
	if first < 'A' || first > 'Z' {
		return AnchorNumeric
	}
	return string(first)
}

// normalizeTracks 规范化音轨并做稳定排序：先按盘号（缺失视为最大，
// 排最后），再按音轨号（缺失视为 0，在本盘内排最前）。相等键保持
// 上游相对顺序。
func normalizeTracks(raw []upstream.Track) ([]Track, error) {
	tracks := make([]Track, 0, len(raw))
	for _, rt := range raw {
		id, err := IDFromLink(rt.Link)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, Track{
			ID:          id,
			Title:       rt.Title,
			DiskNumber:  rt.DiskNumber,
			TrackNumber: rt.TrackNumber,
		})
	}

	sort.SliceStable(tracks, func(i, j int) bool {
		di, dj := trackSortDisk(tracks[i]), trackSortDisk(tracks[j])
		if di != dj {
			return di < dj
		}
		return trackSortNumber(tracks[i]) < trackSortNumber(tracks[j])
	})
	return tracks, nil
}

func trackSortDisk(t Track) int {
	if t.DiskNumber == nil {
		return missingDiskSentinel
	}
	return *t.DiskNumber
}

func trackSortNumber(t Track) int {
	if t.TrackNumber == nil {
		return 0
	}
	return *t.TrackNumber
}

// normalizeAlbum 把上游专辑 JSON 转成规范实体。展示流派只由第一个
// 上游流派链接决定——属于多个流派的专辑也只归档一次。规范化是
// 纯函数：同一原始载荷两次产出逐字段相同的结果。
func normalizeAlbum(raw upstream.Album, displayForLink func(string) string) (*Album, error) {
	id, err := IDFromLink(raw.Link)
	if err != nil {
		return nil, err
	}

	genreName := ""
	if len(raw.Genres) > 0 {
		genreName = displayForLink(raw.Genres[0])
	}

	tracks, err := normalizeTracks(raw.Tracks)
	if err != nil {
		return nil, err
	}

	year := 0
	if raw.ReleaseDate != nil {
		year = *raw.ReleaseDate
	}

	return &Album{
		ID:          id,
		Artist:      raw.Artist,
		Title:       raw.Title,
		Year:        year,
		ArtworkLink: raw.Artwork.Link,
		GenreName:   genreName,
		NumberDisks: raw.NumberDisks,
		Tracks:      tracks,
		Anchor:      anchorFor(raw.Artist),
	}, nil
}
