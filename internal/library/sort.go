package library

import (
	"sort"
	"strings"
)

// 流派列表的排序键：艺术家（缺失按 "Unknown Artist" 参与排序）、
// 发行年（缺失视为 0，排最前——注意与艺术家视图的哨兵方向相反，
// 这是各视图刻意保留的行为差异）、标题（缺失排在所有真实标题之后）。
type albumSortKey struct {
	artist       string
	year         int
	titleMissing bool
	title        string
}

func genreSortKey(a *Album) albumSortKey {
	artist := a.Artist
	if artist == "" {
		artist = "Unknown Artist"
	}
	artist = strings.ReplaceAll(artist, `"`, "")
	artist = strings.ToLower(asciiFold(artist))

	return albumSortKey{
		artist:       artist,
		year:         a.Year,
		titleMissing: a.Title == "",
		title:        strings.ToLower(asciiFold(a.Title)),
	}
}

func (k albumSortKey) less(other albumSortKey) bool {
	if k.artist != other.artist {
		return k.artist < other.artist
	}
	if k.year != other.year {
		return k.year < other.year
	}
	if k.titleMissing != other.titleMissing {
		return other.titleMissing
	}
	return k.title < other.title
}

// sortAlbumsForGenre 对流派内的专辑做稳定排序，完整键相等时保持
// 输入顺序。
func sortAlbumsForGenre(albums []*Album) {
	sort.SliceStable(albums, func(i, j int) bool {
		return genreSortKey(albums[i]).less(genreSortKey(albums[j]))
	})
}

// sortAlbumsByYear 供艺术家视图使用：按发行年升序，缺失年份排最后。
func sortAlbumsByYear(albums []*Album) {
	sort.SliceStable(albums, func(i, j int) bool {
		return artistSortYear(albums[i]) < artistSortYear(albums[j])
	})
}

func artistSortYear(a *Album) int {
	if a.Year == 0 {
		return missingYearSentinel
	}
	return a.Year
}
