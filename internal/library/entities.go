// Package library 是缓存聚合核心：把上游原始 JSON 规范化为内存实体，
// 并维护进程生命周期内的四张惰性缓存表。
package library

// Album 是规范化后的专辑实体，构造完成后不再修改。ID 取自上游
// 资源链接的末段，对同一上游资源的重复拉取保持稳定。
type Album struct {
	ID          string  `json:"id"`
	Artist      string  `json:"artist,omitempty"`
	Title       string  `json:"title,omitempty"`
	Year        int     `json:"year,omitempty"`
	ArtworkLink string  `json:"artwork_link"`
	GenreName   string  `json:"genre_name,omitempty"`
	NumberDisks int     `json:"numberdisks"`
	Tracks      []Track `json:"tracks"`
	// Anchor 是按艺术家首字母分组用的单个大写字母，
	// 非字母开头（含缺失艺术家）时为哨兵值 "num"。
	Anchor string `json:"anchor"`
}

// Track 只存在于所属专辑的 Tracks 序列中，没有独立生命周期。
// 盘号/音轨号保留指针以区分缺失与 0。
type Track struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	DiskNumber  *int   `json:"disknumber,omitempty"`
	TrackNumber *int   `json:"tracknumber,omitempty"`
}

// Artist 聚合一位艺术家的全部专辑，Name 保留上游返回的大小写，
// 缓存键则统一用小写。
type Artist struct {
	Name   string   `json:"name"`
	Albums []*Album `json:"albums"`
}
