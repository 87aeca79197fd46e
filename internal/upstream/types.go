package upstream

// Genre 是 GET /genres 返回的单个条目。Link 同时充当后续
// `{link}?albums=all` 请求的路径。
type Genre struct {
	Link string `json:"link"`
	Name string `json:"name"`
}

// Album 按上游 JSON 原样建模，规范化（排序、锚点、展示流派）由
// library 包完成，这里只负责传输。
type Album struct {
	Link        string   `json:"link"`
	Genres      []string `json:"genres"`
	Artist      string   `json:"artist"`
	Title       string   `json:"title"`
	ReleaseDate *int     `json:"releasedate"`
	Artwork     Artwork  `json:"artwork"`
	NumberDisks int      `json:"numberdisks"`
	Tracks      []Track  `json:"tracks"`
}

// Artwork 仅携带封面资源链接。
type Artwork struct {
	Link string `json:"link"`
}

// Track 的盘号/音轨号在上游可能为 null，保留指针以区分缺失与 0。
type Track struct {
	Link        string `json:"link"`
	Title       string `json:"title"`
	DiskNumber  *int   `json:"disknumber"`
	TrackNumber *int   `json:"tracknumber"`
}

// GenreContents 是 `{genre_link}?albums=all` 的响应体。
type GenreContents struct {
	Albums []Album `json:"albums"`
}
