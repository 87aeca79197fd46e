// Package genre 维护上游流派名到展示分组的静态映射，纯查表、无状态，
// 可在任意 goroutine 中并发调用。
package genre

import "sort"

// Display 表示一个面向用户的聚合流派分组，Rank 决定列表中的固定顺序。
type Display struct {
	Name string
	Rank int
}

// 展示分组集合。Rank 即页面上的排列顺序，Uncategorised 永远排在最后，
// 作为无法归类时的兜底分组。
var (
	Classical     = Display{Name: "Classical", Rank: 0}
	Jazz          = Display{Name: "Jazz", Rank: 1}
	Blues         = Display{Name: "Blues", Rank: 2}
	RockAndPop    = Display{Name: "Rock & Pop", Rank: 3}
	Electronic    = Display{Name: "Electronic", Rank: 4}
	HipHop        = Display{Name: "Hip-Hop", Rank: 5}
	World         = Display{Name: "World", Rank: 6}
	Soundtracks   = Display{Name: "Soundtracks", Rank: 7}
	Childrens     = Display{Name: "Children's", Rank: 8}
	Spoken        = Display{Name: "Spoken Word", Rank: 9}
	Uncategorised = Display{Name: "Uncategorised", Rank: 10}
)

// lookup 把上游服务器返回的流派名折叠到展示分组。一个分组通常聚合
// 多个上游流派；表中未出现的名字由调用方归入 Uncategorised。
var lookup = map[string]Display{
	"Classical":        Classical,
	"Baroque":          Classical,
	"Opera":            Classical,
	"Chamber Music":    Classical,
	"Choral":           Classical,
	"Jazz":             Jazz,
	"Big Band":         Jazz,
	"Swing":            Jazz,
	"Bebop":            Jazz,
	"Blues":            Blues,
	"Rhythm & Blues":   Blues,
	"Rock":             RockAndPop,
	"Pop":              RockAndPop,
	"Indie":            RockAndPop,
	"Alternative":      RockAndPop,
	"Punk":             RockAndPop,
	"Metal":            RockAndPop,
	"Folk":             RockAndPop,
	"Country":          RockAndPop,
	"Electronic":       Electronic,
	"Electronica":      Electronic,
	"Dance":            Electronic,
	"House":            Electronic,
	"Techno":           Electronic,
	"Ambient":          Electronic,
	"Hip-Hop":          HipHop,
	"Hip Hop":          HipHop,
	"Rap":              HipHop,
	"World":            World,
	"Latin":            World,
	"Reggae":           World,
	"Celtic":           World,
	"Soundtrack":       Soundtracks,
	"Soundtracks":      Soundtracks,
	"Musical":          Soundtracks,
	"Stage & Screen":   Soundtracks,
	"Children's":       Childrens,
	"Children's Music": Childrens,
	"Nursery Rhymes":   Childrens,
	"Spoken Word":      Spoken,
	"Audiobook":        Spoken,
	"Comedy":           Spoken,
	"Podcast":          Spoken,
}

// ranks 是展示名到固定顺序的反查表，由 init 根据分组定义生成。
var ranks = map[string]int{}

func init() {
	for _, d := range []Display{
		Classical, Jazz, Blues, RockAndPop, Electronic, HipHop,
		World, Soundtracks, Childrens, Spoken, Uncategorised,
	} {
		ranks[d.Name] = d.Rank
	}
}

// Classify 返回上游流派名对应的展示分组。未收录的名字返回 false，
// 由调用方决定兜底与告警。
func Classify(upstreamName string) (Display, bool) {
	d, ok := lookup[upstreamName]
	return d, ok
}

// Rank 返回展示名的固定排序值，未知名字排到 Uncategorised 之后。
func Rank(displayName string) int {
	if r, ok := ranks[displayName]; ok {
		return r
	}
	return Uncategorised.Rank + 1
}

// SortDisplayed 按固定 Rank 对展示名列表原地排序，同 Rank 时按名字，
// 保证输出与流派被发现的顺序无关。
func SortDisplayed(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		ri, rj := Rank(names[i]), Rank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})
}
