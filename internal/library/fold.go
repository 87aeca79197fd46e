package library

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer 通过 NFD 分解后剔除组合变音符再重组，
// 把 "Étienne" 折叠为 "Etienne"。
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// asciiFold 去除字符串中的变音符号。转换失败时原样返回，
// 后续的锚点/排序逻辑会按非字母处理。
func asciiFold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return folded
}
