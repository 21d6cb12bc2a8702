package qbank

import "strings"

// MathDelimiter 内联公式两端使用的转义字符
const MathDelimiter = '$'

type Segment struct {
	Text string
	Math bool
}

// SplitMath 把内容拆成普通文本与 $...$ 公式片段，未闭合的 $ 作为普通文本
func SplitMath(text string) []Segment {
	var segs []Segment
	rest := text
	for len(rest) > 0 {
		start := strings.IndexRune(rest, MathDelimiter)
		if start < 0 {
			segs = append(segs, Segment{Text: rest})
			break
		}
		end := strings.IndexRune(rest[start+1:], MathDelimiter)
		if end <= 0 {
			// "$$" 或没有闭合符
			if end == 0 {
				segs = append(segs, Segment{Text: rest[:start+2]})
				rest = rest[start+2:]
				continue
			}
			segs = append(segs, Segment{Text: rest})
			break
		}
		if start > 0 {
			segs = append(segs, Segment{Text: rest[:start]})
		}
		segs = append(segs, Segment{Text: rest[start+1 : start+1+end], Math: true})
		rest = rest[start+1+end+1:]
	}
	return mergeText(segs)
}

func mergeText(segs []Segment) []Segment {
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if n := len(out); n > 0 && !s.Math && !out[n-1].Math {
			out[n-1].Text += s.Text
			continue
		}
		out = append(out, s)
	}
	return out
}
