package anchor

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrNodeOutOfRange — индекс текстового узла вне списка узлов.
	ErrNodeOutOfRange = errors.New("anchor: text node index out of range")
	// ErrOffsetOutOfRange — локальное смещение больше длины узла.
	ErrOffsetOutOfRange = errors.New("anchor: offset exceeds text node length")
)

// Point — точка выделения: индекс текстового узла в порядке документа и
// смещение внутри него.
type Point struct {
	Node   int `json:"node"`
	Offset int `json:"offset"`
}

// Index — плоский список длин текстовых узлов контейнера с префиксными суммами.
// Строится один раз на рендер, дальше каждое смещение считается за O(1).
type Index struct {
	lengths []int
	prefix  []int // prefix[i] — суммарная длина узлов [0, i)
}

// NewIndex строит индекс по длинам узлов (в символах).
func NewIndex(lengths []int) (*Index, error) {
	prefix := make([]int, len(lengths)+1)
	for i, n := range lengths {
		if n < 0 {
			return nil, ErrNegativeOffset
		}
		prefix[i+1] = prefix[i] + n
	}
	return &Index{lengths: lengths, prefix: prefix}, nil
}

// IndexOf строит индекс по самим текстовым узлам.
func IndexOf(nodes []string) *Index {
	lengths := make([]int, len(nodes))
	for i, n := range nodes {
		lengths[i] = utf8.RuneCountInString(n)
	}
	ix, _ := NewIndex(lengths)
	return ix
}

// Total — суммарная длина всех узлов.
func (ix *Index) Total() int {
	return ix.prefix[len(ix.prefix)-1]
}

// Offset переводит точку выделения в глобальное смещение внутри контейнера.
func (ix *Index) Offset(p Point) (int, error) {
	if p.Node < 0 || p.Node >= len(ix.lengths) {
		return 0, ErrNodeOutOfRange
	}
	if p.Offset < 0 {
		return 0, ErrNegativeOffset
	}
	if p.Offset > ix.lengths[p.Node] {
		return 0, ErrOffsetOutOfRange
	}
	return ix.prefix[p.Node] + p.Offset, nil
}

// Capture превращает выделение (anchor, focus) над content в Position.
// Выделение «назад» нормализуется. Пустое выделение или выделение из одних
// пробелов не даёт привязки: ok == false.
func (ix *Index) Capture(content string, anchor, focus Point) (pos Position, ok bool, err error) {
	a, err := ix.Offset(anchor)
	if err != nil {
		return Position{}, false, err
	}
	f, err := ix.Offset(focus)
	if err != nil {
		return Position{}, false, err
	}
	start, end := a, f
	if start > end {
		start, end = end, start
	}
	if start == end {
		return Position{}, false, nil
	}
	selected := Slice(content, start, end)
	if strings.TrimSpace(selected) == "" {
		return Position{}, false, nil
	}
	pos, err = NewAnchored(start, end, selected)
	if err != nil {
		return Position{}, false, err
	}
	return pos, true, nil
}

// Slice возвращает подстроку s по символьным смещениям [start, end),
// обрезая границы по длине строки.
func Slice(s string, start, end int) string {
	runes := []rune(s)
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

// Lines разбивает текст на строки-узлы, сохраняя переводы строк в конце
// каждой строки, чтобы сумма длин узлов совпадала с длиной текста.
func Lines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.SplitAfter(content, "\n")
}
