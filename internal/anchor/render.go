package anchor

import (
	"sort"
	"unicode/utf8"
)

// Span — аннотация с позицией, участвующая в рендере.
type Span struct {
	ID       string
	Position Position
}

// Segment — непрерывный участок текста: обычный или подсвеченный аннотацией.
type Segment struct {
	Start        int    `json:"start"`
	End          int    `json:"end"`
	Text         string `json:"text"`
	AnnotationID string `json:"annotation_id,omitempty"`
}

// Highlighted сообщает, относится ли сегмент к аннотации.
func (s Segment) Highlighted() bool { return s.AnnotationID != "" }

// Len — длина сегмента в символах.
func (s Segment) Len() int { return s.End - s.Start }

// Render разбивает [0, len(content)) на упорядоченные непересекающиеся сегменты.
//
// Аннотации без привязки пропускаются. Позиции сортируются по start (стабильно,
// поэтому при равных start выигрывает та, что раньше во входном срезе), end
// обрезается по длине текста. При перекрытии подсвечивается только часть после
// уже выведенной границы: перекрытый участок принадлежит аннотации с меньшим start.
func Render(content string, spans []Span) []Segment {
	runes := []rune(content)
	n := len(runes)

	anchored := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.Position.Anchored() {
			anchored = append(anchored, s)
		}
	}
	sort.SliceStable(anchored, func(i, j int) bool {
		return anchored[i].Position.Start() < anchored[j].Position.Start()
	})

	segments := make([]Segment, 0, 2*len(anchored)+1)
	emit := func(start, end int, id string) {
		segments = append(segments, Segment{Start: start, End: end, Text: string(runes[start:end]), AnnotationID: id})
	}

	last := 0
	for _, s := range anchored {
		start := min(s.Position.Start(), n)
		end := min(s.Position.End(), n)
		if start > last {
			emit(last, start, "")
			last = start
		}
		// last >= start: перекрытие с предыдущей подсветкой уже выведено
		if end > last {
			emit(last, end, s.ID)
			last = end
		}
	}
	if last < n {
		emit(last, n, "")
	}
	return segments
}

// Covered возвращает суммарную длину сегментов; для результата Render она
// равна длине текста.
func Covered(segments []Segment) int {
	total := 0
	for _, s := range segments {
		total += s.Len()
	}
	return total
}

// RuneLen — длина текста в символах, в которых измеряются смещения.
func RuneLen(content string) int {
	return utf8.RuneCountInString(content)
}
