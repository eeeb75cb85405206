// Package anchor привязывает аннотации к диапазонам символов текста источника
// и восстанавливает из них подсвеченные сегменты.
//
// Смещения считаются в символах (Unicode code points) plain-text содержимого
// источника на момент захвата выделения. При изменении содержимого смещения не
// пересчитываются.
package anchor

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNegativeOffset — смещение меньше нуля.
	ErrNegativeOffset = errors.New("anchor: negative offset")
	// ErrInvertedRange — start больше end.
	ErrInvertedRange = errors.New("anchor: start offset after end offset")
)

// Position — дескриптор привязки аннотации: либо Unanchored (вся аннотация
// относится к источнику целиком), либо Anchored(start, end, selectedText).
// Нулевое значение соответствует Unanchored.
type Position struct {
	anchored bool
	start    int
	end      int
	text     string
}

// Unanchored возвращает позицию без привязки.
func Unanchored() Position {
	return Position{}
}

// NewAnchored создаёт привязанную позицию, проверяя 0 <= start <= end.
func NewAnchored(start, end int, selectedText string) (Position, error) {
	if start < 0 || end < 0 {
		return Position{}, ErrNegativeOffset
	}
	if start > end {
		return Position{}, ErrInvertedRange
	}
	return Position{anchored: true, start: start, end: end, text: selectedText}, nil
}

// Anchored сообщает, привязана ли позиция к диапазону.
func (p Position) Anchored() bool { return p.anchored }

// Start — начальное смещение (включительно).
func (p Position) Start() int { return p.start }

// End — конечное смещение (не включительно).
func (p Position) End() int { return p.end }

// SelectedText — текст, выделенный на момент захвата.
func (p Position) SelectedText() string { return p.text }

// Len — длина диапазона в символах.
func (p Position) Len() int { return p.end - p.start }

func (p Position) String() string {
	if !p.anchored {
		return "unanchored"
	}
	return fmt.Sprintf("[%d,%d)", p.start, p.end)
}

// wirePosition — JSON-форма привязанной позиции.
type wirePosition struct {
	StartOffset  *int   `json:"start_offset"`
	EndOffset    *int   `json:"end_offset"`
	SelectedText string `json:"selected_text"`
}

// MarshalJSON кодирует Unanchored как null.
func (p Position) MarshalJSON() ([]byte, error) {
	if !p.anchored {
		return []byte("null"), nil
	}
	start, end := p.start, p.end
	return json.Marshal(wirePosition{StartOffset: &start, EndOffset: &end, SelectedText: p.text})
}

// UnmarshalJSON принимает null (Unanchored) или объект с обоими смещениями.
func (p *Position) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = Unanchored()
		return nil
	}
	var w wirePosition
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.StartOffset == nil || w.EndOffset == nil {
		return errors.New("anchor: position requires start_offset and end_offset")
	}
	pos, err := NewAnchored(*w.StartOffset, *w.EndOffset, w.SelectedText)
	if err != nil {
		return err
	}
	*p = pos
	return nil
}

// Value сохраняет позицию в БД как JSON; Unanchored хранится как NULL.
func (p Position) Value() (driver.Value, error) {
	if !p.anchored {
		return nil, nil
	}
	b, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan читает позицию из колонки БД.
func (p *Position) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = Unanchored()
		return nil
	case string:
		return p.scanBytes([]byte(v))
	case []byte:
		return p.scanBytes(v)
	default:
		return fmt.Errorf("anchor: cannot scan %T into Position", src)
	}
}

func (p *Position) scanBytes(b []byte) error {
	if len(b) == 0 {
		*p = Unanchored()
		return nil
	}
	return p.UnmarshalJSON(b)
}
