package block

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingBlock - для типа из каталога нет записи в конфигурации
	ErrMissingBlock = errors.New("нет описания блока")
	// ErrDuplicateBlock - тип описан дважды
	ErrDuplicateBlock = errors.New("повторное описание блока")
	// ErrInvalidPlacement - некорректные правила естественной генерации
	ErrInvalidPlacement = errors.New("некорректные правила генерации")
	// ErrInvalidBlock - запись не проходит проверку
	ErrInvalidBlock = errors.New("некорректное описание блока")
)

// Registry - реестр метаданных блоков. Создаётся один раз при старте
// и дальше только читается, поэтому не требует синхронизации.
type Registry struct {
	blocks [typeCount]*Metadata
	atlas  Atlas
	height int

	// rarity[y] - взвешенный список естественных блоков для высоты y
	rarity [][]BlockType
}

// NewRegistry проверяет описания и строит таблицу редкости для высот [0, height)
func NewRegistry(defs []Metadata, atlas Atlas, height int) (*Registry, error) {
	if height <= 0 {
		return nil, fmt.Errorf("%w: высота чанка %d", ErrInvalidBlock, height)
	}
	if atlas.Width <= 0 || atlas.Height <= 0 || atlas.Cell <= 0 {
		return nil, fmt.Errorf("%w: размеры атласа %+v", ErrInvalidBlock, atlas)
	}

	r := &Registry{atlas: atlas, height: height}

	for i := range defs {
		def := defs[i]
		if !def.Type.Valid() {
			return nil, fmt.Errorf("%w: запись %d, тип %d", ErrInvalidBlock, i, def.Type)
		}
		if r.blocks[def.Type] != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBlock, def.Type)
		}
		if err := validateMetadata(&def); err != nil {
			return nil, err
		}
		def.resolveTextures()
		r.blocks[def.Type] = &def
	}

	for _, t := range Types() {
		if r.blocks[t] == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingBlock, t)
		}
	}

	r.buildRarityTable()
	return r, nil
}

func validateMetadata(def *Metadata) error {
	if def.HorizontalScale() <= 0 || def.VerticalScale() <= 0 {
		return fmt.Errorf("%w: %s: масштаб должен быть положительным", ErrInvalidBlock, def.Type)
	}
	if len(def.LightColor) != 0 && len(def.LightColor) != 3 {
		return fmt.Errorf("%w: %s: light_color должен содержать 3 компоненты", ErrInvalidBlock, def.Type)
	}
	if p := def.Natural; p != nil {
		if p.MinHeight >= p.MaxHeight {
			return fmt.Errorf("%w: %s: min_height %d >= max_height %d",
				ErrInvalidPlacement, def.Type, p.MinHeight, p.MaxHeight)
		}
		if p.Rarity < 0 || p.Rarity >= 100 {
			return fmt.Errorf("%w: %s: rarity %d вне [0,100)", ErrInvalidPlacement, def.Type, p.Rarity)
		}
	}
	return nil
}

// buildRarityTable повторяет каждый естественный блок (100 - rarity) раз
// для каждой высоты из его диапазона
func (r *Registry) buildRarityTable() {
	r.rarity = make([][]BlockType, r.height)
	for _, t := range Types() {
		def := r.blocks[t]
		if !def.IsNatural() {
			continue
		}
		p := def.Natural
		lo := max(p.MinHeight, 0)
		hi := min(p.MaxHeight, r.height)
		for y := lo; y < hi; y++ {
			for n := 0; n < p.Weight(); n++ {
				r.rarity[y] = append(r.rarity[y], t)
			}
		}
	}
}

// Get возвращает метаданные типа. Неизвестный тип считается воздухом.
func (r *Registry) Get(t BlockType) *Metadata {
	if !t.Valid() || r.blocks[t] == nil {
		return r.blocks[Air]
	}
	return r.blocks[t]
}

// Lookup возвращает метаданные и признак наличия
func (r *Registry) Lookup(t BlockType) (*Metadata, bool) {
	if !t.Valid() || r.blocks[t] == nil {
		return nil, false
	}
	return r.blocks[t], true
}

// Atlas возвращает параметры текстурного атласа
func (r *Registry) Atlas() Atlas {
	return r.atlas
}

// Height возвращает высоту, для которой построена таблица редкости
func (r *Registry) Height() int {
	return r.height
}

// BlocksAtHeight возвращает взвешенный список кандидатов для высоты.
// Срез общий, изменять его нельзя.
func (r *Registry) BlocksAtHeight(y int) []BlockType {
	if y < 0 || y >= len(r.rarity) {
		return nil
	}
	return r.rarity[y]
}

// NaturalAt выбирает блок по значению шума из [0,1): floor(noise * len).
// Пустая таблица даёт воздух.
func (r *Registry) NaturalAt(y int, noise float64) BlockType {
	candidates := r.BlocksAtHeight(y)
	if len(candidates) == 0 {
		return Air
	}
	idx := int(noise * float64(len(candidates)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(candidates) {
		idx = len(candidates) - 1
	}
	return candidates[idx]
}
