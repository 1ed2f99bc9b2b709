package block

import "fmt"

// FloorY - зарезервированный непробиваемый нижний слой
const FloorY = -1

// Volume - плотный массив блоков одного чанка.
// Локальные координаты: x,z в [0,size), y в [-1,height).
type Volume struct {
	size   int
	height int
	data   []BlockType
}

// NewVolume создаёт объём, заполненный воздухом
func NewVolume(size, height int) *Volume {
	return &Volume{
		size:   size,
		height: height,
		data:   make([]BlockType, size*(height+1)*size),
	}
}

// Size возвращает размер основания чанка
func (v *Volume) Size() int { return v.size }

// Height возвращает высоту чанка (без нижнего слоя)
func (v *Volume) Height() int { return v.height }

// InBounds проверяет, лежит ли координата внутри объёма
func (v *Volume) InBounds(x, y, z int) bool {
	return x >= 0 && x < v.size && z >= 0 && z < v.size && y >= FloorY && y < v.height
}

func (v *Volume) index(x, y, z int) int {
	return (x*(v.height+1)+(y+1))*v.size + z
}

// Get возвращает блок и признак того, что координата внутри объёма
func (v *Volume) Get(x, y, z int) (BlockType, bool) {
	if !v.InBounds(x, y, z) {
		return Air, false
	}
	return v.data[v.index(x, y, z)], true
}

// At возвращает блок; за пределами объёма - воздух
func (v *Volume) At(x, y, z int) BlockType {
	t, _ := v.Get(x, y, z)
	return t
}

// Set записывает блок. Координаты вне объёма игнорируются.
func (v *Volume) Set(x, y, z int, t BlockType) {
	if !v.InBounds(x, y, z) {
		return
	}
	v.data[v.index(x, y, z)] = t
}

// ForEach обходит объём: x, затем y (начиная с нижнего слоя), затем z
func (v *Volume) ForEach(fn func(x, y, z int, t BlockType)) {
	for x := 0; x < v.size; x++ {
		for y := FloorY; y < v.height; y++ {
			for z := 0; z < v.size; z++ {
				fn(x, y, z, v.data[v.index(x, y, z)])
			}
		}
	}
}

// Count возвращает количество блоков указанного типа
func (v *Volume) Count(t BlockType) int {
	n := 0
	for _, b := range v.data {
		if b == t {
			n++
		}
	}
	return n
}

// Bytes возвращает копию сырых данных объёма (по байту на блок)
func (v *Volume) Bytes() []byte {
	out := make([]byte, len(v.data))
	for i, t := range v.data {
		out[i] = byte(t)
	}
	return out
}

// VolumeFromBytes восстанавливает объём из Bytes
func VolumeFromBytes(size, height int, data []byte) (*Volume, error) {
	v := NewVolume(size, height)
	if len(data) != len(v.data) {
		return nil, fmt.Errorf("%w: размер данных %d, ожидалось %d", ErrInvalidBlock, len(data), len(v.data))
	}
	for i, b := range data {
		t := BlockType(b)
		if !t.Valid() {
			return nil, fmt.Errorf("%w: неизвестный тип %d в позиции %d", ErrInvalidBlock, b, i)
		}
		v.data[i] = t
	}
	return v, nil
}
