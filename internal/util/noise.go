package util

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// maxUnit - наибольшее значение строго меньше 1, чтобы floor(v*len) не выходил за таблицу
var maxUnit = math.Nextafter(1, 0)

// NoiseParams описывает фрактальное поле шума Перлина.
// Alpha - затухание амплитуды между октавами, Beta - рост частоты,
// Octaves - количество октав, Frequency - масштаб мировых координат.
type NoiseParams struct {
	Seed      int64
	Alpha     float64
	Beta      float64
	Octaves   int32
	Frequency float64
}

// NoiseField - детерминированное фрактальное поле шума.
// После создания только читается, поэтому безопасно для параллельного использования.
type NoiseField struct {
	params NoiseParams
	perlin *perlin.Perlin
}

// NewNoiseField создаёт поле шума с указанными параметрами
func NewNoiseField(params NoiseParams) *NoiseField {
	if params.Octaves <= 0 {
		params.Octaves = 1
	}
	if params.Alpha == 0 {
		params.Alpha = 2.0
	}
	if params.Beta == 0 {
		params.Beta = 2.0
	}
	if params.Frequency == 0 {
		params.Frequency = 1.0
	}
	return &NoiseField{
		params: params,
		perlin: perlin.NewPerlin(params.Alpha, params.Beta, params.Octaves, params.Seed),
	}
}

// Params возвращает параметры поля
func (n *NoiseField) Params() NoiseParams {
	return n.params
}

// Raw2D возвращает сырое значение шума (примерно от -1 до 1)
func (n *NoiseField) Raw2D(x, z float64) float64 {
	f := n.params.Frequency
	return n.perlin.Noise2D(x*f, z*f)
}

// Raw3D возвращает сырое трёхмерное значение шума
func (n *NoiseField) Raw3D(x, y, z float64) float64 {
	f := n.params.Frequency
	return n.perlin.Noise3D(x*f, y*f, z*f)
}

// Unit2D возвращает значение шума в диапазоне [0, 1)
func (n *NoiseField) Unit2D(x, z float64) float64 {
	return ClampUnit((n.Raw2D(x, z) + 1.0) / 2.0)
}

// Magnitude3D возвращает |шум|*2 в диапазоне [0, 1)
func (n *NoiseField) Magnitude3D(x, y, z float64) float64 {
	return ClampUnit(math.Abs(n.Raw3D(x, y, z)) * 2.0)
}

// ClampUnit ограничивает значение полуинтервалом [0, 1)
func ClampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v >= 1 {
		return maxUnit
	}
	return v
}
