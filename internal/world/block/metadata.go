package block

import "github.com/annel0/voxel-stream/internal/vec"

// Placement - правила естественной генерации блока
type Placement struct {
	MinHeight int `yaml:"min_height"`
	MaxHeight int `yaml:"max_height"` // не включительно
	Rarity    int `yaml:"rarity"`     // 0..99, чем больше - тем реже
}

// Weight возвращает вес блока в таблице редкости
func (p Placement) Weight() int {
	return 100 - p.Rarity
}

// FaceTextures - якорные ячейки атласа по граням
type FaceTextures struct {
	Top    []float32 `yaml:"top,omitempty"`
	Bottom []float32 `yaml:"bottom,omitempty"`
	Front  []float32 `yaml:"front,omitempty"`
	Back   []float32 `yaml:"back,omitempty"`
	Left   []float32 `yaml:"left,omitempty"`
	Right  []float32 `yaml:"right,omitempty"`
}

// Metadata - неизменяемое описание типа блока из конфигурации
type Metadata struct {
	Type          BlockType    `yaml:"type"`
	Opaque        bool         `yaml:"opaque"`
	ScaleX        *float32     `yaml:"scale_x,omitempty"`
	ScaleY        *float32     `yaml:"scale_y,omitempty"`
	LightEmission float32      `yaml:"light_emission,omitempty"`
	LightColor    []float32    `yaml:"light_color,omitempty"`
	Natural       *Placement   `yaml:"natural,omitempty"`
	Textures      FaceTextures `yaml:"textures,omitempty"`

	cells [FaceCount]*AtlasCell
}

// HorizontalScale возвращает масштаб по X и Z (1, если не задан)
func (m *Metadata) HorizontalScale() float32 {
	if m.ScaleX == nil {
		return 1
	}
	return *m.ScaleX
}

// VerticalScale возвращает масштаб по Y (1, если не задан)
func (m *Metadata) VerticalScale() float32 {
	if m.ScaleY == nil {
		return 1
	}
	return *m.ScaleY
}

// HasNonUnitScale - модель блока не заполняет воксель целиком (например, факел).
// Такие блоки рисуют все грани независимо от соседей.
func (m *Metadata) HasNonUnitScale() bool {
	return m.HorizontalScale() != 1 || m.VerticalScale() != 1
}

// Scale возвращает масштаб модели по трём осям
func (m *Metadata) Scale() vec.Vec3f {
	h := m.HorizontalScale()
	return vec.Vec3f{X: h, Y: m.VerticalScale(), Z: h}
}

// IsNatural - участвует ли блок в естественной генерации
func (m *Metadata) IsNatural() bool {
	return m.Natural != nil
}

// EmitsLight - является ли блок источником света
func (m *Metadata) EmitsLight() bool {
	return len(m.LightColor) == 3 && m.LightEmission > 0
}

// Light возвращает источник света для блока в указанной позиции
func (m *Metadata) Light(position vec.Vec3f) (Light, bool) {
	if !m.EmitsLight() {
		return Light{}, false
	}
	return Light{
		Color: vec.Vec3f{
			X: m.LightColor[0] / 255.0,
			Y: m.LightColor[1] / 255.0,
			Z: m.LightColor[2] / 255.0,
		},
		Strength: m.LightEmission,
		Position: position,
		Type:     m.Type,
	}, true
}

// Texture возвращает якорную ячейку атласа для грани
func (m *Metadata) Texture(face Face) (AtlasCell, bool) {
	if face >= FaceCount || m.cells[face] == nil {
		return AtlasCell{}, false
	}
	return *m.cells[face], true
}

// resolveTextures переводит списки из конфигурации в ячейки атласа
func (m *Metadata) resolveTextures() {
	raw := [FaceCount][]float32{
		FaceRight:  m.Textures.Right,
		FaceLeft:   m.Textures.Left,
		FaceTop:    m.Textures.Top,
		FaceBottom: m.Textures.Bottom,
		FaceFront:  m.Textures.Front,
		FaceBack:   m.Textures.Back,
	}
	for face, coords := range raw {
		if len(coords) != 2 {
			m.cells[face] = nil
			continue
		}
		m.cells[face] = &AtlasCell{U: coords[0], V: coords[1]}
	}
}
