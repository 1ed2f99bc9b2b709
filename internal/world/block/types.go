package block

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// BlockType представляет тип блока. Закрытый перечень, используется как ключ реестра.
type BlockType uint8

// Константы типов блоков
const (
	Air BlockType = iota // 0
	Dirt
	Grass
	DiamondOre
	RedstoneOre
	GoldOre
	IronOre
	CoalOre
	Pumpkin
	JackOLantern
	Torch
	Bedrock
	Stone
	Gravel
	Granite
	Diorite

	typeCount // всегда последний: количество типов
)

var typeNames = [typeCount]string{
	Air:          "air",
	Dirt:         "dirt",
	Grass:        "grass",
	DiamondOre:   "diamond_ore",
	RedstoneOre:  "redstone_ore",
	GoldOre:      "gold_ore",
	IronOre:      "iron_ore",
	CoalOre:      "coal_ore",
	Pumpkin:      "pumpkin",
	JackOLantern: "jack_o_lantern",
	Torch:        "torch",
	Bedrock:      "bedrock",
	Stone:        "stone",
	Gravel:       "gravel",
	Granite:      "granite",
	Diorite:      "diorite",
}

// Types возвращает все типы каталога в порядке объявления
func Types() []BlockType {
	types := make([]BlockType, 0, typeCount)
	for t := BlockType(0); t < typeCount; t++ {
		types = append(types, t)
	}
	return types
}

// Valid проверяет, входит ли тип в каталог
func (t BlockType) Valid() bool {
	return t < typeCount
}

// String возвращает имя типа, как оно записано в конфигурации
func (t BlockType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
	return typeNames[t]
}

// ParseBlockType ищет тип по имени из конфигурации
func ParseBlockType(name string) (BlockType, error) {
	for t, n := range typeNames {
		if n == name {
			return BlockType(t), nil
		}
	}
	return Air, fmt.Errorf("неизвестный тип блока %q", name)
}

// UnmarshalYAML читает тип блока по имени
func (t *BlockType) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseBlockType(name)
	if err != nil {
		return fmt.Errorf("строка %d: %w", value.Line, err)
	}
	*t = parsed
	return nil
}

// MarshalYAML записывает тип блока по имени
func (t BlockType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// Face - грань вокселя
type Face uint8

const (
	FaceRight  Face = iota // +X
	FaceLeft               // -X
	FaceTop                // +Y
	FaceBottom             // -Y
	FaceFront              // -Z
	FaceBack               // +Z

	FaceCount
)

var faceNames = [FaceCount]string{"right", "left", "top", "bottom", "front", "back"}

// String возвращает имя грани
func (f Face) String() string {
	if f >= FaceCount {
		return "unknown"
	}
	return faceNames[f]
}
