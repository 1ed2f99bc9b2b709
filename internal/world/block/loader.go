package block

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed assets/blocks.yaml
var defaultBlocks []byte

//go:embed assets/blocks.schema.json
var blocksSchema string

const schemaURL = "blocks.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Document - корень конфигурационного документа блоков
type Document struct {
	Blocks []Metadata `yaml:"blocks"`
}

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString(schemaURL, blocksSchema)
	})
	return compiledSchema, schemaErr
}

// Parse проверяет YAML-документ по схеме и декодирует описания блоков
func Parse(data []byte) ([]Metadata, error) {
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("ошибка разбора YAML блоков: %w", err)
	}

	// Схема работает с JSON-типами, поэтому приводим документ через JSON
	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("документ блоков не приводится к JSON: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("документ блоков не приводится к JSON: %w", err)
	}

	s, err := schema()
	if err != nil {
		return nil, fmt.Errorf("ошибка компиляции схемы блоков: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}

	var parsed Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("ошибка декодирования блоков: %w", err)
	}
	return parsed.Blocks, nil
}

// LoadFile читает документ блоков с диска и строит реестр
func LoadFile(path string, atlas Atlas, height int) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать %s: %w", path, err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewRegistry(defs, atlas, height)
}

// LoadDefault строит реестр из встроенного каталога
func LoadDefault(atlas Atlas, height int) (*Registry, error) {
	defs, err := Parse(defaultBlocks)
	if err != nil {
		return nil, fmt.Errorf("встроенный каталог блоков: %w", err)
	}
	return NewRegistry(defs, atlas, height)
}

// DefaultDocument возвращает встроенный YAML-каталог
func DefaultDocument() []byte {
	out := make([]byte, len(defaultBlocks))
	copy(out, defaultBlocks)
	return out
}
