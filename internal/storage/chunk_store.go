package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/voxel-stream/internal/world"
	"github.com/annel0/voxel-stream/internal/world/block"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

// ErrStoreClosed возвращается при обращении к закрытому хранилищу
var ErrStoreClosed = errors.New("хранилище закрыто")

const headerSize = 4

// ChunkStore кэширует сгенерированные объёмы чанков в BadgerDB.
// Значения сжимаются zstd. Namespace отделяет объёмы разных
// параметров генерации, чтобы смена сида не поднимала чужие данные.
type ChunkStore struct {
	db        *badger.DB
	namespace string

	enc *zstd.Encoder
	dec *zstd.Decoder

	mutex  sync.RWMutex
	closed bool
}

// NewChunkStore открывает хранилище в каталоге dir.
// Пустой dir означает хранилище в памяти.
func NewChunkStore(dir, namespace string) (*ChunkStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &ChunkStore{db: db, namespace: namespace, enc: enc, dec: dec}, nil
}

func (s *ChunkStore) key(coord world.ChunkCoord) []byte {
	return []byte(fmt.Sprintf("volume:%s:%d:%d", s.namespace, coord.X, coord.Z))
}

// LoadVolume возвращает сохранённый объём. ok=false, если записи нет.
func (s *ChunkStore) LoadVolume(coord world.ChunkCoord) (*block.Volume, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return nil, false, ErrStoreClosed
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(coord))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	raw, err := s.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, false, fmt.Errorf("ошибка распаковки %s: %w", coord, err)
	}
	if len(raw) < headerSize {
		return nil, false, fmt.Errorf("запись %s повреждена", coord)
	}

	size := int(binary.LittleEndian.Uint16(raw[0:2]))
	height := int(binary.LittleEndian.Uint16(raw[2:4]))
	volume, err := block.VolumeFromBytes(size, height, raw[headerSize:])
	if err != nil {
		return nil, false, fmt.Errorf("запись %s: %w", coord, err)
	}
	return volume, true, nil
}

// StoreVolume сохраняет объём чанка, перезаписывая прежний
func (s *ChunkStore) StoreVolume(coord world.ChunkCoord, volume *block.Volume) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}

	raw := make([]byte, headerSize, headerSize+volume.Size()*volume.Size()*volume.Height())
	binary.LittleEndian.PutUint16(raw[0:2], uint16(volume.Size()))
	binary.LittleEndian.PutUint16(raw[2:4], uint16(volume.Height()))
	raw = append(raw, volume.Bytes()...)

	data := s.enc.EncodeAll(raw, nil)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(coord), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Close закрывает хранилище. Повторный вызов ничего не делает.
func (s *ChunkStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

var _ world.VolumeCache = (*ChunkStore)(nil)
