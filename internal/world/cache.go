package world

import "github.com/annel0/voxel-stream/internal/world/block"

// VolumeCache - необязательный кэш сгенерированных объёмов.
// Генерация детерминирована, поэтому кэш только экономит время на шуме;
// меш всегда строится заново. Реализация должна быть безопасна для воркеров.
type VolumeCache interface {
	LoadVolume(coord ChunkCoord) (*block.Volume, bool, error)
	StoreVolume(coord ChunkCoord, volume *block.Volume) error
}
