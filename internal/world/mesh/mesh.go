package mesh

const (
	// VerticesPerFace - каждая грань даёт четыре собственные вершины
	VerticesPerFace = 4
	// IndicesPerFace - два треугольника на грань
	IndicesPerFace = 6
)

// Mesh - поверхностная геометрия чанка. Вершины не разделяются между гранями,
// поэтому у каждой грани своя плоская нормаль и свои UV.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// FaceCount возвращает количество построенных граней
func (m *Mesh) FaceCount() int {
	if m == nil {
		return 0
	}
	return len(m.Indices) / IndicesPerFace
}

// Empty - в меше нет ни одной грани
func (m *Mesh) Empty() bool {
	return m.FaceCount() == 0
}

// Triangle возвращает вершины i-го треугольника
func (m *Mesh) Triangle(i int) (Vertex, Vertex, Vertex) {
	base := i * 3
	return m.Vertices[m.Indices[base]], m.Vertices[m.Indices[base+1]], m.Vertices[m.Indices[base+2]]
}
