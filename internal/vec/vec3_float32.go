package vec

// Vec3f - вектор для геометрии меша (float32, как в вершинном буфере)
type Vec3f struct {
	X, Y, Z float32
}

// Vec2f - текстурные координаты
type Vec2f struct {
	X, Y float32
}

// Add складывает два вектора
func (v Vec3f) Add(other Vec3f) Vec3f {
	return Vec3f{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec3f) Sub(other Vec3f) Vec3f {
	return Vec3f{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// MulComp умножает покомпонентно (масштаб блока)
func (v Vec3f) MulComp(other Vec3f) Vec3f {
	return Vec3f{X: v.X * other.X, Y: v.Y * other.Y, Z: v.Z * other.Z}
}

// Cross возвращает векторное произведение
func (v Vec3f) Cross(other Vec3f) Vec3f {
	return Vec3f{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Dot возвращает скалярное произведение
func (v Vec3f) Dot(other Vec3f) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Mat4 - матрица 4x4 в column-major порядке (как ожидает GPU)
type Mat4 [16]float32

// Identity возвращает единичную матрицу
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation возвращает матрицу переноса
func Translation(x, y, z float32) Mat4 {
	m := Identity()
	m[12] = x
	m[13] = y
	m[14] = z
	return m
}

// TranslationPart возвращает компоненту переноса матрицы
func (m Mat4) TranslationPart() Vec3f {
	return Vec3f{X: m[12], Y: m[13], Z: m[14]}
}
