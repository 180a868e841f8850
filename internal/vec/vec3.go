package vec

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Используется и для координат блоков в мире, и для координат чанков.
type Vec3 struct {
	X int
	Y int
	Z int
}

// Zero нулевой вектор
var Zero = Vec3{}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Scale умножает все компоненты на целое число
func (v Vec3) Scale(k int) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// ChebyshevDistance возвращает расстояние Чебышёва (максимум модулей разностей).
// Куб радиуса r вокруг точки: это все точки с расстоянием <= r.
func (v Vec3) ChebyshevDistance(other Vec3) int {
	return max(abs(v.X-other.X), abs(v.Y-other.Y), abs(v.Z-other.Z))
}

// Less задаёт лексикографический порядок (X, затем Y, затем Z)
func (v Vec3) Less(other Vec3) bool {
	if v.X != other.X {
		return v.X < other.X
	}
	if v.Y != other.Y {
		return v.Y < other.Y
	}
	return v.Z < other.Z
}

// ToFloat переводит целочисленный вектор в mgl32.Vec3
func (v Vec3) ToFloat() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", v.X, v.Y, v.Z)
}

// FromFloat округляет точку до блока, в котором она лежит.
// Блок c занимает отрезок [c-0.5, c+0.5) по каждой оси.
func FromFloat(p mgl32.Vec3) Vec3 {
	return Vec3{
		X: roundHalfUp(p[0]),
		Y: roundHalfUp(p[1]),
		Z: roundHalfUp(p[2]),
	}
}

// FloorDiv делит с округлением к минус бесконечности (b > 0)
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod возвращает неотрицательный остаток для b > 0
func FloorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func roundHalfUp(f float32) int {
	return int(math.Floor(float64(f) + 0.5))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
