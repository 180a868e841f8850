package block

// ID представляет идентификатор типа блока
type ID uint16

// Константы ID блоков из стандартного набора (см. DefaultTypes)
const (
	Air   ID = iota // 0: пустота, никогда не рисуется
	Grass           // 1
	Dirt            // 2
	Stone           // 3
	Sand            // 4
)

// IsAir возвращает true для пустого блока
func (id ID) IsAir() bool {
	return id == Air
}
