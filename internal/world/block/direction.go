package block

import (
	"fmt"

	"github.com/annel0/voxelworld/internal/vec"
)

// Direction: одна из шести осевых граней блока.
// Порядковые номера стабильны: они используются в UV неба и в порядке обхода граней.
type Direction uint8

const (
	Up Direction = iota
	Down
	North
	South
	West
	East

	DirectionCount // всегда последний: количество направлений
)

// Directions перечисляет все направления в порядке порядковых номеров
var Directions = [DirectionCount]Direction{Up, Down, North, South, West, East}

var directionOffsets = [DirectionCount]vec.Vec3{
	Up:    {X: 0, Y: 1, Z: 0},
	Down:  {X: 0, Y: -1, Z: 0},
	North: {X: 0, Y: 0, Z: -1},
	South: {X: 0, Y: 0, Z: 1},
	West:  {X: 1, Y: 0, Z: 0},
	East:  {X: -1, Y: 0, Z: 0},
}

var directionNames = [DirectionCount]string{
	Up:    "up",
	Down:  "down",
	North: "north",
	South: "south",
	West:  "west",
	East:  "east",
}

// DirectionByID возвращает направление по порядковому номеру
func DirectionByID(id uint8) (Direction, error) {
	if id >= uint8(DirectionCount) {
		return 0, fmt.Errorf("неизвестное направление %d", id)
	}
	return Direction(id), nil
}

// ParseDirection разбирает каноническое имя направления ("up", "north", ...)
func ParseDirection(name string) (Direction, bool) {
	for d, n := range directionNames {
		if n == name {
			return Direction(d), true
		}
	}
	return 0, false
}

// Valid сообщает, входит ли значение в закрытое множество направлений
func (d Direction) Valid() bool {
	return d < DirectionCount
}

// ID возвращает порядковый номер направления
func (d Direction) ID() uint8 {
	return uint8(d)
}

// Offset возвращает единичный вектор смещения к соседу
func (d Direction) Offset() vec.Vec3 {
	if !d.Valid() {
		return vec.Zero
	}
	return directionOffsets[d]
}

// String возвращает каноническое имя направления
func (d Direction) String() string {
	if !d.Valid() {
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
	return directionNames[d]
}
