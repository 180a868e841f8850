package block

import (
	"errors"
	"fmt"
	"sort"
)

// Ошибки каталога. Все они означают нарушение контракта вызывающей стороной,
// поэтому игровой цикл считает их фатальными.
var (
	ErrAlreadyInitialized = errors.New("каталог блоков уже инициализирован")
	ErrNotInitialized     = errors.New("каталог блоков не инициализирован")
	ErrUnknownBlock       = errors.New("тип блока не зарегистрирован")
	ErrMissingTexture     = errors.New("у типа блока нет текстуры для направления")
	ErrDuplicateBlock     = errors.New("тип блока зарегистрирован дважды")
)

// Type описывает тип блока: имя, ID и индекс текстуры в атласе для каждой грани.
type Type struct {
	Name     string
	ID       ID
	Textures [DirectionCount]uint32
	States   []any // произвольные состояния из файла описания, ядром не интерпретируются
}

// Texture возвращает индекс текстуры для грани
func (t *Type) Texture(dir Direction) (uint32, error) {
	if !dir.Valid() {
		return 0, fmt.Errorf("%w: блок %q, направление %s", ErrMissingTexture, t.Name, dir)
	}
	return t.Textures[dir], nil
}

// Catalog: неизменяемый после Init справочник типов блоков.
// Каталог создаётся явно и передаётся компонентам, которым нужны текстуры.
type Catalog struct {
	types       map[ID]*Type
	initialized bool
}

// NewCatalog создаёт пустой, ещё не инициализированный каталог
func NewCatalog() *Catalog {
	return &Catalog{types: make(map[ID]*Type)}
}

// NewDefaultCatalog создаёт каталог, заполненный стандартным набором блоков
func NewDefaultCatalog() *Catalog {
	c := NewCatalog()
	if err := c.Init(DefaultTypes()); err != nil {
		panic(fmt.Sprintf("стандартный набор блоков некорректен: %v", err))
	}
	return c
}

// Init заполняет каталог ровно один раз. Повторный вызов: ErrAlreadyInitialized.
// При ошибке каталог остаётся неинициализированным.
func (c *Catalog) Init(types []Type) error {
	if c.initialized {
		return ErrAlreadyInitialized
	}

	staged := make(map[ID]*Type, len(types))
	for i := range types {
		t := types[i]
		if _, exists := staged[t.ID]; exists {
			return fmt.Errorf("%w: id=%d (%s)", ErrDuplicateBlock, t.ID, t.Name)
		}
		tt := t
		staged[t.ID] = &tt
	}

	c.types = staged
	c.initialized = true
	return nil
}

// Initialized сообщает, был ли вызван Init
func (c *Catalog) Initialized() bool {
	return c.initialized
}

// Get возвращает тип блока по ID
func (c *Catalog) Get(id ID) (*Type, error) {
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	t, ok := c.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", ErrUnknownBlock, id)
	}
	return t, nil
}

// MustGet как Get, но паникует при ошибке
func (c *Catalog) MustGet(id ID) *Type {
	t, err := c.Get(id)
	if err != nil {
		panic(err)
	}
	return t
}

// Texture возвращает индекс текстуры блока id для грани dir
func (c *Catalog) Texture(id ID, dir Direction) (uint32, error) {
	t, err := c.Get(id)
	if err != nil {
		return 0, err
	}
	return t.Texture(dir)
}

// MustTexture как Texture, но паникует при ошибке
func (c *Catalog) MustTexture(id ID, dir Direction) uint32 {
	tex, err := c.Texture(id, dir)
	if err != nil {
		panic(err)
	}
	return tex
}

// Has проверяет, зарегистрирован ли ID
func (c *Catalog) Has(id ID) bool {
	_, ok := c.types[id]
	return ok
}

// Len возвращает количество зарегистрированных типов
func (c *Catalog) Len() int {
	return len(c.types)
}

// Types возвращает копии всех типов, отсортированные по ID
func (c *Catalog) Types() []Type {
	result := make([]Type, 0, len(c.types))
	for _, t := range c.types {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// DefaultTypes возвращает стандартный набор блоков (совпадает с assets/blocks)
func DefaultTypes() []Type {
	return []Type{
		{Name: "air", ID: Air},
		{Name: "grass", ID: Grass, Textures: [DirectionCount]uint32{Up: 0, Down: 2, North: 1, South: 1, West: 1, East: 1}},
		{Name: "dirt", ID: Dirt, Textures: uniformTextures(2)},
		{Name: "stone", ID: Stone, Textures: uniformTextures(3)},
		{Name: "sand", ID: Sand, Textures: uniformTextures(4)},
	}
}

func uniformTextures(tex uint32) [DirectionCount]uint32 {
	var textures [DirectionCount]uint32
	for i := range textures {
		textures[i] = tex
	}
	return textures
}
