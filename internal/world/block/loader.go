package block

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// typeFile: формат файла описания блока (TOML или YAML):
//
//	name = "grass"
//	id = 1
//	states = []
//	[textures]
//	up = 0
//	down = 2
//	north = 1
//	...
type typeFile struct {
	Name     string            `toml:"name" yaml:"name"`
	ID       int64             `toml:"id" yaml:"id"`
	Textures map[string]uint32 `toml:"textures" yaml:"textures"`
	States   []any             `toml:"states" yaml:"states"`
}

// LoadDir читает все описания блоков (*.toml, *.yaml, *.yml) из каталога.
// Файлы с другими расширениями пропускаются. Результат отсортирован по ID.
func LoadDir(dir string) ([]Type, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("чтение каталога блоков %s: %w", dir, err)
	}

	var types []Type
	for _, entry := range entries {
		if entry.IsDir() || !isBlockFile(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("чтение файла блока %s: %w", path, err)
		}

		t, err := ParseType(entry.Name(), data)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i].ID < types[j].ID })
	return types, nil
}

// LoadCatalog читает каталог блоков из директории и инициализирует новый Catalog
func LoadCatalog(dir string) (*Catalog, error) {
	types, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}
	c := NewCatalog()
	if err := c.Init(types); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseType разбирает одно описание блока; формат определяется по расширению имени.
// Описание обязано содержать текстуры для всех шести направлений.
func ParseType(name string, data []byte) (Type, error) {
	var f typeFile
	var err error

	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		err = toml.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		return Type{}, fmt.Errorf("%s: неподдерживаемый формат описания блока", name)
	}
	if err != nil {
		return Type{}, fmt.Errorf("%s: разбор описания блока: %w", name, err)
	}

	if f.ID < 0 || f.ID > math.MaxUint16 {
		return Type{}, fmt.Errorf("%s: id %d вне диапазона [0, %d]", name, f.ID, math.MaxUint16)
	}

	t := Type{
		Name:   f.Name,
		ID:     ID(f.ID),
		States: f.States,
	}

	for key := range f.Textures {
		if _, ok := ParseDirection(key); !ok {
			return Type{}, fmt.Errorf("%s: неизвестное направление текстуры %q", name, key)
		}
	}
	for _, dir := range Directions {
		tex, ok := f.Textures[dir.String()]
		if !ok {
			return Type{}, fmt.Errorf("%s: %w: %s", name, ErrMissingTexture, dir)
		}
		t.Textures[dir] = tex
	}

	return t, nil
}

func isBlockFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml", ".yaml", ".yml":
		return true
	}
	return false
}
