package source

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"whatsapp-chat-analyzer/internal/ports"
)

// NamedSource связывает источник данных с именем чата.
type NamedSource struct {
	Name   string
	Source ports.DataSource
}

// DiscoverExports находит все файлы *.json в каталоге и возвращает по
// источнику на каждый. Имя чата — базовое имя файла без расширения.
// Пустой каталог — не ошибка: просто нечего анализировать.
func DiscoverExports(dir string) ([]NamedSource, error) {
	pattern := filepath.Join(dir, "*.json")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(paths)

	sources := make([]NamedSource, 0, len(paths))
	for _, path := range paths {
		base := filepath.Base(path)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		sources = append(sources, NamedSource{
			Name:   name,
			Source: NewCliSource(path),
		})
	}

	return sources, nil
}
