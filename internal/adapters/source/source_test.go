package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMemorySource(t *testing.T) {
	t.Run("Fetch возвращает копию данных", func(t *testing.T) {
		original := []byte(`{"name": "test"}`)
		src := NewMemorySource(original)

		data, err := src.Fetch()
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}

		if string(data) != string(original) {
			t.Errorf("Ожидались данные '%s', получены '%s'", original, data)
		}

		// Изменение копии не должно затрагивать оригинал
		data[0] = 'X'
		again, _ := src.Fetch()
		if string(again) != string(original) {
			t.Error("Изменение возвращенного среза затронуло оригинальные данные")
		}
	})

	t.Run("Fetch без данных возвращает ошибку", func(t *testing.T) {
		src := NewMemorySource(nil)
		if _, err := src.Fetch(); err == nil {
			t.Error("Ожидалась ошибка для отсутствующих данных, получено nil")
		}
	})
}

func TestCliSource(t *testing.T) {
	t.Run("Fetch читает существующий файл", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "chat.json")
		content := []byte(`{"messages": []}`)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatalf("Не удалось подготовить файл: %v", err)
		}

		src := NewCliSource(path)
		data, err := src.Fetch()
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}
		if string(data) != string(content) {
			t.Errorf("Ожидались данные '%s', получены '%s'", content, data)
		}
	})

	t.Run("Fetch несуществующего файла возвращает ошибку", func(t *testing.T) {
		src := NewCliSource(filepath.Join(t.TempDir(), "missing.json"))
		if _, err := src.Fetch(); err == nil {
			t.Error("Ожидалась ошибка для отсутствующего файла, получено nil")
		}
	})

	t.Run("Fetch без пути возвращает ошибку", func(t *testing.T) {
		src := NewCliSource("")
		if _, err := src.Fetch(); err == nil {
			t.Error("Ожидалась ошибка для пустого пути, получено nil")
		}
	})
}

func TestDiscoverExports(t *testing.T) {
	t.Run("Находит только JSON-файлы и сортирует их по имени", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"zeta.json", "alpha.json", "notes.txt"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0o644); err != nil {
				t.Fatalf("Не удалось подготовить файл %s: %v", name, err)
			}
		}

		sources, err := DiscoverExports(dir)
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}

		if len(sources) != 2 {
			t.Fatalf("Ожидалось 2 источника, получено %d", len(sources))
		}

		if sources[0].Name != "alpha" || sources[1].Name != "zeta" {
			t.Errorf("Ожидался порядок [alpha, zeta], получено [%s, %s]", sources[0].Name, sources[1].Name)
		}
	})

	t.Run("Имя чата — базовое имя файла без расширения", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "BC club.json"), []byte("[]"), 0o644); err != nil {
			t.Fatalf("Не удалось подготовить файл: %v", err)
		}

		sources, err := DiscoverExports(dir)
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}
		if len(sources) != 1 || sources[0].Name != "BC club" {
			t.Errorf("Ожидалось имя 'BC club', получено %+v", sources)
		}
	})

	t.Run("Пустой каталог — не ошибка", func(t *testing.T) {
		sources, err := DiscoverExports(t.TempDir())
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}
		if len(sources) != 0 {
			t.Errorf("Ожидался пустой список источников, получено %d", len(sources))
		}
	})
}
