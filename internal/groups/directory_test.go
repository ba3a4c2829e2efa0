package groups

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirectory(t *testing.T) {
	t.Run("Встроенная таблица доступна сразу", func(t *testing.T) {
		d := NewDirectory()

		n, ok := d.Lookup("BC club")
		if !ok || n != 60 {
			t.Errorf("Ожидался размер 60 для 'BC club', получено %d, %v", n, ok)
		}
	})

	t.Run("Ключи чувствительны к точному совпадению", func(t *testing.T) {
		d := NewDirectory()

		// Имя с хвостовым пробелом — именно так оно записано в таблице
		if _, ok := d.Lookup("Politics discassion's "); !ok {
			t.Error("Ожидалось совпадение для имени с хвостовым пробелом")
		}
		if _, ok := d.Lookup("Politics discassion's"); ok {
			t.Error("Имя без хвостового пробела не должно совпадать")
		}
	})

	t.Run("Неизвестная группа — не ошибка", func(t *testing.T) {
		d := NewDirectory()
		if _, ok := d.Lookup("no such group"); ok {
			t.Error("Ожидалось отсутствие группы 'no such group'")
		}
	})
}

func TestLoadDirectory(t *testing.T) {
	t.Run("YAML-файл накладывается поверх встроенной таблицы", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "groups.yml")
		content := "BC club: 75\nnew group: 12\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("Не удалось подготовить файл: %v", err)
		}

		d, err := LoadDirectory(path)
		if err != nil {
			t.Fatalf("Неожиданная ошибка: %v", err)
		}

		if n, _ := d.Lookup("BC club"); n != 75 {
			t.Errorf("Ожидалось переопределение 75, получено %d", n)
		}
		if n, ok := d.Lookup("new group"); !ok || n != 12 {
			t.Errorf("Ожидалась новая группа размером 12, получено %d, %v", n, ok)
		}
		// Нетронутые записи встроенной таблицы сохраняются
		if n, _ := d.Lookup("Gmurim"); n != 6 {
			t.Errorf("Ожидался размер 6 для 'Gmurim', получено %d", n)
		}
	})

	t.Run("Отсутствующий файл — ошибка", func(t *testing.T) {
		if _, err := LoadDirectory(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
			t.Error("Ожидалась ошибка для отсутствующего файла, получено nil")
		}
	})

	t.Run("Некорректный YAML — ошибка", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yml")
		if err := os.WriteFile(path, []byte("group: [not an int"), 0o644); err != nil {
			t.Fatalf("Не удалось подготовить файл: %v", err)
		}
		if _, err := LoadDirectory(path); err == nil {
			t.Error("Ожидалась ошибка для некорректного YAML, получено nil")
		}
	})
}
