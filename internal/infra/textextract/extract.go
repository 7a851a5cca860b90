// Package textextract достаёт плоский текст из присланных файлов.
//
// Поддерживаются PDF (повреждённые и зашифрованные документы дают ошибку)
// и обычные текстовые файлы в UTF-8. Результат — текст с переводами строк
// "\n", готовый для разбора на вопросы.
package textextract

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/ledongthuc/pdf"

	"telegram-quizbot/internal/infra/logger"
)

// FromFile извлекает текст из файла по расширению: .pdf разбирается
// постранично, всё остальное читается как текстовый файл в UTF-8.
func FromFile(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fromPDF(path)
	}
	return fromPlain(path)
}

// fromPDF собирает текст всех страниц документа. Страницы, которые не
// удалось разобрать, пропускаются с предупреждением: частично извлечённый
// текст полезнее отказа по всему файлу.
func fromPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "открытие PDF")
	}
	defer f.Close()

	var sb strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warnf("textextract: страница %d из %q не разобрана: %v", i, filepath.Base(path), err)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}

	out := normalize(sb.String())
	if out == "" {
		return "", errors.New("в PDF не найдено текста")
	}
	return out, nil
}

func fromPlain(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "чтение файла")
	}
	if !utf8.Valid(raw) {
		return "", errors.New("файл не является текстом в UTF-8")
	}
	return normalize(string(raw)), nil
}

// normalize приводит переводы строк к "\n" и срезает хвостовые пробелы строк.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
