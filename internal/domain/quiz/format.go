// Файл format.go — сериализация Question обратно в канонический текстовый
// формат. Для любого вопроса, удовлетворяющего инвариантам модели, выполняется
// закон обратимости: Extract(Format(q)) даёт ровно один вопрос, равный q с
// точностью до нормализации пробелов.
package quiz

import (
	"fmt"
	"regexp"
	"strings"
)

// leadingNumberRe — уже присутствующая нумерация в тексте вопроса; снимается
// перед перенумерацией, чтобы не получить "3. 1. Вопрос".
var leadingNumberRe = regexp.MustCompile(`^\d+\s*[.)]\s*`)

// Format рендерит вопрос в канонический вид: текст, затем варианты с буквенными
// метками и ')', затем строка "Answer: <буква>", если правильный вариант известен.
// Завершающего перевода строки нет.
func Format(q Question) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(q.Text))
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "\n%c) %s", OptionLetter(i), opt)
	}
	if q.HasAnswer() {
		fmt.Fprintf(&b, "\nAnswer: %c", OptionLetter(q.Correct))
	}
	return b.String()
}

// FormatNumbered рендерит вопрос со сквозным номером n. Существующая нумерация
// в тексте предварительно снимается.
func FormatNumbered(q Question, n int) string {
	stripped := q
	stripped.Text = RenumberText(q.Text, n)
	return Format(stripped)
}

// RenumberText возвращает текст вопроса со сквозным номером n вместо
// уже присутствующей нумерации.
func RenumberText(text string, n int) string {
	stripped := leadingNumberRe.ReplaceAllString(strings.TrimSpace(text), "")
	return fmt.Sprintf("%d. %s", n, stripped)
}

// FormatAll рендерит пакет вопросов со сквозной нумерацией, блоки разделяются
// пустой строкой. Результат снова разбирается Extract без потерь.
func FormatAll(questions []Question) string {
	parts := make([]string, 0, len(questions))
	for i, q := range questions {
		parts = append(parts, FormatNumbered(q, i+1))
	}
	return strings.Join(parts, "\n\n")
}
