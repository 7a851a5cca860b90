// Package quiz — ядро приложения: превращение свободно отформатированного текста
// в структурированные вопросы с вариантами ответов и обратная сериализация в
// канонический текстовый формат.
//
// Модель данных и инварианты:
//   - у эмитированного вопроса всегда не меньше двух вариантов;
//   - Correct — нулевой индекс правильного варианта либо NoAnswer, если строка
//     ответа не распознана;
//   - порядок вариантов соответствует порядку появления в тексте, буква метки
//     выводится из позиции (a, b, c, ...), а не из литеры во входном тексте.
//
// Пакет не делает I/O и не читает конфигурацию: обе операции — чистые функции
// от входного текста, их можно вызывать конкурентно без какой-либо координации.
package quiz

// NoAnswer — значение Correct, означающее «правильный вариант не определён».
// Такие вопросы эмитируются (не отбрасываются), чтобы вызывающий код мог
// предупредить пользователя.
const NoAnswer = -1

// maxOptions — метки вариантов ограничены латиницей a..z; всё, что дальше,
// классификатор строк не распознаёт как вариант.
const maxOptions = 26

// Question — единственная сущность ядра: текст вопроса, упорядоченные варианты
// и индекс правильного ответа.
type Question struct {
	Text    string
	Options []string
	Correct int
}

// HasAnswer сообщает, распознан ли правильный вариант.
func (q Question) HasAnswer() bool {
	return q.Correct >= 0 && q.Correct < len(q.Options)
}

// Valid проверяет инварианты модели: непустой текст, минимум два варианта,
// Correct в допустимом диапазоне либо NoAnswer.
func (q Question) Valid() bool {
	if q.Text == "" || len(q.Options) < minOptions {
		return false
	}
	return q.Correct == NoAnswer || (q.Correct >= 0 && q.Correct < len(q.Options))
}

// OptionLetter возвращает букву метки для позиции i (0 → 'a').
// Определена только для i из [0, 26); за пределами возвращает '?'.
func OptionLetter(i int) rune {
	if i < 0 || i >= maxOptions {
		return '?'
	}
	return rune('a' + i)
}
