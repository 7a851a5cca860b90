// Файл extract.go — разбор свободного текста в последовательность Question.
//
// Алгоритм: построчное сканирование с явным конечным автоматом вместо цепочки
// регулярных выражений по целым блокам. Два состояния:
//   - stateExpectQuestion — копим текст вопроса (или ждём его начала);
//   - stateInOptions      — копим варианты ответа.
//
// Конвейер обработки строки:
//  1. классификация: пустая | начало вопроса (нумерация/маркер) | вариант |
//     строка ответа | обычный текст;
//  2. обычный текст после границы блока (пустой строки или строки ответа)
//     открывает новый вопрос; внутри блока он продолжает текст вопроса либо
//     последний вариант;
//  3. завершение блока валидирует накопленное: минимум два варианта, непустой
//     текст, отсутствие дубликата — иначе блок отбрасывается со счётчиком.
//
// Ошибки: разбор никогда не падает на кривом входе. Некомплектные блоки
// отбрасываются, нераспознанные ответы эмитируются с Correct = NoAnswer;
// и то и другое возвращается вызывающему в Report.
package quiz

import (
	"fmt"
	"regexp"
	"strings"

	"telegram-quizbot/internal/infra/logger"
)

// minOptions — минимум вариантов, при котором блок становится вопросом.
const minOptions = 2

// Skip описывает отброшенный при разборе блок: порядковый номер блока во входе
// и человекочитаемая причина. Причины показываются пользователю в отчёте.
type Skip struct {
	Block  int
	Reason string
}

// Report — итог одного прогона Extract: какие блоки отброшены и сколько
// эмитированных вопросов остались без распознанного ответа.
type Report struct {
	Skipped    []Skip
	Unresolved int
}

// SkipCount возвращает число отброшенных блоков.
func (r Report) SkipCount() int {
	return len(r.Skipped)
}

// Классификация строк входного текста.
var (
	// numberedRe — начало вопроса с нумерацией: "1.", "12)", "Q3 -".
	numberedRe = regexp.MustCompile(`^(?i)(?:q\s*)?(\d+)\s*[.)-]\s*(.*)$`)
	// bulletRe — начало вопроса с маркером списка.
	bulletRe = regexp.MustCompile(`^[-•]\s+(.*)$`)
	// optionRe — вариант ответа: буква a..z (в любом регистре), затем ')' или '.'.
	optionRe = regexp.MustCompile(`^([A-Za-z])[.)]\s*(.*)$`)
	// answerRe — строка ответа, допускаются ведущие markdown-маркеры (*Answer:).
	answerRe = regexp.MustCompile(`^(?i)[*_~\s]*answer\s*:\s*(.*)$`)
	// answerLetterRe — значение ответа в виде одиночной буквы, возможно со
	// скобкой/точкой и текстом варианта после неё ("b", "b)", "b) 4").
	// Одиночное слово ("Paris") сюда не попадает и трактуется как свободный текст.
	answerLetterRe = regexp.MustCompile(`^([A-Za-z])(?:\s*[.)].*)?$`)
)

// parserState — состояние конечного автомата построчного разбора.
type parserState int

const (
	stateExpectQuestion parserState = iota // копим (или ждём) текст вопроса
	stateInOptions                         // копим варианты ответа
)

// block — накапливаемый «текущий вопрос» до финализации.
type block struct {
	textParts []string // строки текста вопроса; склеиваются пробелом
	options   []string
	answerRaw string // сырое значение строки ответа
	hasAnswer bool
}

// Extract разбирает произвольный человеко-написанный текст в упорядоченный
// список вопросов. Вход может содержать смешанные переводы строк, лишние
// пробелы и разнородные форматы блоков; предположений о корректности нет.
// Возвращает best-effort последовательность и отчёт об отброшенном.
func Extract(text string) ([]Question, Report) {
	var (
		questions []Question
		report    Report
		cur       *block
		state     = stateExpectQuestion
		boundary  = true // начало входа — граница блока
		blockNum  int
		seen      = make(map[string]struct{})
	)

	finalize := func() {
		if cur == nil {
			return
		}
		blockNum++
		q, skip := cur.build(blockNum, seen)
		cur = nil
		state = stateExpectQuestion
		if skip != nil {
			logger.Debugf("Extract: skipping block %d: %s", skip.Block, skip.Reason)
			report.Skipped = append(report.Skipped, *skip)
			return
		}
		if !q.HasAnswer() {
			report.Unresolved++
		}
		questions = append(questions, q)
	}

	openBlock := func(text string) {
		finalize()
		cur = &block{}
		if text != "" {
			cur.textParts = append(cur.textParts, text)
		}
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		switch {
		case line == "":
			// Пустая строка — потенциальная граница между блоками.
			boundary = true
			continue

		case answerRe.MatchString(line):
			if cur != nil {
				m := answerRe.FindStringSubmatch(line)
				cur.answerRaw = strings.TrimSpace(m[1])
				cur.hasAnswer = true
			}
			// Строка ответа закрывает блок: следующий обычный текст — новый вопрос.
			boundary = true
			continue

		case optionRe.MatchString(line):
			m := optionRe.FindStringSubmatch(line)
			if cur == nil || cur.hasAnswer {
				// Вариант без открытого вопроса либо после уже закрытого
				// строкой ответа блока: открываем новый (анонимный) блок.
				// Без текста вопроса он будет отброшен на финализации,
				// но счётчик пропусков сохранится.
				finalize()
				cur = &block{}
			}
			cur.addOption(rune(m[1][0]), strings.TrimSpace(m[2]))
			state = stateInOptions

		case numberedRe.MatchString(line):
			m := numberedRe.FindStringSubmatch(line)
			openBlock(strings.TrimSpace(m[2]))

		case bulletRe.MatchString(line):
			m := bulletRe.FindStringSubmatch(line)
			openBlock(strings.TrimSpace(m[1]))

		default:
			switch {
			case cur == nil || boundary:
				// Обычный текст сразу после границы блока — начало нового вопроса.
				openBlock(line)
			case state == stateInOptions:
				// Продолжение последнего варианта (перенос строки внутри варианта).
				cur.options[len(cur.options)-1] += " " + line
			default:
				// Продолжение текста вопроса.
				cur.textParts = append(cur.textParts, line)
			}
		}
		boundary = false
	}
	finalize()

	return questions, report
}

// addOption добавляет вариант, проверяя монотонность литер (a, b, c, ...).
// Нарушение монотонности не фатально: вариант принимается, порядок появления
// сохраняется, а несоответствие только логируется.
func (b *block) addOption(letter rune, text string) {
	lower := letter | 0x20
	if expect := OptionLetter(len(b.options)); expect != '?' && lower != expect {
		logger.Debugf("Extract: non-monotonic option label %q, expected %q", string(letter), string(expect))
	}
	b.options = append(b.options, text)
}

// build финализирует накопленный блок в Question либо возвращает причину пропуска.
// seen используется для отбрасывания дубликатов по тексту вопроса.
func (b *block) build(blockNum int, seen map[string]struct{}) (Question, *Skip) {
	text := strings.TrimSpace(strings.Join(b.textParts, " "))

	switch {
	case len(b.options) < minOptions:
		return Question{}, &Skip{
			Block:  blockNum,
			Reason: fmt.Sprintf("found only %d option(s), need at least %d", len(b.options), minOptions),
		}
	case text == "":
		return Question{}, &Skip{Block: blockNum, Reason: "empty question text"}
	}

	if _, dup := seen[text]; dup {
		return Question{}, &Skip{Block: blockNum, Reason: "duplicate question"}
	}
	seen[text] = struct{}{}

	q := Question{
		Text:    text,
		Options: b.options,
		Correct: b.resolveAnswer(),
	}
	return q, nil
}

// resolveAnswer превращает сырое значение строки ответа в индекс варианта.
// Порядок: одиночная буква → позиционный индекс в алфавите; иначе свободный
// текст сравнивается с вариантами без учёта регистра, берётся первое точное
// совпадение. Ничего не подошло — NoAnswer.
func (b *block) resolveAnswer() int {
	if !b.hasAnswer || b.answerRaw == "" {
		return NoAnswer
	}
	raw := strings.TrimSpace(strings.Trim(b.answerRaw, "*_~"))

	if m := answerLetterRe.FindStringSubmatch(raw); m != nil {
		idx := int(m[1][0]|0x20) - 'a'
		if idx >= 0 && idx < len(b.options) {
			return idx
		}
		logger.Debugf("Extract: answer letter %q out of range for %d options", m[1], len(b.options))
	}

	needle := strings.ToLower(raw)
	for i, opt := range b.options {
		if strings.ToLower(strings.TrimSpace(opt)) == needle {
			return i
		}
	}
	return NoAnswer
}

