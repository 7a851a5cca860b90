// Package botapi — адаптер Telegram Bot API для квиз-бота.
//
// В этом файле (sender.go):
//   - общий троттлер исходящих запросов (token bucket);
//   - отправка вопросов квиз-опросами со сквозной нумерацией;
//   - классификация ошибок Bot API: retry_after уважается ожиданием и одним
//     повтором, остальные ошибки фиксируются как неудача по вопросу;
//   - доставка длинного текста: до лимита сообщения обычным сообщением,
//     сверх лимита — текстовым файлом-документом.
package botapi

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"telegram-quizbot/internal/domain/quiz"
	"telegram-quizbot/internal/infra/logger"
	"telegram-quizbot/internal/infra/storage"
)

// Лимиты Bot API на опросы и сообщения.
const (
	maxPollQuestionLen = 300
	maxPollOptionLen   = 100
	maxPollOptions     = 10
	maxMessageLen      = 4000
)

// Sender инкапсулирует исходящий трафик бота: все запросы проходят через
// общий троттлер, чтобы не упираться в флуд-лимиты Telegram.
type Sender struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter
	tempDir string
}

// SendReport — итог рассылки партии вопросов.
type SendReport struct {
	Sent   int
	Failed int
	// FailedNumbers — порядковые номера вопросов, которые не удалось отправить.
	FailedNumbers []int
}

// NewSender создаёт отправителя. rps задаёт среднюю частоту запросов,
// tempDir — каталог для временных файлов при документной доставке.
func NewSender(api *tgbotapi.BotAPI, rps int, tempDir string) *Sender {
	if rps <= 0 {
		rps = 1
	}
	return &Sender{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		tempDir: tempDir,
	}
}

// SendQuizzes отправляет вопросы квиз-опросами в чат chatID.
// Нумерация сквозная: первый вопрос получает номер startNum, прежняя
// нумерация в тексте вопроса срезается. Вопрос без известного ответа
// уходит обычным опросом без правильного варианта. Возвращает отчёт и
// номер для следующей партии.
func (s *Sender) SendQuizzes(ctx context.Context, chatID int64, questions []quiz.Question, startNum int) (SendReport, int) {
	var report SendReport

	num := startNum
	if num < 1 {
		num = 1
	}

	for i, q := range questions {
		if err := s.sendPoll(ctx, chatID, q, num); err != nil {
			logger.Errorf("botapi: вопрос %d не отправлен: %v", i+1, err)
			report.Failed++
			report.FailedNumbers = append(report.FailedNumbers, i+1)
			continue
		}
		report.Sent++
		num++
	}

	return report, num
}

// sendPoll отправляет один вопрос опросом с учётом троттлера и retry_after.
func (s *Sender) sendPoll(ctx context.Context, chatID int64, q quiz.Question, num int) error {
	if !fitsPoll(q) {
		return errors.New("вопрос не укладывается в лимиты опроса Bot API")
	}

	poll := tgbotapi.NewPoll(chatID, quiz.RenumberText(q.Text, num), q.Options...)
	poll.IsAnonymous = true
	if q.HasAnswer() {
		poll.Type = "quiz"
		poll.CorrectOptionID = int64(q.Correct)
	}

	return s.send(ctx, poll)
}

// SendText отправляет текст сообщением, при необходимости с клавиатурой.
// markup может быть nil.
func (s *Sender) SendText(ctx context.Context, chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	return s.send(ctx, msg)
}

// SendStatus отправляет служебное сообщение и возвращает его id, чтобы
// вызывающий мог удалить его после завершения операции.
func (s *Sender) SendStatus(ctx context.Context, chatID int64, text string) (int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	sent, err := s.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// SendLongText доставляет текст с заголовком caption. Если суммарная длина
// укладывается в лимит сообщения — одним сообщением, иначе текст уходит
// документом <name> с caption в подписи.
func (s *Sender) SendLongText(ctx context.Context, chatID int64, caption, text, name string) error {
	if len(caption)+len(text)+2 <= maxMessageLen {
		body := text
		if caption != "" {
			body = caption + "\n\n" + text
		}
		return s.SendText(ctx, chatID, body, nil)
	}

	path := filepath.Join(s.tempDir, name)
	if err := storage.AtomicWriteFile(path, []byte(text)); err != nil {
		// Файл не записался — шлём кусками, чтобы не терять результат.
		return s.sendInParts(ctx, chatID, caption, text)
	}
	defer os.Remove(path)

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	return s.send(ctx, doc)
}

// sendInParts — запасной путь доставки длинного текста кусками по лимиту.
func (s *Sender) sendInParts(ctx context.Context, chatID int64, caption, text string) error {
	if caption != "" {
		if err := s.SendText(ctx, chatID, caption, nil); err != nil {
			return err
		}
	}
	for _, part := range splitMessage(text) {
		if err := s.SendText(ctx, chatID, part, nil); err != nil {
			return err
		}
	}
	return nil
}

// splitMessage режет текст на куски не длиннее maxMessageLen байт, не разрывая
// multibyte-руны: Telegram отвергает сообщения с битым UTF-8.
func splitMessage(text string) []string {
	var parts []string
	for len(text) > 0 {
		part := text
		if len(part) > maxMessageLen {
			cut := maxMessageLen
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxMessageLen
			}
			part = text[:cut]
		}
		parts = append(parts, part)
		text = text[len(part):]
	}
	return parts
}

// AnswerCallback подтверждает нажатие inline-кнопки.
func (s *Sender) AnswerCallback(ctx context.Context, callbackID, text string) {
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := s.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		logger.Warnf("botapi: ответ на callback не доставлен: %v", err)
	}
}

// DeleteMessage удаляет сообщение, ошибки только логирует: удаление
// служебных сообщений не критично для сценария.
func (s *Sender) DeleteMessage(ctx context.Context, chatID int64, messageID int) {
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := s.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		logger.Warnf("botapi: сообщение %d не удалено: %v", messageID, err)
	}
}

// send выполняет запрос под троттлером. Один повтор после retry_after,
// остальные ошибки возвращаются вызывающему.
func (s *Sender) send(ctx context.Context, c tgbotapi.Chattable) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := s.api.Send(c)
	if err == nil {
		return nil
	}

	wait := retryAfter(err)
	if wait <= 0 {
		return err
	}

	logger.Warnf("botapi: флуд-лимит, пауза %s", wait)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
	}

	_, err = s.api.Send(c)
	return err
}

// retryAfter извлекает retry_after из ошибки Bot API. 0 — повтор не нужен.
func retryAfter(err error) time.Duration {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return 0
}

// fitsPoll проверяет вопрос против лимитов опросов Bot API.
func fitsPoll(q quiz.Question) bool {
	if len([]rune(q.Text)) > maxPollQuestionLen {
		return false
	}
	if len(q.Options) < 2 || len(q.Options) > maxPollOptions {
		return false
	}
	for _, opt := range q.Options {
		if opt == "" || len([]rune(opt)) > maxPollOptionLen {
			return false
		}
	}
	return true
}
