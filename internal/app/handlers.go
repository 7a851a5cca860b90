package app

// В этом файле (handlers.go): маршрутизация входящих апдейтов и обработчики
// основных сценариев: файл с вопросами, пересланные квизы, кнопки клавиатур
// и inline-кнопки. Админские команды и контроль доступа — в admin.go.

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-quizbot/internal/adapters/botapi"
	"telegram-quizbot/internal/domain/quiz"
	"telegram-quizbot/internal/domain/users"
	"telegram-quizbot/internal/infra/logger"
	"telegram-quizbot/internal/infra/textextract"
)

const formatHint = "1. Question text?\n" +
	"a) First option\n" +
	"b) Second option\n" +
	"c) Third option\n" +
	"d) Fourth option\n" +
	"Answer: c) correct answer"

// handleUpdate разбирает апдейт и передаёт его профильному обработчику.
// Паника в обработчике гасится и уходит отчётом в лог-канал: один кривой
// апдейт не должен ронять цикл polling.
func (a *App) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			a.reportError(ctx, "handleUpdate", fmt.Errorf("panic: %v", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		a.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		a.handleMessage(ctx, update.Message)
	}
}

// handleMessage применяет контроль доступа и разводит сообщение по типу:
// команда, документ, опрос, текст кнопки.
func (a *App) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	if !a.allowAccess(msg) {
		a.reply(ctx, msg, "❌ You are not authorized to use this bot.")
		return
	}

	switch {
	case msg.IsCommand():
		a.handleCommand(ctx, msg)
	case msg.Document != nil:
		a.handleFile(ctx, msg)
	case msg.Poll != nil && msg.Poll.Type == "quiz":
		if forwarded(msg) {
			a.handleForwardedQuiz(ctx, msg)
		} else {
			a.handleDirectQuiz(ctx, msg)
		}
	case msg.Text != "":
		a.handleText(ctx, msg)
	}
}

// forwarded — сообщение переслано из другого чата.
func forwarded(msg *tgbotapi.Message) bool {
	return msg.ForwardDate != 0 || msg.ForwardFrom != nil || msg.ForwardFromChat != nil
}

func (a *App) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		a.handleStart(ctx, msg)
	case "help":
		a.sendHelp(ctx, msg)
	case "allow_user":
		a.handleAllowUser(ctx, msg)
	case "removeuser":
		a.handleRemoveUser(ctx, msg)
	case "listusers":
		a.handleListAllowed(ctx, msg)
	case "userlist":
		a.handleListAll(ctx, msg)
	case "myaccess":
		a.handleMyAccess(ctx, msg)
	default:
		a.reply(ctx, msg, "Unknown command. Use /help.")
	}
}

// handleStart регистрирует пользователя в хранилище и показывает главное меню.
func (a *App) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	u := users.User{
		ID:        msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
	}
	if err := a.store.Upsert(u); err != nil {
		logger.Errorf("Регистрация пользователя %d: %v", u.ID, err)
		a.reply(ctx, msg, "⚠️ Could not store your user info. Please try again later.")
	}

	a.sessions.setState(msg.From.ID, stateIdle)
	welcome := "👋 Welcome to the Quiz Bot!\n\n" +
		"This bot can:\n" +
		"1. Create quizzes from PDF or text files\n" +
		"2. Extract forwarded quizzes into text format\n\n" +
		"Use the keyboard below to control the bot."
	a.replyMarkup(ctx, msg, welcome, botapi.MainKeyboard(a.cfg.IsAdmin(msg.From.ID)))
}

func (a *App) sendHelp(ctx context.Context, msg *tgbotapi.Message) {
	help := "📚 Help:\n\n" +
		"For PDF/Text Files:\n" +
		"- Send a PDF or text file with questions\n" +
		"- Required format:\n" +
		formatHint + "\n\n" +
		"For Telegram Quizzes:\n" +
		"- Forward quizzes to me\n" +
		"- Press 'Finish Extraction' when done\n" +
		"- I'll send all quizzes in a single text message"
	a.replyMarkup(ctx, msg, help, botapi.MainKeyboard(a.cfg.IsAdmin(msg.From.ID)))
}

// handleText обрабатывает нажатия reply-кнопок.
func (a *App) handleText(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Text {
	case botapi.ButtonCreateQuiz:
		a.sessions.setState(msg.From.ID, stateWaitingForFile)
		a.reply(ctx, msg, "📤 Please send me a PDF or text file with questions.\n\n"+
			"The file should contain questions in this format:\n"+formatHint)
	case botapi.ButtonExtractQuizzes:
		a.sessions.setState(msg.From.ID, stateCollecting)
		a.collector.Begin(msg.From.ID)
		a.replyMarkup(ctx, msg, "📥 Please forward me Telegram quizzes.\n"+
			"I'll collect them until you press 'Finish Extraction'.", botapi.CollectKeyboard())
	case botapi.ButtonHelp:
		a.sendHelp(ctx, msg)
	case botapi.ButtonAdminPanel, botapi.ButtonListAllowed, botapi.ButtonListAll,
		botapi.ButtonAllowUser, botapi.ButtonRemoveUser, botapi.ButtonBackToMain:
		a.handleAdminText(ctx, msg)
	default:
		a.replyMarkup(ctx, msg, "Please use the keyboard buttons to interact with the bot.",
			botapi.MainKeyboard(a.cfg.IsAdmin(msg.From.ID)))
	}
}

// handleFile обрабатывает присланный документ: кулдаун, скачивание,
// извлечение текста и вопросов, рассылка квизами и отчёт.
func (a *App) handleFile(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	if a.sessions.state(userID) != stateWaitingForFile {
		return
	}

	if ok, wait := a.cooldown.Reserve(userID); !ok {
		a.reply(ctx, msg, fmt.Sprintf("⏳ Please wait %d seconds", int(wait.Seconds())))
		return
	}

	name := strings.ToLower(msg.Document.FileName)
	if !strings.HasSuffix(name, ".pdf") && !strings.HasSuffix(name, ".txt") {
		a.reply(ctx, msg, "❌ Please send only PDF or text files")
		return
	}

	statusID, statusErr := a.sender.SendStatus(ctx, msg.Chat.ID, "🔄 Processing file...")
	if statusErr == nil {
		defer a.sender.DeleteMessage(ctx, msg.Chat.ID, statusID)
	}

	path, err := a.sender.DownloadDocument(ctx, msg.Document, msg.Chat.ID)
	if err != nil {
		a.reportError(ctx, "handleFile", err)
		a.reply(ctx, msg, "❌ Error processing the file")
		return
	}
	defer os.Remove(path)

	text, err := a.extractText(path)
	if err != nil {
		logger.Warnf("Файл %q пользователя %d: %v", filepath.Base(name), userID, err)
		a.reply(ctx, msg, "❌ No text found in the file")
		return
	}

	questions, report := quiz.Extract(text)
	if len(questions) == 0 {
		a.reply(ctx, msg, "❌ No questions found\n\nMake sure the format is:\n"+formatHint)
		return
	}

	a.sessions.saveExtraction(userID, questions, report)

	start := a.sessions.quizStart(msg.Chat.ID)
	sendReport, next := a.sender.SendQuizzes(ctx, msg.Chat.ID, questions, start)
	a.sessions.setQuizStart(msg.Chat.ID, next)

	a.replyMarkup(ctx, msg, extractionSummary(len(questions), sendReport, report), botapi.ProcessingKeyboard())
	a.sessions.setState(userID, stateExtracting)
}

// extractText достаёт текст из файла и отвергает пустой результат.
func (a *App) extractText(path string) (string, error) {
	text, err := textextract.FromFile(path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("файл %q не содержит текста", filepath.Base(path))
	}
	return text, nil
}

// extractionSummary собирает отчёт об обработке файла для пользователя.
func extractionSummary(total int, sent botapi.SendReport, report quiz.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Successfully extracted %d questions\n", total)
	fmt.Fprintf(&b, "- Sent as quizzes: %d\n", sent.Sent)

	if sent.Failed > 0 {
		fmt.Fprintf(&b, "- Failed to send: %d\n", sent.Failed)
		if len(sent.FailedNumbers) > 0 {
			nums := make([]string, len(sent.FailedNumbers))
			for i, n := range sent.FailedNumbers {
				nums[i] = fmt.Sprintf("%d", n)
			}
			fmt.Fprintf(&b, "  Failed question numbers: %s\n", strings.Join(nums, ", "))
		}
	}

	if report.Unresolved > 0 {
		fmt.Fprintf(&b, "- Without a known answer: %d\n", report.Unresolved)
	}

	if n := report.SkipCount(); n > 0 {
		fmt.Fprintf(&b, "\n⚠️ Skipped %d questions due to format issues:\n", n)
		shown := report.Skipped
		if len(shown) > 5 {
			shown = shown[:5]
		}
		for _, skip := range shown {
			fmt.Fprintf(&b, "- %s\n", skip.Reason)
		}
		if rest := n - len(shown); rest > 0 {
			fmt.Fprintf(&b, "and %d more", rest)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// handleForwardedQuiz складывает пересланный квиз в сессию пользователя.
func (a *App) handleForwardedQuiz(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	if a.sessions.state(userID) != stateCollecting {
		return
	}

	// У пересланного квиза ответ виден только после закрытия опроса.
	q := pollToQuestion(msg.Poll, msg.Poll.IsClosed)
	count, ok := a.collector.Add(userID, q)
	if !ok {
		// Сессия истекла или не открывалась, начинаем новую.
		a.collector.Begin(userID)
		count, _ = a.collector.Add(userID, q)
	}

	a.replyMarkup(ctx, msg, fmt.Sprintf("📥 Quiz saved (%d)\nPress 'Finish Extraction' when done", count),
		botapi.CollectKeyboard())
}

// handleDirectQuiz конвертирует присланный напрямую квиз в текстовый формат.
// Для квиза, присланного в личный чат с ботом, correct_option_id доступен.
func (a *App) handleDirectQuiz(ctx context.Context, msg *tgbotapi.Message) {
	q := pollToQuestion(msg.Poll, true)
	a.reply(ctx, msg, "Extracted Quiz:\n\n"+quiz.Format(q))
}

// pollToQuestion переводит опрос Bot API в доменную модель вопроса.
// answerRevealed — раскрыл ли Telegram правильный вариант для этого опроса.
// Bot API отдаёт correct_option_id только для закрытых квизов и для квизов,
// присланных боту напрямую; в остальных случаях поле отсутствует и в структуре
// остаётся нулём, который нельзя отличить от честного «вариант a». Поэтому без
// answerRevealed вопрос остаётся без ответа.
func pollToQuestion(p *tgbotapi.Poll, answerRevealed bool) quiz.Question {
	options := make([]string, len(p.Options))
	for i, opt := range p.Options {
		options[i] = opt.Text
	}

	correct := quiz.NoAnswer
	if answerRevealed && p.Type == "quiz" && p.CorrectOptionID >= 0 && p.CorrectOptionID < len(options) {
		correct = p.CorrectOptionID
	}

	return quiz.Question{Text: p.Question, Options: options, Correct: correct}
}

// handleCallback обрабатывает inline-кнопки завершения и отмены.
func (a *App) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	userID := cb.From.ID
	chatID := cb.Message.Chat.ID

	switch cb.Data {
	case botapi.CallbackFinishExtraction:
		a.finishExtraction(ctx, cb, userID, chatID)
	case botapi.CallbackCancelExtraction:
		a.collector.Cancel(userID)
		a.sessions.setState(userID, stateIdle)
		a.sender.AnswerCallback(ctx, cb.ID, "Extraction cancelled")
		a.send(ctx, chatID, "❌ Quiz extraction cancelled", botapi.MainKeyboard(a.cfg.IsAdmin(userID)))
	case botapi.CallbackShowQuestions:
		a.showQuestions(ctx, cb, userID, chatID)
	case botapi.CallbackCancelProcessing:
		a.sessions.dropExtraction(userID)
		a.sessions.setState(userID, stateIdle)
		a.sender.AnswerCallback(ctx, cb.ID, "Processing cancelled")
		a.send(ctx, chatID, "❌ Processing cancelled", botapi.MainKeyboard(a.cfg.IsAdmin(userID)))
	}
}

// finishExtraction отдаёт собранную партию одним текстом (или файлом).
func (a *App) finishExtraction(ctx context.Context, cb *tgbotapi.CallbackQuery, userID, chatID int64) {
	batch, ok := a.collector.Take(userID)
	if !ok || len(batch) == 0 {
		a.sender.AnswerCallback(ctx, cb.ID, "")
		a.send(ctx, chatID, "❌ No quizzes saved", nil)
		return
	}

	a.sender.AnswerCallback(ctx, cb.ID, "Processing quizzes...")

	summary := fmt.Sprintf("✅ Extracted %d quizzes", len(batch))
	if err := a.sender.SendLongText(ctx, chatID, summary, quiz.FormatAll(batch), "extracted_quizzes.txt"); err != nil {
		a.reportError(ctx, "finishExtraction", err)
		a.send(ctx, chatID, "❌ Error creating the summary", nil)
		return
	}

	a.sessions.setState(userID, stateIdle)
}

// showQuestions показывает вопросы из последней обработки файла.
func (a *App) showQuestions(ctx context.Context, cb *tgbotapi.CallbackQuery, userID, chatID int64) {
	e, ok := a.sessions.lastExtraction(userID)
	if !ok {
		a.sender.AnswerCallback(ctx, cb.ID, "")
		a.send(ctx, chatID, "❌ No extracted questions available", nil)
		return
	}

	a.sender.AnswerCallback(ctx, cb.ID, "Showing extracted questions...")

	summary := fmt.Sprintf("📊 Showing %d extracted questions", len(e.questions))
	if n := e.report.SkipCount(); n > 0 {
		summary += fmt.Sprintf("\n⚠️ %d questions were skipped due to format issues", n)
	}

	if err := a.sender.SendLongText(ctx, chatID, summary, quiz.FormatAll(e.questions), "extracted_questions.txt"); err != nil {
		a.reportError(ctx, "showQuestions", err)
		a.send(ctx, chatID, "❌ Error showing extracted questions", nil)
	}
}

// reply отправляет текст в чат исходного сообщения.
func (a *App) reply(ctx context.Context, msg *tgbotapi.Message, text string) {
	a.send(ctx, msg.Chat.ID, text, nil)
}

func (a *App) replyMarkup(ctx context.Context, msg *tgbotapi.Message, text string, markup interface{}) {
	a.send(ctx, msg.Chat.ID, text, markup)
}

func (a *App) send(ctx context.Context, chatID int64, text string, markup interface{}) {
	if err := a.sender.SendText(ctx, chatID, text, markup); err != nil {
		logger.Errorf("Отправка в чат %d: %v", chatID, err)
	}
}
