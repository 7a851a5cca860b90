package botapi

// В этом файле (keyboards.go): клавиатуры бота. Reply-клавиатуры управляют
// основными сценариями, inline-кнопки завершают или отменяют текущий сбор.

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Тексты кнопок reply-клавиатур. Обработчики сообщений сверяют входящий
// текст с этими константами.
const (
	ButtonCreateQuiz     = "📝 Create Quiz"
	ButtonExtractQuizzes = "📥 Extract Quizzes from Forwards"
	ButtonHelp           = "❓ Help"
	ButtonAdminPanel     = "👑 Admin Panel"

	ButtonListAllowed = "📋 List Allowed Users"
	ButtonListAll     = "👥 List All Users"
	ButtonAllowUser   = "✅ Allow User"
	ButtonRemoveUser  = "❌ Remove User"
	ButtonBackToMain  = "⬅️ Back to Main Menu"
)

// Данные inline-кнопок (callback_data).
const (
	CallbackFinishExtraction = "finish_extraction"
	CallbackCancelExtraction = "cancel_extraction"
	CallbackShowQuestions    = "show_questions"
	CallbackCancelProcessing = "cancel_processing"
)

// MainKeyboard — основная клавиатура. Администратору добавляется кнопка
// админ-панели.
func MainKeyboard(isAdmin bool) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonCreateQuiz)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonExtractQuizzes)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonHelp)),
	}
	if isAdmin {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonAdminPanel)))
	}

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

// AdminKeyboard — клавиатура админ-панели.
func AdminKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonListAllowed),
			tgbotapi.NewKeyboardButton(ButtonListAll),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonAllowUser),
			tgbotapi.NewKeyboardButton(ButtonRemoveUser),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(ButtonBackToMain)),
	)
	kb.ResizeKeyboard = true
	return kb
}

// CollectKeyboard — inline-кнопки режима сбора пересланных квизов.
func CollectKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Finish Extraction", CallbackFinishExtraction),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", CallbackCancelExtraction),
		),
	)
}

// ProcessingKeyboard — inline-кнопки после обработки файла.
func ProcessingKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Show Extracted Questions", CallbackShowQuestions),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", CallbackCancelProcessing),
		),
	)
}
