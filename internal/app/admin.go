package app

// В этом файле (admin.go): контроль доступа и административные команды.
// Администраторы перечислены в конфигурации, остальные пользователи
// проходят по списку допущенных в хранилище. /start и /help открыты всем,
// чтобы любой мог зарегистрироваться и узнать о боте.

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-quizbot/internal/adapters/botapi"
	"telegram-quizbot/internal/infra/logger"
)

// openCommands — команды, доступные без допуска. Админские команды тоже
// проходят гейт свободно: внутри каждой стоит собственная проверка прав.
var openCommands = map[string]struct{}{
	"start":      {},
	"help":       {},
	"myaccess":   {},
	"allow_user": {},
	"removeuser": {},
	"listusers":  {},
}

// allowAccess решает, обрабатывать ли сообщение пользователя.
func (a *App) allowAccess(msg *tgbotapi.Message) bool {
	if msg.IsCommand() {
		if _, ok := openCommands[msg.Command()]; ok {
			return true
		}
	}

	userID := msg.From.ID
	if a.cfg.IsAdmin(userID) {
		return true
	}

	allowed, err := a.store.IsAllowed(userID)
	if err != nil {
		logger.Errorf("Проверка допуска %d: %v", userID, err)
		return false
	}
	return allowed
}

// handleAllowUser — /allow_user <user_id>: переводит зарегистрированного
// пользователя в список допущенных.
func (a *App) handleAllowUser(ctx context.Context, msg *tgbotapi.Message) {
	if !a.cfg.IsAdmin(msg.From.ID) {
		a.reply(ctx, msg, "You are not authorized to allow users.")
		return
	}

	userID, ok := parseUserIDArg(msg.CommandArguments())
	if !ok {
		a.reply(ctx, msg, "Usage: /allow_user <user_id>")
		return
	}

	u, found, err := a.store.Get(userID)
	if err != nil {
		a.reportError(ctx, "handleAllowUser", err)
		a.reply(ctx, msg, "Failed to add user to allowed users.")
		return
	}
	if !found {
		a.reply(ctx, msg, fmt.Sprintf("User %d is not in the users list. They must send /start first.", userID))
		return
	}

	if err := a.store.Allow(u); err != nil {
		a.reportError(ctx, "handleAllowUser", err)
		a.reply(ctx, msg, "Failed to add user to allowed users.")
		return
	}
	a.reply(ctx, msg, fmt.Sprintf("User %d (%s) promoted to allowed users.", userID, u.FirstName))
}

// handleRemoveUser — /removeuser <user_id>: убирает пользователя из допущенных.
func (a *App) handleRemoveUser(ctx context.Context, msg *tgbotapi.Message) {
	if !a.cfg.IsAdmin(msg.From.ID) {
		a.reply(ctx, msg, "You are not authorized to remove users.")
		return
	}

	userID, ok := parseUserIDArg(msg.CommandArguments())
	if !ok {
		a.reply(ctx, msg, "Usage: /removeuser <user_id>")
		return
	}

	removed, err := a.store.Disallow(userID)
	if err != nil {
		a.reportError(ctx, "handleRemoveUser", err)
		a.reply(ctx, msg, "Failed to remove user.")
		return
	}
	if !removed {
		a.reply(ctx, msg, "Failed to remove user.")
		return
	}
	a.reply(ctx, msg, fmt.Sprintf("User %d removed.", userID))
}

// handleListAllowed — /listusers: список допущенных пользователей.
func (a *App) handleListAllowed(ctx context.Context, msg *tgbotapi.Message) {
	if !a.cfg.IsAdmin(msg.From.ID) {
		a.reply(ctx, msg, "You are not authorized to list users.")
		return
	}

	list, err := a.store.ListAllowed()
	if err != nil {
		a.reportError(ctx, "handleListAllowed", err)
		return
	}
	if len(list) == 0 {
		a.reply(ctx, msg, "No allowed users found.")
		return
	}

	var b strings.Builder
	b.WriteString("Allowed users:\n")
	for _, u := range list {
		fmt.Fprintf(&b, "User: %s\nUser ID: %d\n", orNA(u.Username), u.ID)
	}
	a.reply(ctx, msg, strings.TrimRight(b.String(), "\n"))
}

// handleListAll — /userlist: все зарегистрированные пользователи.
func (a *App) handleListAll(ctx context.Context, msg *tgbotapi.Message) {
	if !a.cfg.IsAdmin(msg.From.ID) {
		a.reply(ctx, msg, "You are not authorized to list all users.")
		return
	}

	list, err := a.store.List()
	if err != nil {
		a.reportError(ctx, "handleListAll", err)
		return
	}
	if len(list) == 0 {
		a.reply(ctx, msg, "No users found.")
		return
	}

	var b strings.Builder
	b.WriteString("All registered users:\n")
	for _, u := range list {
		fmt.Fprintf(&b, "User: %s\nUser ID: %d\nName: %s\nDate Joined: %s\n",
			orNA(u.Username), u.ID, orNA(u.FirstName), u.JoinedAt.Format("2006-01-02 15:04:05"))
	}
	a.reply(ctx, msg, strings.TrimRight(b.String(), "\n"))
}

// handleMyAccess — /myaccess: сообщает пользователю его статус.
func (a *App) handleMyAccess(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	if a.cfg.IsAdmin(userID) {
		a.reply(ctx, msg, "✅ You are the bot admin and have full access.")
		return
	}

	allowed, err := a.store.IsAllowed(userID)
	if err != nil {
		a.reportError(ctx, "handleMyAccess", err)
		return
	}
	if allowed {
		a.reply(ctx, msg, "✅ You are allowed to use this bot.")
	} else {
		a.reply(ctx, msg, "❌ You are NOT allowed to use this bot.")
	}
}

// handleAdminText обрабатывает кнопки админ-панели.
func (a *App) handleAdminText(ctx context.Context, msg *tgbotapi.Message) {
	if !a.cfg.IsAdmin(msg.From.ID) {
		return
	}

	switch msg.Text {
	case botapi.ButtonAdminPanel:
		a.replyMarkup(ctx, msg, "👑 Admin panel", botapi.AdminKeyboard())
	case botapi.ButtonListAllowed:
		a.handleListAllowed(ctx, msg)
	case botapi.ButtonListAll:
		a.handleListAll(ctx, msg)
	case botapi.ButtonAllowUser:
		a.reply(ctx, msg, "Please use the command: /allow_user <user_id>")
	case botapi.ButtonRemoveUser:
		a.reply(ctx, msg, "Please use the command: /removeuser <user_id>")
	case botapi.ButtonBackToMain:
		a.sessions.setState(msg.From.ID, stateIdle)
		a.replyMarkup(ctx, msg, "Returning to the main menu.", botapi.MainKeyboard(true))
	}
}

// parseUserIDArg разбирает аргумент команды как идентификатор пользователя.
func parseUserIDArg(args string) (int64, bool) {
	args = strings.TrimSpace(args)
	if args == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
