package botapi

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

const (
	cbParseChat    = "menu_parse_chat"
	cbParseUser    = "menu_parse_user"
	cbJoinChat     = "menu_join_chat"
	cbAddFilter    = "menu_add_filter"
	cbListFilters  = "menu_list_filters"
	cbClearFilters = "menu_clear_filters"
	cbCancel       = "menu_cancel"
)

func mainMenu() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚀 Спарсить группу", cbParseChat),
			tgbotapi.NewInlineKeyboardButtonData("👤 Проверить юзера", cbParseUser),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚪 Зайти в чат", cbJoinChat),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Добавить фильтр", cbAddFilter),
			tgbotapi.NewInlineKeyboardButtonData("📋 Мои фильтры", cbListFilters),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Очистить фильтры", cbClearFilters),
		),
	)
	return &kb
}

func cancelMenu() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", cbCancel),
		),
	)
	return &kb
}
