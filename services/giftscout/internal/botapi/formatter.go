package botapi

import (
	"fmt"
	"strings"

	"github.com/faringet/telegram-gift-scraper/services/giftscout/internal/crawler"
)

const (
	messageLimit = 4000
	separator    = "------------------------------"

	textNoAccess   = "У вас нет доступа к этому боту."
	textWelcome    = "👋 Главное меню бота\n\nЯ ищу людей с неулучшенными подарками в чатах.\nВыберите нужное действие снизу:"
	textMenu       = "Главное меню:"
	textCanceled   = "Действие отменено."
	textBusy       = "⏳ Уже выполняется задача. Дождитесь результата или нажмите /cancel."
	textStopping   = "⏹ Останавливаю текущую задачу..."
	textUnknownCmd = "Неизвестная команда. Список действий: /menu"

	promptChat   = "Введи @username чата (или его ID, например -100XXXX):\n⚠️ Внимание! Парсер УЖЕ должен состоять в этом чате."
	promptUser   = "Отправьте мне ID пользователя или его @username:"
	promptJoin   = "Отправьте мне ссылку на чат (например: t.me/chat или @username):"
	promptFilter = "Напишите точное или частичное название подарка для фильтра (например Пасхальный):"

	textNoUserGifts = "❌ У пользователя не найдено (подходящих) подарков или профиль скрыт."
	textNoChatUsers = "❌ В чате не найдено пользователей с подходящими подарками, либо список скрыт."
	textFiltersNone = "ℹ️ Фильтры не установлены. Парсятся все подарки."
	textFiltersGone = "✅ Фильтры очищены. Теперь парсим ВСЕ неулучшенные подарки."
)

// crawlBlock: блок выдачи обхода с разделителем.
func crawlBlock(report string) string {
	return report + "\n" + separator + "\n"
}

func crawlBlocks(reports []string) []string {
	out := make([]string, 0, len(reports))
	for _, r := range reports {
		out = append(out, crawlBlock(r))
	}
	return out
}

func userResult(report string) string {
	return truncateRunes("Результат:\n\n"+report, messageLimit)
}

func filtersText(filters []string) string {
	if len(filters) == 0 {
		return textFiltersNone
	}
	var b strings.Builder
	b.WriteString("📋 Текущие фильтры:\n\n")
	for i, f := range filters {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("• " + f)
	}
	return b.String()
}

func filterAdded(name string, filters []string) string {
	return fmt.Sprintf("✅ Фильтр %s добавлен!\nТекущие фильтры: %s", name, strings.Join(filters, ", "))
}

// crawlSummary: итоговая строка обхода, по статусу.
func crawlSummary(res crawler.Result) string {
	counts := fmt.Sprintf("Найдено пользователей: %d (проверено: %d, сообщений: %d).", res.Found(), res.Examined, res.Scanned)
	switch res.Status {
	case crawler.StatusCompleted:
		return "✅ Парсинг завершен. " + counts
	case crawler.StatusAborted:
		return "🚨 Парсинг прерван: аккаунт-парсер заблокирован или заморожен. " + counts
	case crawler.StatusCanceled:
		return "⏹ Парсинг остановлен. " + counts
	default:
		return fmt.Sprintf("❌ Ошибка доступа к чату: %v\n%s", res.Err, counts)
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
