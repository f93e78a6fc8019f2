package bot

import (
	"fmt"

	"github.com/m3rciful/lessonbot/core/telegram/format"
)

// Button is a transport-neutral inline button.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Reply is what the transport sends back. An empty Text means nothing is sent.
// Edit asks to replace the message the button was attached to.
type Reply struct {
	Text    string
	Buttons [][]Button
	Edit    bool
}

const (
	textGreetAdmin    = "<code>Вітаю, адміністраторе - %s!</code>"
	textGreetBack     = "Вітаю знову! Твій клас: %s"
	textChooseClass   = "Привіт! Оберіть свій клас:"
	textChooseFirst   = "Спочатку оберіть свій клас:"
	textChangeClass   = "Оберіть свій клас:"
	textClassSet      = "✅ Твій клас встановлено: %s"
	textUnknownClass  = "Такого класу немає. Оберіть свій клас:"
	textMenu          = "Головне меню:"
	textUnknown       = "Скористайтеся меню або командою /start."
	textUnknownAction = "Ця кнопка застаріла. Надішліть /start."
	textUnavailable   = "⚠️ Не вдалося отримати дані. Спробуйте ще раз пізніше."
	textAdminOnly     = "⛔ Ця дія доступна лише адміністраторам."
	textUploadMenu    = "📃 Для якого класу завантажити розклад?"
	textSendAll       = "📎 Надішліть JSON-файл з розкладом для всіх класів:\n<code>{\"7\": {\"Понеділок\": [\"Алгебра\", \"Історія\"]}}</code>"
	textSendClass     = "📎 Надішліть JSON-файл з розкладом для %s класу:\n<code>{\"Понеділок\": [\"Алгебра\", \"Історія\"]}</code>"
	textSendBells     = "📎 Надішліть JSON-файл з розкладом дзвінків:\n<code>{\"1\": \"08:00-08:45\", \"2\": \"08:55-09:40\"}</code>"
	textCancelled     = "Завантаження скасовано."
	textNoPending     = "ℹ️ Зараз не очікується жодного файлу. Оберіть, що оновити, у меню."
	textRejected      = "❌ Файл не прийнято: %s\nДані не змінено."
	textFetchFailed   = "⚠️ Не вдалося завантажити файл. Спробуйте ще раз."
	textSavedAll      = "✅ Розклад оновлено для класів: %s"
	textSavedClass    = "✅ Розклад для %s класу оновлено."
	textSavedBells    = "✅ Розклад дзвінків оновлено (%d уроків)."
	labelToday        = "📅 Розклад на сьогодні"
	labelWeek         = "🗓 Розклад на тиждень"
	labelBells        = "⏰ Дзвінки"
	labelChangeClass  = "⚙️ Змінити клас"
	labelUpload       = "📃 Внести зміни в розклад"
	labelUpdateBells  = "🔔 Змінити розклад дзвінків"
	labelUploadAll    = "📚 Для всіх класів"
	labelUploadClass  = "%s клас"
	labelCancelUpload = "❌ Скасувати"
)

func mainMenu(admin bool) [][]Button {
	rows := [][]Button{
		{{Text: labelToday, Unique: cbToday}},
		{{Text: labelWeek, Unique: cbWeek}},
		{{Text: labelBells, Unique: cbBells}},
		{{Text: labelChangeClass, Unique: cbChangeClass}},
	}
	if admin {
		rows = append(rows,
			[]Button{{Text: labelUpload, Unique: cbUpload}},
			[]Button{{Text: labelUpdateBells, Unique: cbUpdateBells}},
		)
	}
	return rows
}

func classMenu(classes []string) [][]Button {
	rows := make([][]Button, 0, len(classes))
	for _, c := range classes {
		rows = append(rows, []Button{{Text: c, Unique: cbClass, Data: c}})
	}
	return rows
}

func uploadMenu(classes []string) [][]Button {
	rows := make([][]Button, 0, len(classes)+2)
	rows = append(rows, []Button{{Text: labelUploadAll, Unique: cbUploadAll}})
	for _, c := range classes {
		rows = append(rows, []Button{{Text: fmt.Sprintf(labelUploadClass, c), Unique: cbUploadClass, Data: c}})
	}
	return append(rows, cancelRow())
}

func cancelRow() []Button {
	return []Button{{Text: labelCancelUpload, Unique: cbCancel}}
}

func escapef(layout string, args ...string) string {
	vals := make([]any, len(args))
	for i, a := range args {
		vals[i] = format.Escape(a)
	}
	return fmt.Sprintf(layout, vals...)
}
