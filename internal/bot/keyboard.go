package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dwesh163/TeleStack/internal/compute"
)

func mainKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Start All", actionStartAll),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Stop All", actionStopAll),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("View Machines", actionViewMachines),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("System Status", actionSystemStatus),
		),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Back", actionBackToMain),
		),
	)
}

// machinesKeyboard renders one button per machine, glyph first, plus a back
// row.
func machinesKeyboard(machines []compute.Machine) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(machines)+1)
	for _, m := range machines {
		label := m.State().Glyph() + " " + m.Name
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, prefixDetails+m.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Back", actionBackToMain),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func detailKeyboard(id string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Start", prefixStart+id),
			tgbotapi.NewInlineKeyboardButtonData("Stop", prefixStop+id),
			tgbotapi.NewInlineKeyboardButtonData("Reboot", prefixReboot+id),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Machines", actionViewMachines),
			tgbotapi.NewInlineKeyboardButtonData("« Menu", actionBackToMain),
		),
	)
}
