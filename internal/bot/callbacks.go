package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dwesh163/TeleStack/internal/audit"
	"github.com/dwesh163/TeleStack/internal/compute"
	"github.com/dwesh163/TeleStack/internal/metrics"
)

// Button action identifiers. Exact ids are matched before prefixes so
// start_all never routes as a per-machine start.
const (
	actionStartAll     = "start_all"
	actionStopAll      = "stop_all"
	actionViewMachines = "view_machines"
	actionSystemStatus = "system_status"
	actionBackToMain   = "back_to_main"

	prefixDetails = "details_"
	prefixStart   = "start_"
	prefixStop    = "stop_"
	prefixReboot  = "reboot_"
)

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	// Answer first so the button stops spinning, then act, then report by
	// editing the originating message.
	if _, err := b.sender.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.log.Error().Err(err).Msg("answer callback")
	}

	if q.Message == nil {
		b.log.Debug().Str("action", q.Data).Msg("callback without message, ignoring")
		return
	}
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID

	if !b.chatAllowed(chatID) {
		b.log.Warn().Int64("chat", chatID).Str("action", q.Data).Msg("access denied")
		metrics.RecordAction(q.Data, "denied")
		b.audit.Record(audit.Event{Action: q.Data, ChatID: chatID, Outcome: "denied"})
		b.send(tgbotapi.NewEditMessageText(chatID, messageID, deniedText))
		return
	}

	switch q.Data {
	case actionStartAll:
		b.handleStartAll(ctx, chatID, messageID)
	case actionStopAll:
		b.handleStopAll(ctx, chatID, messageID)
	case actionViewMachines:
		b.handleViewMachines(ctx, chatID, messageID)
	case actionSystemStatus:
		b.handleSystemStatus(ctx, chatID, messageID)
	case actionBackToMain:
		b.edit(chatID, messageID, menuText, mainKeyboard())
	default:
		switch {
		case strings.HasPrefix(q.Data, prefixDetails):
			b.handleDetails(ctx, chatID, messageID, strings.TrimPrefix(q.Data, prefixDetails))
		case strings.HasPrefix(q.Data, prefixStart):
			b.handleAction(ctx, chatID, messageID, "start", strings.TrimPrefix(q.Data, prefixStart))
		case strings.HasPrefix(q.Data, prefixStop):
			b.handleAction(ctx, chatID, messageID, "stop", strings.TrimPrefix(q.Data, prefixStop))
		case strings.HasPrefix(q.Data, prefixReboot):
			b.handleAction(ctx, chatID, messageID, "reboot", strings.TrimPrefix(q.Data, prefixReboot))
		default:
			// Unmatched identifiers are a silent no-op.
			b.log.Debug().Str("action", q.Data).Msg("ignoring unknown action")
		}
	}
}

func (b *Bot) handleStartAll(ctx context.Context, chatID int64, messageID int) {
	res, err := b.cloud.StartAll(ctx)
	if err != nil {
		b.fail(chatID, messageID, actionStartAll, err)
		return
	}
	metrics.RecordAction(actionStartAll, "ok")
	b.audit.Record(audit.Event{Action: actionStartAll, ChatID: chatID, Outcome: bulkOutcome(res)})

	text := fmt.Sprintf("Started %d machine(s) (%d already running).", res.Acted, res.Skipped)
	if res.Failed > 0 {
		text = fmt.Sprintf("Started %d machine(s) (%d already running, %d failed).", res.Acted, res.Skipped, res.Failed)
	}
	b.edit(chatID, messageID, text, backKeyboard())
}

func (b *Bot) handleStopAll(ctx context.Context, chatID int64, messageID int) {
	res, err := b.cloud.StopAll(ctx)
	if err != nil {
		b.fail(chatID, messageID, actionStopAll, err)
		return
	}
	metrics.RecordAction(actionStopAll, "ok")
	b.audit.Record(audit.Event{Action: actionStopAll, ChatID: chatID, Outcome: bulkOutcome(res)})

	text := fmt.Sprintf("Stopped %d machine(s) (%d already stopped).", res.Acted, res.Skipped)
	if res.Failed > 0 {
		text = fmt.Sprintf("Stopped %d machine(s) (%d already stopped, %d failed).", res.Acted, res.Skipped, res.Failed)
	}
	b.edit(chatID, messageID, text, backKeyboard())
}

func (b *Bot) handleViewMachines(ctx context.Context, chatID int64, messageID int) {
	machines, err := b.cloud.Machines(ctx)
	if err != nil {
		b.fail(chatID, messageID, actionViewMachines, err)
		return
	}
	s := compute.Summarize(machines)
	metrics.SetMachineStates(s.Active, s.Shutoff, s.Other)
	metrics.RecordAction(actionViewMachines, "ok")

	if len(machines) == 0 {
		b.edit(chatID, messageID, "No machines available.", backKeyboard())
		return
	}
	b.edit(chatID, messageID, "Select a machine:", machinesKeyboard(machines))
}

func (b *Bot) handleSystemStatus(ctx context.Context, chatID int64, messageID int) {
	text, err := b.statusText(ctx)
	if err != nil {
		b.fail(chatID, messageID, actionSystemStatus, err)
		return
	}
	metrics.RecordAction(actionSystemStatus, "ok")
	b.editHTML(chatID, messageID, text, backKeyboard())
}

func (b *Bot) handleDetails(ctx context.Context, chatID int64, messageID int, id string) {
	m, err := b.cloud.Machine(ctx, id)
	if err != nil {
		b.fail(chatID, messageID, "details", err)
		return
	}

	data := map[string]any{
		"Name":      m.Name,
		"Glyph":     m.State().Glyph(),
		"Status":    m.Status,
		"HasFlavor": false,
	}
	if m.FlavorID != "" {
		// Flavor lookup is best-effort; the detail view degrades to the
		// status line when it fails.
		if f, err := b.cloud.Flavor(ctx, m.FlavorID); err == nil {
			data["HasFlavor"] = true
			data["FlavorName"] = f.Name
			data["VCPUs"] = f.VCPUs
			data["RAM"] = f.RAM
			data["Disk"] = f.Disk
		} else {
			b.log.Warn().Err(err).Str("flavor", m.FlavorID).Msg("flavor lookup failed")
		}
	}

	text, err := b.render.Render("detail.tmpl", data)
	if err != nil {
		b.fail(chatID, messageID, "details", err)
		return
	}
	metrics.RecordAction("details", "ok")
	b.editHTML(chatID, messageID, text, detailKeyboard(m.ID))
}

func (b *Bot) handleAction(ctx context.Context, chatID int64, messageID int, action, id string) {
	var err error
	var done string
	switch action {
	case "start":
		err = b.cloud.Start(ctx, id)
		done = "Machine started."
	case "stop":
		err = b.cloud.Stop(ctx, id)
		done = "Machine stopped."
	case "reboot":
		err = b.cloud.SoftReboot(ctx, id)
		done = "Machine rebooted."
	}
	if err != nil {
		metrics.RecordAction(action, outcomeOf(err))
		b.audit.Record(audit.Event{Action: action, ChatID: chatID, MachineID: id, Outcome: outcomeOf(err)})
		if errors.Is(err, compute.ErrNotAllowed) {
			b.edit(chatID, messageID, deniedText, backKeyboard())
			return
		}
		b.log.Error().Err(err).Str("action", action).Str("machine", id).Msg("machine action failed")
		b.edit(chatID, messageID, errorText, backKeyboard())
		return
	}

	metrics.RecordAction(action, "ok")
	b.audit.Record(audit.Event{Action: action, ChatID: chatID, MachineID: id, Outcome: "ok"})
	b.edit(chatID, messageID, done, detailKeyboard(id))
}

func (b *Bot) fail(chatID int64, messageID int, action string, err error) {
	outcome := outcomeOf(err)
	metrics.RecordAction(action, outcome)
	b.audit.Record(audit.Event{Action: action, ChatID: chatID, Outcome: outcome})
	if errors.Is(err, compute.ErrNotAllowed) {
		b.edit(chatID, messageID, deniedText, backKeyboard())
		return
	}
	b.log.Error().Err(err).Str("action", action).Msg("action failed")
	b.edit(chatID, messageID, errorText, backKeyboard())
}

func (b *Bot) edit(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb))
}

func (b *Bot) editHTML(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb)
	edit.ParseMode = tgbotapi.ModeHTML
	b.send(edit)
}

func outcomeOf(err error) string {
	if errors.Is(err, compute.ErrNotAllowed) {
		return "denied"
	}
	return "error"
}

func bulkOutcome(res compute.BulkResult) string {
	if res.Failed > 0 {
		return "partial"
	}
	return "ok"
}
