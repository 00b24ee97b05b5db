// Package bot hosts the Telegram dispatcher: it consumes updates, enforces
// the chat-id allow-list, routes commands and button presses to the cloud
// accessor, and reports outcomes back by editing the originating message.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/dwesh163/TeleStack/internal/audit"
	"github.com/dwesh163/TeleStack/internal/compute"
	"github.com/dwesh163/TeleStack/internal/metrics"
	"github.com/dwesh163/TeleStack/internal/render"
)

// Cloud is the slice of the compute accessor the bot consumes.
type Cloud interface {
	Machines(ctx context.Context) ([]compute.Machine, error)
	Machine(ctx context.Context, id string) (compute.Machine, error)
	Flavor(ctx context.Context, id string) (compute.Flavor, error)
	Start(ctx context.Context, id string) error
	Stop(ctx context.Context, id string) error
	SoftReboot(ctx context.Context, id string) error
	StartAll(ctx context.Context) (compute.BulkResult, error)
	StopAll(ctx context.Context) (compute.BulkResult, error)
}

// Sender is the slice of *tgbotapi.BotAPI the bot uses to talk back.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Auditor receives one event per control action. *audit.Publisher is the
// production implementation.
type Auditor interface {
	Record(ev audit.Event)
}

const (
	deniedText = "Access denied."
	errorText  = "An error occurred while processing your request."
	menuText   = "Choose an action:"
)

// Bot dispatches inbound Telegram updates. One update is handled to
// completion before the next; the only shared state is read-only wiring.
type Bot struct {
	sender Sender
	cloud  Cloud
	render *render.Engine
	audit  Auditor
	chats  map[int64]struct{}
	log    zerolog.Logger
}

// New wires a Bot. allowedChats is the static chat-id allow-list; every
// command and button press from a chat outside it is denied.
func New(sender Sender, cloud Cloud, engine *render.Engine, auditor Auditor, allowedChats []int64, log zerolog.Logger) *Bot {
	if auditor == nil {
		auditor = (*audit.Publisher)(nil)
	}
	chats := make(map[int64]struct{}, len(allowedChats))
	for _, id := range allowedChats {
		chats[id] = struct{}{}
	}
	return &Bot{
		sender: sender,
		cloud:  cloud,
		render: engine,
		audit:  auditor,
		chats:  chats,
		log:    log,
	}
}

// Run consumes the update channel until ctx is cancelled.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one inbound update. The chat-id gate comes first:
// a disallowed chat gets a denial and no cloud call is made.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) chatAllowed(id int64) bool {
	_, ok := b.chats[id]
	return ok
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	command := msg.Command()

	if !b.chatAllowed(chatID) {
		b.log.Warn().Int64("chat", chatID).Str("command", command).Msg("access denied")
		metrics.RecordAction("/"+command, "denied")
		b.audit.Record(audit.Event{Action: "/" + command, ChatID: chatID, Outcome: "denied"})
		b.send(tgbotapi.NewMessage(chatID, deniedText))
		return
	}

	switch command {
	case "start":
		reply := tgbotapi.NewMessage(chatID, menuText)
		reply.ReplyMarkup = mainKeyboard()
		b.send(reply)
		metrics.RecordAction("/start", "ok")
	case "help":
		text, err := b.render.Render("help.tmpl", nil)
		if err != nil {
			b.log.Error().Err(err).Msg("render help")
			b.send(tgbotapi.NewMessage(chatID, errorText))
			return
		}
		reply := tgbotapi.NewMessage(chatID, text)
		reply.ParseMode = tgbotapi.ModeHTML
		b.send(reply)
		metrics.RecordAction("/help", "ok")
	case "status":
		text, err := b.statusText(ctx)
		if err != nil {
			b.log.Error().Err(err).Msg("status command")
			metrics.RecordAction("/status", "error")
			b.send(tgbotapi.NewMessage(chatID, errorText))
			return
		}
		reply := tgbotapi.NewMessage(chatID, text)
		reply.ParseMode = tgbotapi.ModeHTML
		b.send(reply)
		metrics.RecordAction("/status", "ok")
	default:
		// Unknown commands are ignored, same as unmatched button actions.
		b.log.Debug().Str("command", command).Msg("ignoring unknown command")
	}
}

func (b *Bot) statusText(ctx context.Context) (string, error) {
	machines, err := b.cloud.Machines(ctx)
	if err != nil {
		return "", err
	}
	s := compute.Summarize(machines)
	metrics.SetMachineStates(s.Active, s.Shutoff, s.Other)
	return b.render.Render("status.tmpl", s)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.sender.Send(c); err != nil {
		b.log.Error().Err(err).Msg("telegram send")
	}
}
