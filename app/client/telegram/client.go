package telegram

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net"
	"time"

	"kuliahbot/app/config"
	"kuliahbot/app/model"
	"kuliahbot/app/service/identity"
	"kuliahbot/app/service/queue"
	"kuliahbot/app/service/render"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const maxNotifyAttempts = 2

type Client struct {
	cfg      *config.Config
	bot      *tgbotapi.BotAPI
	queueSvc *queue.Service

	retryDelay func() time.Duration
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, oops.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = cfg.Telegram.Debug

	slog.Info("Authorized on telegram", "username", bot.Self.UserName)

	return newClient(cfg, bot, do.MustInvoke[*queue.Service](di)), nil
}

func newClient(cfg *config.Config, bot *tgbotapi.BotAPI, queueSvc *queue.Service) *Client {
	return &Client{
		cfg:      cfg,
		bot:      bot,
		queueSvc: queueSvc,
		retryDelay: func() time.Duration {
			return time.Duration(300+rand.Intn(500)) * time.Millisecond
		},
	}
}

// Run long-polls updates and feeds them to the queue until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.cfg.Telegram.PollTimeout

	updates := c.bot.GetUpdatesChan(u)
	defer c.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			c.handleUpdate(update)
		}
	}
}

func (c *Client) handleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		if _, err := c.bot.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			slog.Warn("Failed to answer callback", "error", err)
		}
	}

	event, ok := Classify(update)
	if !ok {
		return
	}

	c.queueSvc.Add(event)
}

// Classify turns an update from a private chat into a queue event.
func Classify(update tgbotapi.Update) (queue.Event, bool) {
	if query := update.CallbackQuery; query != nil {
		if query.From == nil || (query.Message != nil && !isPrivate(query.Message.Chat)) {
			return queue.Event{}, false
		}

		return queue.Event{
			User:    model.UserID(query.From.ID),
			Kind:    queue.KindMenu,
			Payload: query.Data,
		}, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" || !isPrivate(msg.Chat) {
		return queue.Event{}, false
	}

	event := queue.Event{
		User:    model.UserID(msg.From.ID),
		Payload: msg.Text,
	}

	switch {
	case msg.IsCommand():
		if msg.Command() != "start" {
			return queue.Event{}, false
		}
		event.Kind = queue.KindStart
	case identity.IsLogin(msg.Text):
		event.Kind = queue.KindLogin
	default:
		event.Kind = queue.KindText
	}

	return event, true
}

func isPrivate(chat *tgbotapi.Chat) bool {
	return chat != nil && chat.IsPrivate()
}

func MenuMarkup() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(render.MainMenu))
	for _, item := range render.MainMenu {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(item.Label, item.Data),
		))
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Send delivers msg to the user's private chat, whose id equals the user id.
func (c *Client) Send(ctx context.Context, user model.UserID, msg render.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := tgbotapi.NewMessage(int64(user), msg.Text)
	out.ParseMode = tgbotapi.ModeMarkdown
	if msg.Menu {
		out.ReplyMarkup = MenuMarkup()
	}

	if _, err := c.bot.Send(out); err != nil {
		return oops.
			In("telegram").
			With("user", user).
			Wrapf(err, "failed to send message")
	}

	return nil
}

// Notify delivers a fired reminder, retrying once on network timeouts.
func (c *Client) Notify(ctx context.Context, user model.UserID, message string) error {
	var lastErr error

	for attempt := 1; attempt <= maxNotifyAttempts; attempt++ {
		err := c.Send(ctx, user, render.Fired(message))
		if err == nil {
			return nil
		}

		lastErr = err
		if !isTemporaryOrTimeout(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay()):
		}
	}

	return lastErr
}

func isTemporaryOrTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
