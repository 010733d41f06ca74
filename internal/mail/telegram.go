package mail

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	logx "leetdrip/pkg/logx"
	"leetdrip/pkg/tgtext"
)

// Telegram expands escaped entities, so leave headroom under the hard
// 4096 character message limit.
const telegramChunkRunes = 3000

// telegramProvider sends the text rendering to a chat in HTML parse mode.
// Recipient identities use the form "tg:<chat-id>".
type telegramProvider struct {
	bot *tele.Bot
	log logx.Logger
}

func newTelegram(cfg Config, log logx.Logger) (Provider, error) {
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return nil, errors.New("telegram token is required")
	}
	b, err := tele.NewBot(tele.Settings{Token: cfg.TelegramToken})
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &telegramProvider{bot: b, log: log}, nil
}

// chatID parses a "tg:<chat-id>" identity.
func chatID(to string) (int64, error) {
	rest, ok := strings.CutPrefix(to, "tg:")
	if !ok {
		return 0, fmt.Errorf("recipient %q is not a telegram identity (want tg:<chat-id>)", to)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad telegram chat id %q: %w", rest, err)
	}
	return id, nil
}

func (t *telegramProvider) Send(ctx context.Context, to, subject, _, textBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := chatID(to)
	if err != nil {
		return err
	}

	chat := &tele.Chat{ID: id}
	opt := &tele.SendOptions{ParseMode: tele.ModeHTML, DisableWebPagePreview: true}

	// Escape per chunk so a split never lands inside an HTML entity.
	for i, chunk := range tgtext.Split(textBody, telegramChunkRunes) {
		if err := ctx.Err(); err != nil {
			return err
		}
		text := tgtext.Esc(chunk).String()
		if i == 0 {
			text = tgtext.B(subject).String() + "\n\n" + text
		}
		if _, err := t.bot.Send(chat, text, opt); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	t.log.Debug("telegram send ok", logx.String("to", to))
	return nil
}
