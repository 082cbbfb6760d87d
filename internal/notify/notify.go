package notify

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
)

// SendMessageArgs is the queued outbound notice to a worker's chat. Notices
// are enqueued inside the committing core transaction (InsertTx), so a notice
// exists iff the mutation it reports committed; delivery happens later on the
// queue worker and its failure never touches ledger state.
type SendMessageArgs struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

func (SendMessageArgs) Kind() string { return "send_message" }

// EnqueueTxFunc enqueues a notice within the given transaction. Provided by
// main using river.Client.InsertTx.
type EnqueueTxFunc func(ctx context.Context, tx pgx.Tx, args SendMessageArgs) error

// Sender delivers one message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// TelegramSender delivers notices through the Telegram Bot API.
type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramSender(bot *tgbotapi.BotAPI) *TelegramSender {
	return &TelegramSender{bot: bot}
}

func (s *TelegramSender) Send(ctx context.Context, chatID int64, text string) error {
	_, err := s.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// LogSender is used when no bot token is configured (e.g. the admin API
// process running without a paired bot).
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, chatID int64, text string) error {
	s.Logger.Info("notice (no transport configured)", "chat_id", chatID, "text", text)
	return nil
}

// SendMessageWorker drains the outbound queue. River retries on error with
// its default backoff; the core never waits on this.
type SendMessageWorker struct {
	river.WorkerDefaults[SendMessageArgs]
	sender Sender
	logger *slog.Logger
}

func NewSendMessageWorker(sender Sender, logger *slog.Logger) *SendMessageWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendMessageWorker{sender: sender, logger: logger}
}

func (w *SendMessageWorker) Work(ctx context.Context, job *river.Job[SendMessageArgs]) error {
	if err := w.sender.Send(ctx, job.Args.ChatID, job.Args.Text); err != nil {
		w.logger.Warn("notice delivery failed", "chat_id", job.Args.ChatID, "error", err)
		return err
	}
	return nil
}
