package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/reviewcrew/backend/internal/models"
	"github.com/reviewcrew/backend/internal/services"
)

// TaskFlow is the assignment lifecycle as seen from the bot.
type TaskFlow interface {
	RequestTask(ctx context.Context, workerID int64) (*models.TaskItem, error)
	ReplaceTask(ctx context.Context, workerID int64) (*models.TaskItem, error)
	ConfirmCall(ctx context.Context, workerID int64) error
	ConfirmMorning(ctx context.Context, workerID int64) error
	ConfirmEvening(ctx context.Context, workerID int64) error
	SubmitScreenshot(ctx context.Context, workerID int64, screenshotRef string) error
	GetAssignment(ctx context.Context, workerID int64) (*models.TaskAssignment, error)
}

// WalletFlow exposes the worker-facing wallet operations.
type WalletFlow interface {
	GetBalance(ctx context.Context, workerID int64) (int64, error)
	GetPendingReservations(ctx context.Context, workerID int64) (int64, error)
	CreateWithdrawal(ctx context.Context, workerID int64, amount int64, method, details string) (uuid.UUID, error)
}

// WorkerDirectory registers workers on first contact.
type WorkerDirectory interface {
	Ensure(ctx context.Context, id int64, displayName string) (*models.Worker, error)
}

// ReferralLinker records who invited whom.
type ReferralLinker interface {
	Link(ctx context.Context, referrerID, referredID int64) error
}

// ContentSource serves the editable help texts.
type ContentSource interface {
	Get(ctx context.Context, key string) (*models.Content, error)
}

// BotAPI is the slice of tgbotapi.BotAPI the gateway uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

// Gateway drives the worker-facing Telegram conversation. Every update is
// handled against the worker identified by the chat id.
type Gateway struct {
	Bot      BotAPI
	Tasks    TaskFlow
	Wallet   WalletFlow
	Workers  WorkerDirectory
	Referral ReferralLinker
	Contents ContentSource
	Logger   *slog.Logger
}

// Run consumes updates until ctx is cancelled.
func (g *Gateway) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := g.Bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			g.HandleMessage(ctx, update.Message)
		}
	}
}

// HandleMessage dispatches a single incoming message.
func (g *Gateway) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if len(msg.Photo) > 0 {
		g.handleScreenshot(ctx, msg)
		return
	}
	if !msg.IsCommand() {
		g.reply(chatID, "Не понимаю. Используйте /help для списка команд.")
		return
	}

	switch msg.Command() {
	case "start":
		g.handleStart(ctx, msg)
	case "help":
		g.reply(chatID, helpText)
	case "task":
		g.handleTask(ctx, chatID)
	case "replace":
		g.handleReplace(ctx, chatID)
	case "confirm":
		g.handleAdvance(ctx, chatID, g.Tasks.ConfirmCall, "Звонок подтверждён. Ждём утренний пост.")
	case "morning":
		g.handleAdvance(ctx, chatID, g.Tasks.ConfirmMorning, "Утренний пост принят. Ждём вечерний пост.")
	case "evening":
		g.handleAdvance(ctx, chatID, g.Tasks.ConfirmEvening, "Вечерний пост принят. Пришлите скриншот отзыва.")
	case "status":
		g.handleStatus(ctx, chatID)
	case "balance":
		g.handleBalance(ctx, chatID)
	case "withdraw":
		g.handleWithdraw(ctx, chatID, msg.CommandArguments())
	case "instructions":
		g.handleContent(ctx, chatID, models.ContentInstructions)
	case "faq":
		g.handleContent(ctx, chatID, models.ContentFAQ)
	default:
		g.reply(chatID, "Неизвестная команда. /help")
	}
}

func (g *Gateway) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	name := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)

	if _, err := g.Workers.Ensure(ctx, chatID, name); err != nil {
		g.Logger.Error("ensure worker", "worker_id", chatID, "error", err)
		g.reply(chatID, "Что-то пошло не так, попробуйте ещё раз.")
		return
	}

	// /start <referrer_id> carries the invite link payload.
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		referrerID, err := strconv.ParseInt(arg, 10, 64)
		if err == nil {
			if err := g.Referral.Link(ctx, referrerID, chatID); err != nil {
				switch {
				case errors.Is(err, services.ErrAlreadyReferred),
					errors.Is(err, services.ErrSelfReferral),
					errors.Is(err, services.ErrCyclicReferral):
					// ignore bad invite links, the worker is registered either way
				default:
					g.Logger.Error("link referral", "referrer_id", referrerID, "referred_id", chatID, "error", err)
				}
			}
		}
	}

	g.reply(chatID, "Добро пожаловать! /task выдаст задание, /help покажет команды.")
}

func (g *Gateway) handleTask(ctx context.Context, chatID int64) {
	item, err := g.Tasks.RequestTask(ctx, chatID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskAlreadyActive):
			g.reply(chatID, "У вас уже есть активное задание. /status покажет его.")
		case errors.Is(err, services.ErrNoTaskAvailable):
			g.reply(chatID, "Сейчас нет доступных заданий, загляните позже.")
		default:
			g.Logger.Error("request task", "worker_id", chatID, "error", err)
			g.reply(chatID, "Не удалось выдать задание, попробуйте позже.")
		}
		return
	}
	g.sendItem(chatID, item, "Новое задание. Подтвердите звонок командой /confirm.")
}

func (g *Gateway) handleReplace(ctx context.Context, chatID int64) {
	item, err := g.Tasks.ReplaceTask(ctx, chatID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			g.reply(chatID, "Нет активного задания. /task выдаст новое.")
		case errors.Is(err, services.ErrNotReplaceable):
			g.reply(chatID, "Задание уже в работе, заменить его нельзя.")
		case errors.Is(err, services.ErrReplacementLimitExceeded):
			g.reply(chatID, "Лимит замен исчерпан, подождите и попробуйте снова.")
		case errors.Is(err, services.ErrNoTaskAvailable):
			g.reply(chatID, "Заменить нечем: других заданий сейчас нет.")
		default:
			g.Logger.Error("replace task", "worker_id", chatID, "error", err)
			g.reply(chatID, "Не удалось заменить задание, попробуйте позже.")
		}
		return
	}
	g.sendItem(chatID, item, "Задание заменено. Подтвердите звонок командой /confirm.")
}

func (g *Gateway) handleAdvance(ctx context.Context, chatID int64, step func(context.Context, int64) error, ok string) {
	if err := step(ctx, chatID); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			g.reply(chatID, "Нет активного задания. /task выдаст новое.")
		case errors.Is(err, services.ErrInvalidState):
			g.reply(chatID, "Этот шаг сейчас недоступен. /status покажет, что делать дальше.")
		default:
			g.Logger.Error("advance assignment", "worker_id", chatID, "error", err)
			g.reply(chatID, "Что-то пошло не так, попробуйте ещё раз.")
		}
		return
	}
	g.reply(chatID, ok)
}

func (g *Gateway) handleScreenshot(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	// tgbotapi orders photo sizes ascending; take the largest.
	fileID := msg.Photo[len(msg.Photo)-1].FileID

	if err := g.Tasks.SubmitScreenshot(ctx, chatID, fileID); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			g.reply(chatID, "Нет активного задания. /task выдаст новое.")
		case errors.Is(err, services.ErrInvalidState):
			g.reply(chatID, "Скриншот сейчас не нужен. /status покажет текущий шаг.")
		default:
			g.Logger.Error("submit screenshot", "worker_id", chatID, "error", err)
			g.reply(chatID, "Не удалось принять скриншот, попробуйте ещё раз.")
		}
		return
	}
	g.reply(chatID, "Скриншот принят и отправлен на проверку.")
}

func (g *Gateway) handleStatus(ctx context.Context, chatID int64) {
	a, err := g.Tasks.GetAssignment(ctx, chatID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			g.reply(chatID, "Нет активного задания. /task выдаст новое.")
			return
		}
		g.Logger.Error("get assignment", "worker_id", chatID, "error", err)
		g.reply(chatID, "Что-то пошло не так, попробуйте ещё раз.")
		return
	}
	g.reply(chatID, statusText(a))
}

func (g *Gateway) handleBalance(ctx context.Context, chatID int64) {
	balance, err := g.Wallet.GetBalance(ctx, chatID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			g.reply(chatID, "Сначала зарегистрируйтесь: /start")
			return
		}
		g.Logger.Error("get balance", "worker_id", chatID, "error", err)
		g.reply(chatID, "Не удалось получить баланс, попробуйте позже.")
		return
	}
	pending, err := g.Wallet.GetPendingReservations(ctx, chatID)
	if err != nil {
		g.Logger.Error("get pending reservations", "worker_id", chatID, "error", err)
		g.reply(chatID, "Не удалось получить баланс, попробуйте позже.")
		return
	}
	text := fmt.Sprintf("Баланс: %d ₽", balance)
	if pending > 0 {
		text += fmt.Sprintf("\nНа выводе: %d ₽", pending)
	}
	g.reply(chatID, text)
}

func (g *Gateway) handleWithdraw(ctx context.Context, chatID int64, args string) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 3)
	if len(parts) < 3 {
		g.reply(chatID, "Формат: /withdraw <сумма> <card|sbp|crypto> <реквизиты>")
		return
	}
	amount, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || amount <= 0 {
		g.reply(chatID, "Сумма должна быть положительным числом.")
		return
	}

	if _, err := g.Wallet.CreateWithdrawal(ctx, chatID, amount, parts[1], parts[2]); err != nil {
		switch {
		case errors.Is(err, services.ErrBelowMinimum):
			g.reply(chatID, "Сумма меньше минимальной для вывода.")
		case errors.Is(err, services.ErrInsufficientFunds):
			g.reply(chatID, "Недостаточно средств на балансе.")
		case errors.Is(err, services.ErrPendingReservationExceedsBalance):
			g.reply(chatID, "Сумма вместе с уже запрошенными выводами превышает баланс.")
		case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrUnknownMethod):
			g.reply(chatID, "Реквизиты не прошли проверку: "+err.Error())
		default:
			g.Logger.Error("create withdrawal", "worker_id", chatID, "error", err)
			g.reply(chatID, "Не удалось создать заявку, попробуйте позже.")
		}
		return
	}
	g.reply(chatID, fmt.Sprintf("Заявка на вывод %d ₽ создана. Деньги зарезервированы до решения.", amount))
}

func (g *Gateway) handleContent(ctx context.Context, chatID int64, key string) {
	c, err := g.Contents.Get(ctx, key)
	if err != nil {
		g.reply(chatID, "Текст пока не заполнен.")
		return
	}
	g.reply(chatID, c.Body)
}

func (g *Gateway) sendItem(chatID int64, item *models.TaskItem, caption string) {
	if item.PhotoRef != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(item.PhotoRef))
		photo.Caption = caption
		if _, err := g.Bot.Send(photo); err != nil {
			g.Logger.Error("send photo", "chat_id", chatID, "error", err)
		}
		return
	}
	g.reply(chatID, caption)
}

func (g *Gateway) reply(chatID int64, text string) {
	if _, err := g.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		g.Logger.Error("send message", "chat_id", chatID, "error", err)
	}
}

func statusText(a *models.TaskAssignment) string {
	switch a.State {
	case models.AssignmentAllocated:
		return "Задание выдано. Подтвердите звонок: /confirm"
	case models.AssignmentAwaitingMorning:
		return "Ждём утренний пост. Когда опубликуете, отправьте /morning"
	case models.AssignmentAwaitingEvening:
		return "Ждём вечерний пост. Когда опубликуете, отправьте /evening"
	case models.AssignmentAwaitingScreenshot:
		if a.ReviewComment != "" {
			return "Скриншот отклонён: " + a.ReviewComment + "\nПришлите исправленный скриншот."
		}
		return "Пришлите скриншот отзыва."
	case models.AssignmentUnderReview:
		return "Скриншот на проверке, ожидайте."
	case models.AssignmentCompleted:
		return "Задание выполнено. /task выдаст новое."
	case models.AssignmentRejected:
		return "Задание отклонено: " + a.ReviewComment
	default:
		return "Неизвестное состояние, обратитесь в поддержку."
	}
}

const helpText = `Команды:
/task — получить задание
/replace — заменить задание
/confirm — подтвердить звонок
/morning — подтвердить утренний пост
/evening — подтвердить вечерний пост
/status — текущий шаг
/balance — баланс
/withdraw <сумма> <card|sbp|crypto> <реквизиты> — вывод средств
/instructions — инструкция
/faq — вопросы и ответы`
