package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"github.com/mroshb/friendly/internal/config"
	"github.com/mroshb/friendly/internal/handlers"
	"github.com/mroshb/friendly/internal/middleware"
	"github.com/mroshb/friendly/internal/repositories"
	"github.com/mroshb/friendly/internal/services"
	"github.com/mroshb/friendly/pkg/friendly"
	"github.com/mroshb/friendly/pkg/logger"
)

// Upper bound for handling one update, database round trips included
const updateTimeout = 30 * time.Second

type Bot struct {
	api      *tgbotapi.BotAPI
	config   *config.Config
	handlers *handlers.HandlerManager

	// Worker pool for parallel processing
	workerChans []chan tgbotapi.Update
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

func InitBot(cfg *config.Config, db *gorm.DB, reg *friendly.Registry, store friendly.Store) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.AppEnv == "development" {
		api.Debug = true
	}

	logger.Info("Authorized on account", "username", api.Self.UserName)

	people := repositories.NewPersonRepository(db)
	friendSvc := services.NewFriendService(reg, store, people)
	limiter := middleware.NewRateLimiter(cfg.FriendRequestLimit, cfg.GetFriendRequestWindow())

	ctx, cancel := context.WithCancel(context.Background())
	bot := &Bot{
		api:         api,
		config:      cfg,
		handlers:    handlers.NewHandlerManager(cfg, people, friendSvc, limiter),
		workerChans: make([]chan tgbotapi.Update, cfg.Workers),
		ctx:         ctx,
		cancel:      cancel,
	}

	for i := range bot.workerChans {
		bot.workerChans[i] = make(chan tgbotapi.Update, 100)
		bot.wg.Add(1)
		go bot.startWorker(bot.workerChans[i])
	}

	go bot.startUpdateListener()

	return bot, nil
}

func (b *Bot) startUpdateListener() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for {
		logger.Info("Starting update listener...")
		updates := b.api.GetUpdatesChan(u)

		for update := range updates {
			var userID int64
			if update.Message != nil && update.Message.From != nil {
				userID = update.Message.From.ID
			} else if update.CallbackQuery != nil {
				userID = update.CallbackQuery.From.ID
			}
			if userID == 0 {
				continue
			}

			// Hashed dispatch keeps each user's updates in order
			workerIdx := userID % int64(len(b.workerChans))
			if workerIdx < 0 {
				workerIdx = -workerIdx
			}
			select {
			case b.workerChans[workerIdx] <- update:
			case <-b.ctx.Done():
				return
			}
		}

		select {
		case <-b.ctx.Done():
			return
		default:
		}
		logger.Warn("Update channel closed. Restarting in 5 seconds...")
		time.Sleep(5 * time.Second)
	}
}

func (b *Bot) startWorker(ch chan tgbotapi.Update) {
	defer b.wg.Done()
	for {
		select {
		case update := <-ch:
			b.handleUpdate(update)
		case <-b.ctx.Done():
			return
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in handleUpdate", "error", r)
		}
	}()

	ctx, cancel := context.WithTimeout(b.ctx, updateTimeout)
	defer cancel()

	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	logger.Debug("Received message", "user_id", userID, "text", message.Text)

	if message.IsCommand() {
		b.handleCommand(ctx, userID, message.Command(), strings.TrimSpace(message.CommandArguments()))
		return
	}
	if command, ok := buttonCommand(message.Text); ok {
		b.handleCommand(ctx, userID, command, "")
		return
	}
	b.handlers.HandleHelp(userID, b)
}

func (b *Bot) handleCommand(ctx context.Context, userID int64, command, args string) {
	switch command {
	case "start":
		b.handlers.HandleStart(userID, args, b)
	case "help":
		b.handlers.HandleHelp(userID, b)
	case "name":
		b.handlers.HandleRename(userID, args, b)
	case "add":
		b.handlers.HandleAddFriend(ctx, userID, args, b)
	case "accept":
		b.handlers.HandleAcceptFriend(ctx, userID, args, b)
	case "reject":
		b.handlers.HandleRejectFriend(ctx, userID, args, b)
	case "remove":
		b.handlers.HandleRemoveFriend(ctx, userID, args, b)
	case "friends":
		b.handlers.HandleListFriends(ctx, userID, b)
	case "requests":
		b.handlers.HandleIncomingRequests(ctx, userID, b)
	case "sent":
		b.handlers.HandleSentRequests(ctx, userID, b)
	default:
		b.handlers.HandleHelp(userID, b)
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	logger.Debug("Callback query", "data", query.Data, "user_id", query.From.ID)

	var messageID int
	if query.Message != nil {
		messageID = query.Message.MessageID
	}
	if !b.handlers.HandleFriendCallback(ctx, query.From.ID, query.ID, messageID, query.Data, b) {
		logger.Warn("Unknown callback", "data", query.Data, "user_id", query.From.ID)
		b.AnswerCallbackQuery(query.ID, "", false)
	}
}

func (b *Bot) sendMessage(chatID int64, text string, keyboard interface{}) int {
	// Add RTL mark for Persian support
	msg := tgbotapi.NewMessage(chatID, "\u200f"+text)
	msg.ParseMode = tgbotapi.ModeHTML

	switch kb := keyboard.(type) {
	case tgbotapi.ReplyKeyboardMarkup:
		msg.ReplyMarkup = kb
	case tgbotapi.InlineKeyboardMarkup:
		msg.ReplyMarkup = kb
	case nil:
		msg.ReplyMarkup = MainMenuKeyboard()
	}

	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		sentMsg, err := b.api.Send(msg)
		if err != nil {
			logger.Error("Failed to send message", "error", err, "chat_id", chatID, "attempt", i+1)

			if isTransient(err) {
				time.Sleep(time.Duration(i+1) * time.Second)
				continue
			}
			return 0
		}
		return sentMsg.MessageID
	}
	return 0
}

func isTransient(err error) bool {
	s := err.Error()
	return strings.Contains(s, "connection reset") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "network is unreachable")
}

func (b *Bot) SendMessage(chatID int64, text string, keyboard interface{}) int {
	return b.sendMessage(chatID, text, keyboard)
}

func (b *Bot) EditMessage(chatID int64, messageID int, text string, keyboard interface{}) {
	msg := tgbotapi.NewEditMessageText(chatID, messageID, "\u200f"+text)
	msg.ParseMode = tgbotapi.ModeHTML

	if kb, ok := keyboard.(tgbotapi.InlineKeyboardMarkup); ok {
		msg.ReplyMarkup = &kb
	}

	if _, err := b.api.Send(msg); err != nil {
		logger.Error("Failed to edit message", "error", err, "chat_id", chatID, "message_id", messageID)
	}
}

func (b *Bot) AnswerCallbackQuery(queryID string, text string, showAlert bool) {
	callback := tgbotapi.NewCallback(queryID, text)
	callback.ShowAlert = showAlert
	if _, err := b.api.Request(callback); err != nil {
		logger.Error("Failed to answer callback query", "error", err, "query_id", queryID)
	}
}

// Stop stops polling, waits for in-flight updates and releases the limiter.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	b.cancel()
	b.wg.Wait()
	b.handlers.Limiter.Stop()
	logger.Info("Bot stopped receiving updates")
}
