package handlers

import (
	"fmt"
	"html"

	"github.com/mroshb/friendly/internal/models"
	"github.com/mroshb/friendly/internal/security"
	apperrors "github.com/mroshb/friendly/pkg/errors"
	"github.com/mroshb/friendly/pkg/logger"
)

// Bot interface to avoid circular dependency
type BotInterface interface {
	SendMessage(chatID int64, text string, keyboard interface{}) int
	EditMessage(chatID int64, messageID int, text string, keyboard interface{})
	AnswerCallbackQuery(queryID string, text string, showAlert bool)
}

// HandleStart registers the sender under name, or greets a known person.
func (h *HandlerManager) HandleStart(userID int64, name string, bot BotInterface) {
	person, err := h.People.GetPersonByTelegramID(userID)
	if err == nil {
		bot.SendMessage(userID, fmt.Sprintf(MsgWelcomeBack, displayName(person), person.PublicID), nil)
		return
	}
	if !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		logger.Error("Failed to load person", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgInternalError, nil)
		return
	}

	if name == "" {
		bot.SendMessage(userID, MsgWelcome, nil)
		return
	}
	name = security.SanitizeName(name)
	if name == "" {
		bot.SendMessage(userID, MsgInvalidName, nil)
		return
	}

	person = &models.Person{TelegramID: userID, FullName: name}
	if err := h.People.CreatePerson(person); err != nil {
		logger.Error("Failed to register person", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgInternalError, nil)
		return
	}

	logger.Info("Person registered", "user_id", userID, "person_id", person.ID)
	bot.SendMessage(userID, fmt.Sprintf(MsgRegistered, displayName(person), person.PublicID), nil)
}

// HandleRename replaces the sender's display name.
func (h *HandlerManager) HandleRename(userID int64, name string, bot BotInterface) {
	person, ok := h.currentPerson(userID, bot)
	if !ok {
		return
	}
	if name == "" {
		bot.SendMessage(userID, MsgNameUsage, nil)
		return
	}
	name = security.SanitizeName(name)
	if name == "" {
		bot.SendMessage(userID, MsgInvalidName, nil)
		return
	}

	if err := h.People.UpdateName(person.ID, name); err != nil {
		if apperrors.Is(err, apperrors.ErrCodeValidation) {
			bot.SendMessage(userID, MsgInvalidName, nil)
			return
		}
		logger.Error("Failed to rename person", "person_id", person.ID, "error", err)
		bot.SendMessage(userID, MsgInternalError, nil)
		return
	}

	person.FullName = name
	logger.Info("Person renamed", "person_id", person.ID)
	bot.SendMessage(userID, fmt.Sprintf(MsgNameUpdated, displayName(person)), nil)
}

func (h *HandlerManager) HandleHelp(userID int64, bot BotInterface) {
	bot.SendMessage(userID, MsgHelp, nil)
}

// currentPerson loads the sender, telling them to register when unknown.
func (h *HandlerManager) currentPerson(userID int64, bot BotInterface) (*models.Person, bool) {
	person, err := h.People.GetPersonByTelegramID(userID)
	if err == nil {
		return person, true
	}
	if apperrors.Is(err, apperrors.ErrCodeNotFound) {
		bot.SendMessage(userID, MsgNotRegistered, nil)
	} else {
		logger.Error("Failed to load person", "user_id", userID, "error", err)
		bot.SendMessage(userID, MsgInternalError, nil)
	}
	return nil, false
}

// personByPublicID resolves a command argument to a person.
func (h *HandlerManager) personByPublicID(userID int64, command, arg string, bot BotInterface) (*models.Person, bool) {
	if arg == "" {
		bot.SendMessage(userID, fmt.Sprintf(MsgUsage, command), nil)
		return nil, false
	}
	publicID, ok := security.ValidatePublicID(arg)
	if !ok {
		bot.SendMessage(userID, MsgInvalidPublicID, nil)
		return nil, false
	}

	person, err := h.People.GetPersonByPublicID(publicID)
	if err == nil {
		return person, true
	}
	if apperrors.Is(err, apperrors.ErrCodeNotFound) {
		bot.SendMessage(userID, MsgPersonNotFound, nil)
	} else {
		logger.Error("Failed to load person", "public_id", publicID, "error", err)
		bot.SendMessage(userID, MsgInternalError, nil)
	}
	return nil, false
}

// Names are stored as typed; messages are sent in HTML mode.
func displayName(p *models.Person) string {
	return html.EscapeString(p.FullName)
}
