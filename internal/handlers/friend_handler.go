package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mroshb/friendly/internal/models"
	"github.com/mroshb/friendly/internal/services"
	apperrors "github.com/mroshb/friendly/pkg/errors"
	"github.com/mroshb/friendly/pkg/logger"
)

// HandleAddFriend sends a friend request to the person with the given public ID
func (h *HandlerManager) HandleAddFriend(ctx context.Context, userID int64, publicID string, bot BotInterface) {
	user, ok := h.currentPerson(userID, bot)
	if !ok {
		return
	}
	target, ok := h.personByPublicID(userID, "add", publicID, bot)
	if !ok {
		return
	}
	if target.ID == user.ID {
		bot.SendMessage(userID, MsgSelfRequest, nil)
		return
	}

	if !h.Limiter.CheckUserLimit(userID) {
		logger.Warn("Friend request rate limited", "user_id", userID)
		bot.SendMessage(userID, MsgRateLimited, nil)
		return
	}

	outcome, err := h.FriendSvc.SendRequest(ctx, user, target)
	if err != nil {
		logger.Error("Failed to send friend request", "from", user.ID, "to", target.ID, "error", err)
		bot.SendMessage(userID, MsgInternalError, nil)
		return
	}

	switch outcome {
	case services.RequestExists:
		bot.SendMessage(userID, fmt.Sprintf(MsgAlreadyConnected, displayName(target)), nil)
	case services.RequestAccepted:
		bot.SendMessage(userID, fmt.Sprintf(MsgNowFriends, displayName(target)), nil)
		bot.SendMessage(target.TelegramID, fmt.Sprintf(MsgNowFriends, displayName(user)), nil)
	default:
		bot.SendMessage(target.TelegramID, fmt.Sprintf(MsgRequestReceived, displayName(user)), FriendRequestKeyboard(user.ID))
		bot.SendMessage(userID, fmt.Sprintf(MsgRequestSent, displayName(target)), nil)
	}
}

// HandleAcceptFriend accepts the request from the person with the given public ID
func (h *HandlerManager) HandleAcceptFriend(ctx context.Context, userID int64, publicID string, bot BotInterface) {
	user, ok := h.currentPerson(userID, bot)
	if !ok {
		return
	}
	requester, ok := h.personByPublicID(userID, "accept", publicID, bot)
	if !ok {
		return
	}
	reply, _ := h.acceptFriend(ctx, user, requester, bot)
	bot.SendMessage(userID, reply, nil)
}

// HandleRejectFriend declines the request from the person with the given public ID
func (h *HandlerManager) HandleRejectFriend(ctx context.Context, userID int64, publicID string, bot BotInterface) {
	user, ok := h.currentPerson(userID, bot)
	if !ok {
		return
	}
	requester, ok := h.personByPublicID(userID, "reject", publicID, bot)
	if !ok {
		return
	}
	reply, _ := h.rejectFriend(ctx, user, requester)
	bot.SendMessage(userID, reply, nil)
}

// HandleRemoveFriend ends a friendship, or withdraws a request, with the
// person with the given public ID
func (h *HandlerManager) HandleRemoveFriend(ctx context.Context, userID int64, publicID string, bot BotInterface) {
	user, ok := h.currentPerson(userID, bot)
	if !ok {
		return
	}
	other, ok := h.personByPublicID(userID, "remove", publicID, bot)
	if !ok {
		return
	}

	removed, err := h.FriendSvc.Remove(ctx, user, other)
	if err != nil {
		logger.Error("Failed to remove friend", "person", user.ID, "other", other.ID, "error", err)
		bot.SendMessage(userID, MsgInternalError, nil)
		return
	}
	if !removed {
		bot.SendMessage(userID, fmt.Sprintf(MsgNothingToRemove, displayName(other)), nil)
		return
	}
	bot.SendMessage(userID, fmt.Sprintf(MsgFriendRemoved, displayName(other)), nil)
}

// HandleFriendCallback answers the accept/reject buttons of a request and
// the callback query itself. It reports whether data was a friend callback.
// Once the request is settled the request message is edited to the outcome,
// which drops its buttons; after an internal error the buttons stay.
func (h *HandlerManager) HandleFriendCallback(ctx context.Context, userID int64, queryID string, messageID int, data string, bot BotInterface) bool {
	var accept bool
	var rawID string
	switch {
	case strings.HasPrefix(data, CallbackFriendAccept):
		accept, rawID = true, strings.TrimPrefix(data, CallbackFriendAccept)
	case strings.HasPrefix(data, CallbackFriendReject):
		rawID = strings.TrimPrefix(data, CallbackFriendReject)
	default:
		return false
	}

	requesterID, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		logger.Warn("Malformed friend callback", "data", data)
		bot.AnswerCallbackQuery(queryID, MsgInternalError, true)
		return true
	}
	defer bot.AnswerCallbackQuery(queryID, "", false)

	user, ok := h.currentPerson(userID, bot)
	if !ok {
		return true
	}
	requester, err := h.People.GetPersonByID(uint(requesterID))
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrCodeNotFound) {
			logger.Error("Failed to load requester", "person_id", requesterID, "error", err)
		}
		bot.SendMessage(userID, MsgPersonNotFound, nil)
		return true
	}

	var reply string
	var settled bool
	if accept {
		reply, settled = h.acceptFriend(ctx, user, requester, bot)
	} else {
		reply, settled = h.rejectFriend(ctx, user, requester)
	}

	if settled && messageID != 0 {
		bot.EditMessage(userID, messageID, reply, nil)
	} else {
		bot.SendMessage(userID, reply, nil)
	}
	return true
}

// acceptFriend confirms the request and notifies the requester. It returns
// the reply for user and whether the request is settled, including when it
// was no longer pending.
func (h *HandlerManager) acceptFriend(ctx context.Context, user, requester *models.Person, bot BotInterface) (string, bool) {
	err := h.FriendSvc.Accept(ctx, user, requester)
	if apperrors.Is(err, apperrors.ErrCodeNotFound) {
		return fmt.Sprintf(MsgNoPendingRequest, displayName(requester)), true
	}
	if err != nil {
		logger.Error("Failed to accept friend request", "person", user.ID, "requester", requester.ID, "error", err)
		return MsgInternalError, false
	}

	bot.SendMessage(requester.TelegramID, fmt.Sprintf(MsgRequestAccepted, displayName(user)), nil)
	return fmt.Sprintf(MsgNowFriends, displayName(requester)), true
}

func (h *HandlerManager) rejectFriend(ctx context.Context, user, requester *models.Person) (string, bool) {
	err := h.FriendSvc.Reject(ctx, user, requester)
	if apperrors.Is(err, apperrors.ErrCodeNotFound) {
		return fmt.Sprintf(MsgNoPendingRequest, displayName(requester)), true
	}
	if err != nil {
		logger.Error("Failed to reject friend request", "person", user.ID, "requester", requester.ID, "error", err)
		return MsgInternalError, false
	}
	return fmt.Sprintf(MsgRequestRejected, displayName(requester)), true
}

// HandleListFriends shows the accepted friends of the sender
func (h *HandlerManager) HandleListFriends(ctx context.Context, userID int64, bot BotInterface) {
	h.listPeople(ctx, userID, bot, h.FriendSvc.Friends, MsgFriendsHeader, MsgNoFriends)
}

// HandleIncomingRequests shows who is waiting for the sender to accept
func (h *HandlerManager) HandleIncomingRequests(ctx context.Context, userID int64, bot BotInterface) {
	h.listPeople(ctx, userID, bot, h.FriendSvc.IncomingRequests, MsgIncomingHeader, MsgNoIncoming)
}

// HandleSentRequests shows the requests the sender is waiting on
func (h *HandlerManager) HandleSentRequests(ctx context.Context, userID int64, bot BotInterface) {
	h.listPeople(ctx, userID, bot, h.FriendSvc.SentRequests, MsgSentHeader, MsgNoSent)
}

func (h *HandlerManager) listPeople(
	ctx context.Context,
	userID int64,
	bot BotInterface,
	list func(context.Context, *models.Person) ([]models.Person, error),
	header, empty string,
) {
	user, ok := h.currentPerson(userID, bot)
	if !ok {
		return
	}

	people, err := list(ctx, user)
	if err != nil {
		logger.Error("Failed to list people", "person", user.ID, "error", err)
		bot.SendMessage(userID, MsgInternalError, nil)
		return
	}
	if len(people) == 0 {
		bot.SendMessage(userID, empty, nil)
		return
	}

	var sb strings.Builder
	sb.WriteString(header)
	for i, p := range people {
		fmt.Fprintf(&sb, "%d. %s - <code>%s</code>\n", i+1, displayName(&p), p.PublicID)
	}
	bot.SendMessage(userID, sb.String(), nil)
}
