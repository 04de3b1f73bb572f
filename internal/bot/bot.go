package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"contentforge/internal/model"
	"contentforge/internal/provider"
	"contentforge/internal/service"
	"contentforge/internal/session"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stagePlatform
	stageMessage
	stageExtra
	stagePick
	stageDate
	stageTime
)

const (
	cbAddPrefix    = "add:"
	cbDonePrefix   = "done:"
	cbRemovePrefix = "remove:"
	cbWeekPrefix   = "week:"
)

type conversationState struct {
	stage      conversationStage
	platform   string
	message    string
	extra      string
	generation uint64
	variations []model.ScoredVariation
	chosen     *model.ScoredVariation
	date       time.Time
}

type confirmationRequest struct {
	taskID uint
}

// messenger is the part of the Telegram API the handlers talk to.
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot wires Telegram updates to per-chat sessions.
type Bot struct {
	api           *tgbotapi.BotAPI
	out           messenger
	sessions      *session.Manager
	agenda        *service.AgendaService
	log           *zap.Logger
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	generations   uint64
	mu            sync.Mutex
}

func New(token string, sessions *session.Manager, agenda *service.AgendaService, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	b := newBot(api, sessions, agenda, log)
	b.api = api
	b.log.Info("bot authorized", zap.String("account", api.Self.UserName))
	return b, nil
}

func newBot(out messenger, sessions *session.Manager, agenda *service.AgendaService, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	if agenda == nil {
		agenda = service.NewAgendaService()
	}
	return &Bot{
		out:           out,
		sessions:      sessions,
		agenda:        agenda,
		log:           log.Named("bot"),
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot: no telegram api")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
			b.log.Error("handle callback", zap.Error(err))
		}
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error("handle message", zap.Int64("chat", update.Message.Chat.ID), zap.Error(err))
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(chatID)
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "⏪ Operação cancelada.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	s, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		return err
	}

	if msg.IsCommand() {
		b.log.Debug("command", zap.Int64("chat", chatID), zap.String("command", msg.Command()), zap.String("args", msg.CommandArguments()))
		return b.handleCommand(ctx, s, msg)
	}

	if pending, ok := b.getConfirmation(chatID); ok {
		return b.handleConfirmationResponse(ctx, s, msg, pending)
	}

	if b.hasConversation(chatID) {
		return b.handleConversation(ctx, s, msg)
	}

	return b.sendText(chatID, "Não percebi a mensagem. Usa /generate para criar conteúdo ou /help para ver os comandos.")
}

func (b *Bot) handleCommand(ctx context.Context, s *session.State, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		return b.handleStart(s, msg)
	case "help":
		return b.handleHelp(chatID)
	case "profile":
		return b.handleProfile(s, chatID)
	case "brand", "niche", "tone", "mode":
		return b.handleProfileField(s, chatID, msg.Command(), args)
	case "plan":
		return b.handlePlan(s, chatID, args)
	case "generate":
		return b.startGenerateConversation(s, chatID)
	case "week":
		return b.handleWeek(ctx, s, chatID, args)
	case "day":
		return b.handleDay(ctx, s, chatID, args)
	case "task":
		return b.handleTask(ctx, s, chatID, args)
	case "done":
		return b.handleDone(ctx, s, chatID, args)
	case "remove":
		return b.handleRemove(ctx, s, chatID, args)
	case "stats":
		return b.handleStats(ctx, s, chatID)
	case "quota":
		return b.handleQuota(s, chatID)
	case "agenda":
		return b.handleAgenda(ctx, s, chatID)
	case "cancel":
		b.clearConversation(chatID)
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "⏪ Operação cancelada.")
	default:
		return b.sendText(chatID, "Comando não suportado. Consulta /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelGenerate), strings.ToLower(menuLabelWeek),
		strings.ToLower(menuLabelStats), strings.ToLower(menuLabelHelp):
	default:
		return false, nil
	}

	s, err := b.sessions.Get(ctx, msg.Chat.ID)
	if err != nil {
		return true, err
	}
	b.clearConfirmation(msg.Chat.ID)

	switch text {
	case strings.ToLower(menuLabelGenerate):
		return true, b.startGenerateConversation(s, msg.Chat.ID)
	case strings.ToLower(menuLabelWeek):
		return true, b.handleWeek(ctx, s, msg.Chat.ID, "")
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(ctx, s, msg.Chat.ID)
	default:
		return true, b.handleHelp(msg.Chat.ID)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.out.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", zap.Error(err))
	}

	chatID := cb.Message.Chat.ID
	s, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		return err
	}

	data := cb.Data
	b.log.Debug("callback", zap.Int64("chat", chatID), zap.String("data", data))

	switch {
	case strings.HasPrefix(data, cbAddPrefix):
		generation, index, err := parseAddData(data)
		if err != nil {
			return nil
		}
		return b.pickVariation(s, chatID, generation, index)
	case strings.HasPrefix(data, cbDonePrefix):
		taskID, err := parseTaskID(data, cbDonePrefix)
		if err != nil {
			return nil
		}
		return b.completeTask(ctx, s, chatID, taskID)
	case strings.HasPrefix(data, cbRemovePrefix):
		taskID, err := parseTaskID(data, cbRemovePrefix)
		if err != nil {
			return nil
		}
		return b.askRemoveConfirmation(ctx, s, chatID, taskID)
	case strings.HasPrefix(data, cbWeekPrefix):
		return b.handleWeek(ctx, s, chatID, strings.TrimPrefix(data, cbWeekPrefix))
	default:
		return nil
	}
}

// SendDailyAgenda sends today's agenda to every chat with something planned.
func (b *Bot) SendDailyAgenda(ctx context.Context) error {
	var sendErr error
	b.sessions.Each(func(chatID int64, s *session.State) {
		if ctx.Err() != nil {
			return
		}
		text, empty, err := b.agenda.DailyAgenda(ctx, s.Planner, s.Today())
		if err != nil {
			b.log.Error("build agenda", zap.Int64("chat", chatID), zap.Error(err))
			return
		}
		if empty {
			return
		}
		if err := b.sendText(chatID, text); err != nil {
			b.log.Warn("send agenda", zap.Int64("chat", chatID), zap.Error(err))
			sendErr = errors.Join(sendErr, err)
		}
	})
	if err := ctx.Err(); err != nil {
		return err
	}
	return sendErr
}

// userMessage turns a service error into something the chat can show.
func userMessage(err error) string {
	var perr *provider.Error
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "Publicação não encontrada."
	case errors.Is(err, service.ErrQuotaExceeded):
		return "🚫 Atingiste o limite diário de gerações do teu plano. Volta amanhã ou muda para Pro com /plan pro."
	case errors.Is(err, service.ErrValidation):
		return "Dados inválidos: " + escape(strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "))
	case errors.As(err, &perr):
		return "⚠️ O gerador de conteúdo falhou (" + escape(perr.Message) + "). Não contou para a quota, tenta novamente."
	default:
		return "Algo correu mal: " + escape(err.Error())
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) getConfirmation(chatID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[chatID]
	return req, ok
}

func (b *Bot) setConfirmation(chatID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[chatID] = req
}

func (b *Bot) clearConfirmation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, chatID)
}

func (b *Bot) setConversation(chatID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[chatID] = state
}

func (b *Bot) getConversation(chatID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[chatID]
}

func (b *Bot) hasConversation(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[chatID]
	return ok
}

// nextGeneration numbers each batch of variations so buttons from an older
// batch can be told apart.
func (b *Bot) nextGeneration() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generations++
	return b.generations
}

func (b *Bot) clearConversation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, chatID)
}
