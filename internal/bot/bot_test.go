package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentforge/internal/model"
	"contentforge/internal/provider"
	"contentforge/internal/service"
	"contentforge/internal/session"
)

const chatID int64 = 1001

type fakeMessenger struct {
	sent     []tgbotapi.MessageConfig
	requests int
}

func (f *fakeMessenger) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeMessenger) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeMessenger) last() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Text
}

type harness struct {
	bot      *Bot
	out      *fakeMessenger
	sessions *session.Manager
	mock     *provider.Mock
}

func newHarness(t *testing.T, limits service.QuotaLimits) *harness {
	t.Helper()
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	mock := provider.NewMock()
	sessions := session.NewManager(mock, session.Options{
		Limits:   limits,
		Location: time.UTC,
		Now:      func() time.Time { return now },
		Seed:     3,
	})
	t.Cleanup(func() { _ = sessions.Close() })

	out := &fakeMessenger{}
	return &harness{
		bot:      newBot(out, sessions, service.NewAgendaService(), nil),
		out:      out,
		sessions: sessions,
		mock:     mock,
	}
}

func (h *harness) say(t *testing.T, text string) string {
	t.Helper()
	msg := &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID, Type: "private"},
		From: &tgbotapi.User{ID: chatID, FirstName: "Ana"},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		end := strings.IndexByte(text, ' ')
		if end < 0 {
			end = len(text)
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	h.bot.handleUpdate(context.Background(), tgbotapi.Update{Message: msg})
	return h.out.last()
}

func (h *harness) press(t *testing.T, data string) string {
	t.Helper()
	h.bot.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID, Type: "private"}},
		Data:    data,
	}})
	return h.out.last()
}

func (h *harness) state(t *testing.T) *session.State {
	t.Helper()
	s, err := h.sessions.Get(context.Background(), chatID)
	require.NoError(t, err)
	return s
}

func TestGenerateConversation_SchedulesTask(t *testing.T) {
	h := newHarness(t, service.QuotaLimits{})

	h.say(t, "/niche moda")
	assert.Contains(t, h.say(t, "/generate"), "plataforma")
	assert.Contains(t, h.say(t, "instagram"), "mensagem principal")
	assert.Contains(t, h.say(t, "Nova coleção de outono"), "informação extra")
	assert.Contains(t, h.say(t, "saltar"), "Variações geradas")

	assert.Contains(t, h.press(t, addData(1, 1)), "Para que dia")
	assert.Contains(t, h.say(t, "2025-03-14"), "A que horas")
	assert.Contains(t, h.say(t, "18:30"), "Agendada")
	assert.Equal(t, 1, h.out.requests)

	s := h.state(t)
	tasks, err := s.Planner.ListByDate(context.Background(), time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "18:30", tasks[0].ScheduledTime)
	assert.Equal(t, model.PlatformInstagram, tasks[0].Platform)
	assert.Equal(t, "moda", tasks[0].Niche)
	assert.Equal(t, 1, s.Quota.Used())
	assert.False(t, h.bot.hasConversation(chatID))
}

func TestGenerateConversation_ProviderFailureKeepsQuota(t *testing.T) {
	h := newHarness(t, service.QuotaLimits{})
	h.mock.Err = &provider.Error{Op: "generate", Message: "timeout"}

	h.say(t, "/generate")
	h.say(t, "TikTok")
	h.say(t, "Promo de verão")
	reply := h.say(t, "-")

	assert.Contains(t, reply, "Não contou para a quota")
	assert.Equal(t, 0, h.state(t).Quota.Used())
	assert.False(t, h.bot.hasConversation(chatID))
}

func TestGenerateConversation_QuotaRefusal(t *testing.T) {
	h := newHarness(t, service.QuotaLimits{Starter: 1})

	h.say(t, "/generate")
	h.say(t, "Instagram")
	h.say(t, "Lançamento")
	h.say(t, "saltar")
	h.say(t, "/cancel")

	assert.Contains(t, h.say(t, "/generate"), "Já usaste")
	assert.Equal(t, 1, h.mock.Calls)
}

func TestRemove_AsksForConfirmation(t *testing.T) {
	h := newHarness(t, service.QuotaLimits{})
	s := h.state(t)
	ctx := context.Background()

	variations, err := s.Generate(ctx, session.GenerateInput{Message: "promo"})
	require.NoError(t, err)
	task, err := s.Commit(ctx, variations[0], s.Today(), "12:00", "")
	require.NoError(t, err)

	assert.Contains(t, h.say(t, "/remove "+itoa(task.ID)), "Remover a publicação")
	assert.Contains(t, h.say(t, "cancelar"), "cancelada")
	_, err = s.Planner.Get(ctx, task.ID)
	require.NoError(t, err)

	h.say(t, "/remove "+itoa(task.ID))
	assert.Contains(t, h.say(t, btnConfirm), "removida")
	_, err = s.Planner.Get(ctx, task.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	assert.Contains(t, h.say(t, "/done "+itoa(task.ID)), "não encontrada")
}

func TestStats_ProOnly(t *testing.T) {
	h := newHarness(t, service.QuotaLimits{})

	assert.Contains(t, h.say(t, "/stats"), "plano Pro")
	assert.Contains(t, h.say(t, "/plan pro"), "Pro")
	reply := h.say(t, "/stats")
	assert.Contains(t, reply, "sem dados")
	assert.Contains(t, reply, "18:00")
}

func TestDoneAndWeek(t *testing.T) {
	h := newHarness(t, service.QuotaLimits{})
	s := h.state(t)
	ctx := context.Background()

	variations, err := s.Generate(ctx, session.GenerateInput{Message: "promo"})
	require.NoError(t, err)
	task, err := s.Commit(ctx, variations[0], s.Today(), "09:00", "")
	require.NoError(t, err)

	assert.Contains(t, h.press(t, cbDonePrefix+itoa(task.ID)), "publicada")
	assert.Contains(t, h.say(t, "/done "+itoa(task.ID)), "publicada")

	week := h.say(t, "/week")
	assert.Contains(t, week, "Semana de 10.03")
	assert.Contains(t, week, "✅ 09:00")

	assert.Contains(t, h.press(t, cbWeekPrefix+"next"), "Semana de 17.03")
}

func TestSendDailyAgenda(t *testing.T) {
	h := newHarness(t, service.QuotaLimits{})
	s := h.state(t)
	ctx := context.Background()

	require.NoError(t, h.bot.SendDailyAgenda(ctx))
	assert.Empty(t, h.out.sent, "empty agendas are not sent")

	variations, err := s.Generate(ctx, session.GenerateInput{Message: "promo"})
	require.NoError(t, err)
	_, err = s.Commit(ctx, variations[0], s.Today(), "19:00", "")
	require.NoError(t, err)

	require.NoError(t, h.bot.SendDailyAgenda(ctx))
	require.Len(t, h.out.sent, 1)
	assert.Equal(t, chatID, h.out.sent[0].ChatID)
	assert.Contains(t, h.out.sent[0].Text, "Agenda de hoje")
}

func TestGenerateConversation_StaleVariationButton(t *testing.T) {
	h := newHarness(t, service.QuotaLimits{})

	for _, message := range []string{"Primeira campanha", "Segunda campanha"} {
		h.say(t, "/generate")
		h.say(t, "Instagram")
		h.say(t, message)
		h.say(t, "saltar")
	}

	assert.Contains(t, h.press(t, addData(1, 0)), "já não estão ativas")
	state := h.bot.getConversation(chatID)
	require.NotNil(t, state)
	assert.Equal(t, stagePick, state.stage)
	assert.Nil(t, state.chosen)

	assert.Contains(t, h.press(t, addData(2, 0)), "Para que dia")
	require.NotNil(t, state.chosen)
	assert.Contains(t, state.chosen.Caption, "Segunda campanha")
}
