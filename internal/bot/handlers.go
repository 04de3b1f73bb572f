package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"contentforge/internal/calendar"
	"contentforge/internal/model"
	"contentforge/internal/session"
)

const recentLimit = 5

func (b *Bot) handleStart(s *session.State, msg *tgbotapi.Message) error {
	name := ""
	if msg.From != nil {
		name = strings.TrimSpace(msg.From.FirstName)
	}
	if name == "" {
		name = "criador"
	}

	text := fmt.Sprintf(
		"👋 Olá, %s!\n<b>Sou o ContentForge: escrevo legendas e organizo a tua semana de publicações.</b>\n\n"+
			"Começa por definir a marca com /brand e o nicho com /niche, depois usa /generate.\n"+
			"Plano atual: <b>%s</b> (%d gerações por dia).\n\n%s",
		escape(name), s.Quota.Tier(), s.Quota.LimitFor(s.Quota.Tier()), helpText,
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(chatID int64) error {
	return b.sendText(chatID, "ℹ️ <b>Comandos</b>\n"+helpText)
}

func (b *Bot) handleProfile(s *session.State, chatID int64) error {
	return b.sendText(chatID, renderProfile(s.Profile))
}

func (b *Bot) handleProfileField(s *session.State, chatID int64, field, value string) error {
	if value == "" {
		return b.sendText(chatID, fmt.Sprintf("Indica o valor, por exemplo: /%s %s", field, profileExample(field)))
	}
	switch field {
	case "brand":
		s.Profile.Brand = value
	case "niche":
		s.Profile.Niche = value
	case "tone":
		s.Profile.Tone = value
	case "mode":
		s.Profile.Mode = value
	}
	return b.sendText(chatID, "✅ Perfil atualizado.\n\n"+renderProfile(s.Profile))
}

func (b *Bot) handlePlan(s *session.State, chatID int64, args string) error {
	if args == "" {
		return b.handleQuota(s, chatID)
	}
	tier, err := model.ParsePlanTier(args)
	if err != nil {
		return b.sendText(chatID, "Planos disponíveis: /plan starter ou /plan pro.")
	}
	s.Quota.SetTier(tier)
	b.log.Info("plan changed", zap.Int64("chat", chatID), zap.String("plan", string(tier)))
	return b.sendText(chatID, fmt.Sprintf("✅ Plano <b>%s</b> ativo: %d gerações por dia.", tier, s.Quota.LimitFor(tier)))
}

func (b *Bot) handleQuota(s *session.State, chatID int64) error {
	tier := s.Quota.Tier()
	text := fmt.Sprintf("📊 Plano <b>%s</b>\nUsadas hoje: %d de %d\nRestantes: %d",
		tier, s.Quota.Used(), s.Quota.LimitFor(tier), s.Quota.Remaining())
	return b.sendText(chatID, text)
}

func (b *Bot) handleWeek(ctx context.Context, s *session.State, chatID int64, args string) error {
	anchor, err := resolveWeekAnchor(args, s.Anchor, s.Today(), s.Location())
	if err != nil {
		return b.sendText(chatID, "Usa /week, /week prev, /week next ou /week 2025-03-14.")
	}
	s.Anchor = anchor

	week, err := s.Planner.ListWeek(ctx, anchor)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}

	msg := tgbotapi.NewMessage(chatID, renderWeek(week, s.Today()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = weekKeyboard(week)
	_, err = b.out.Send(msg)
	return err
}

func (b *Bot) handleDay(ctx context.Context, s *session.State, chatID int64, args string) error {
	day := s.Today()
	if args != "" {
		parsed, err := parseDateInput(args, s.Today(), s.Location())
		if err != nil {
			return b.sendText(chatID, "Usa /day ou /day 2025-03-14.")
		}
		day = parsed
	}

	tasks, err := s.Planner.ListByDate(ctx, day)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, renderDay(day, tasks))
}

func (b *Bot) handleTask(ctx context.Context, s *session.State, chatID int64, args string) error {
	taskID, err := parseTaskID(args, "")
	if err != nil {
		return b.sendText(chatID, "Indica o número da publicação: /task 3")
	}
	task, err := s.Planner.Get(ctx, taskID)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}

	msg := tgbotapi.NewMessage(chatID, renderTask(*task, s.ShowAnalysis()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = taskKeyboard(*task)
	_, err = b.out.Send(msg)
	return err
}

func (b *Bot) handleDone(ctx context.Context, s *session.State, chatID int64, args string) error {
	taskID, err := parseTaskID(args, "")
	if err != nil {
		return b.sendText(chatID, "Indica o número da publicação: /done 3")
	}
	return b.completeTask(ctx, s, chatID, taskID)
}

func (b *Bot) completeTask(ctx context.Context, s *session.State, chatID int64, taskID uint) error {
	task, err := s.Planner.MarkDone(ctx, taskID)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	b.log.Info("task done", zap.Int64("chat", chatID), zap.Uint("task", task.ID))
	return b.sendText(chatID, fmt.Sprintf("✅ Publicação <b>#%d</b> «%s» marcada como publicada.", task.ID, escape(task.Title)))
}

func (b *Bot) handleRemove(ctx context.Context, s *session.State, chatID int64, args string) error {
	taskID, err := parseTaskID(args, "")
	if err != nil {
		return b.sendText(chatID, "Indica o número da publicação: /remove 3")
	}
	return b.askRemoveConfirmation(ctx, s, chatID, taskID)
}

func (b *Bot) askRemoveConfirmation(ctx context.Context, s *session.State, chatID int64, taskID uint) error {
	task, err := s.Planner.Get(ctx, taskID)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}

	b.clearConversation(chatID)
	b.setConfirmation(chatID, confirmationRequest{taskID: task.ID})
	text := fmt.Sprintf("Remover a publicação «%s» (#%d) de %s?", escape(task.Title), task.ID, task.ScheduledDate)
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, s *session.State, msg *tgbotapi.Message, req confirmationRequest) error {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(chatID)
		if err := s.Planner.Remove(ctx, req.taskID); err != nil {
			return b.sendText(chatID, userMessage(err))
		}
		b.log.Info("task removed", zap.Int64("chat", chatID), zap.Uint("task", req.taskID))
		return b.sendText(chatID, fmt.Sprintf("🗑 Publicação #%d removida.", req.taskID))
	case isCancelInput(text):
		b.clearConfirmation(chatID)
		return b.sendText(chatID, "Remoção cancelada.")
	default:
		return b.sendWithReplyMarkup(chatID, "Confirma ou cancela a remoção.", confirmKeyboard())
	}
}

func (b *Bot) handleStats(ctx context.Context, s *session.State, chatID int64) error {
	if !s.ShowAnalysis() {
		return b.sendText(chatID, "📈 As estatísticas fazem parte do plano Pro. Ativa com /plan pro.")
	}
	summary, err := s.Performance.Summary(ctx)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	recent, err := s.Performance.RecentCompleted(ctx, recentLimit)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	return b.sendText(chatID, renderStats(summary, recent))
}

func (b *Bot) handleAgenda(ctx context.Context, s *session.State, chatID int64) error {
	text, empty, err := b.agenda.DailyAgenda(ctx, s.Planner, s.Today())
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}
	if empty {
		return b.sendText(chatID, fmt.Sprintf("📅 Nada planeado entre hoje e domingo (%s).", calendar.FormatDate(calendar.WeekOf(s.Today())[calendar.DaysPerWeek-1])))
	}
	return b.sendText(chatID, text)
}

func profileExample(field string) string {
	switch field {
	case "brand":
		return "Atelier Lua"
	case "niche":
		return "moda sustentável"
	case "tone":
		return "próximo e divertido"
	default:
		return "promoção"
	}
}
