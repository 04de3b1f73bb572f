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

func (b *Bot) startGenerateConversation(s *session.State, chatID int64) error {
	if !s.Quota.CanGenerate() {
		return b.sendText(chatID, fmt.Sprintf("🚫 Já usaste as %d gerações de hoje do plano %s.", s.Quota.Used(), s.Quota.Tier()))
	}
	b.clearConfirmation(chatID)
	b.setConversation(chatID, &conversationState{stage: stagePlatform})
	return b.sendWithReplyMarkup(chatID, "🆕 Vamos criar conteúdo.\n<b>Passo 1:</b> para que plataforma?", platformKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, s *session.State, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	state := b.getConversation(chatID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stagePlatform:
		platform, err := model.ParsePlatform(text)
		if err != nil {
			return b.sendWithReplyMarkup(chatID, "Escolhe Instagram ou TikTok.", platformKeyboard())
		}
		state.platform = string(platform)
		state.stage = stageMessage
		return b.sendWithReplyMarkup(chatID, "✏️ <b>Passo 2:</b> qual é a mensagem principal da publicação?", cancelKeyboard())
	case stageMessage:
		if text == "" {
			return b.sendWithReplyMarkup(chatID, "Escreve a mensagem principal.", cancelKeyboard())
		}
		state.message = text
		state.stage = stageExtra
		return b.sendWithReplyMarkup(chatID, "➕ <b>Passo 3:</b> alguma informação extra (preço, datas, link)? Ou «Saltar».", skipKeyboard())
	case stageExtra:
		if !isSkipInput(text) {
			state.extra = text
		}
		return b.generate(ctx, s, chatID, state)
	case stagePick:
		index, err := parseIndex(text, "")
		if err != nil {
			return b.sendText(chatID, "Toca em «Adicionar» na variação que queres agendar, ou envia o número dela.")
		}
		return b.pickVariation(s, chatID, state.generation, index-1)
	case stageDate:
		date, err := parseDateInput(text, s.Today(), s.Location())
		if err != nil {
			return b.sendWithReplyMarkup(chatID, "Não reconheço a data. Usa <code>2025-03-14</code>, «Hoje» ou «Amanhã».", dateKeyboard(s.Today()))
		}
		state.date = date
		state.stage = stageTime
		recommended, err := s.Performance.RecommendedTime(ctx)
		if err != nil {
			return err
		}
		return b.sendWithReplyMarkup(chatID, "⏰ <b>A que horas?</b> Formato <code>HH:MM</code>.", timeKeyboard(recommended))
	case stageTime:
		return b.commit(ctx, s, chatID, state, text)
	default:
		b.clearConversation(chatID)
		return b.sendText(chatID, "Conversa reiniciada. Tenta outra vez com /generate.")
	}
}

func (b *Bot) generate(ctx context.Context, s *session.State, chatID int64, state *conversationState) error {
	variations, err := s.Generate(ctx, session.GenerateInput{
		Platform:  state.platform,
		Message:   state.message,
		ExtraInfo: state.extra,
	})
	if err != nil {
		b.clearConversation(chatID)
		b.log.Warn("generate", zap.Int64("chat", chatID), zap.Error(err))
		return b.sendText(chatID, userMessage(err))
	}
	if len(variations) == 0 {
		b.clearConversation(chatID)
		return b.sendText(chatID, "O gerador não devolveu variações. Não contou para a quota, tenta com outra mensagem.")
	}

	state.generation = b.nextGeneration()
	state.variations = variations
	state.stage = stagePick
	b.log.Info("variations generated", zap.Int64("chat", chatID), zap.Int("count", len(variations)))

	msg := tgbotapi.NewMessage(chatID, renderVariations(variations, s.ShowAnalysis()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = variationKeyboard(state.generation, variations)
	_, err = b.out.Send(msg)
	return err
}

func (b *Bot) pickVariation(s *session.State, chatID int64, generation uint64, index int) error {
	state := b.getConversation(chatID)
	if state == nil || state.stage != stagePick || state.generation != generation {
		return b.sendText(chatID, "Estas variações já não estão ativas. Gera novas com /generate.")
	}
	if index < 0 || index >= len(state.variations) {
		return b.sendText(chatID, fmt.Sprintf("Escolhe um número entre 1 e %d.", len(state.variations)))
	}

	chosen := state.variations[index]
	state.chosen = &chosen
	state.stage = stageDate
	text := fmt.Sprintf("📌 %s\n\n📆 <b>Para que dia?</b> Formato <code>AAAA-MM-DD</code>.", escape(chosen.DecoratedTitle))
	return b.sendWithReplyMarkup(chatID, text, dateKeyboard(s.Today()))
}

func (b *Bot) commit(ctx context.Context, s *session.State, chatID int64, state *conversationState, clock string) error {
	if _, err := calendar.ParseClock(clock); err != nil {
		return b.sendWithReplyMarkup(chatID, "Hora inválida. Usa <code>HH:MM</code>, por exemplo <code>18:30</code>.", cancelKeyboard())
	}
	if state.chosen == nil {
		b.clearConversation(chatID)
		return b.sendText(chatID, "Nenhuma variação escolhida. Recomeça com /generate.")
	}

	task, err := s.Commit(ctx, *state.chosen, state.date, clock, state.platform)
	b.clearConversation(chatID)
	if err != nil {
		return b.sendText(chatID, userMessage(err))
	}

	b.log.Info("task scheduled", zap.Int64("chat", chatID), zap.Uint("task", task.ID), zap.String("date", task.ScheduledDate))
	s.Anchor = calendar.Day(state.date)
	return b.sendText(chatID, renderScheduled(*task))
}
