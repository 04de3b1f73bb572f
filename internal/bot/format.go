package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"contentforge/internal/calendar"
	"contentforge/internal/model"
	"contentforge/internal/service"
	"contentforge/internal/session"
)

const (
	btnSkip           = "⏭️ Saltar"
	btnConfirm        = "✅ Confirmar"
	btnCancel         = "↩️ Cancelar"
	btnCancelDialog   = "⏪ Cancelar operação"
	btnToday          = "Hoje"
	btnTomorrow       = "Amanhã"
	menuLabelGenerate = "✨ Gerar"
	menuLabelWeek     = "🗓 Semana"
	menuLabelStats    = "📈 Estatísticas"
	menuLabelHelp     = "ℹ️ Ajuda"
	weekButtonLimit   = 8
)

const helpText = "• /generate: gerar 3 variações e agendar uma\n" +
	"• /week [prev|next|AAAA-MM-DD]: planeador semanal\n" +
	"• /day [AAAA-MM-DD]: publicações de um dia\n" +
	"• /agenda: agenda de hoje\n" +
	"• /task &lt;id&gt;: detalhe de uma publicação\n" +
	"• /done &lt;id&gt;: marcar como publicada\n" +
	"• /remove &lt;id&gt;: remover do planeador\n" +
	"• /profile, /brand, /niche, /tone, /mode: perfil da marca\n" +
	"• /plan starter|pro, /quota: plano e gerações de hoje\n" +
	"• /stats: desempenho (Pro)\n" +
	"• /cancel: cancelar a operação atual"

var weekdayNames = [calendar.DaysPerWeek]string{"Seg", "Ter", "Qua", "Qui", "Sex", "Sáb", "Dom"}

func renderVariations(variations []model.ScoredVariation, analysis bool) string {
	var builder strings.Builder
	builder.WriteString("✨ <b>Variações geradas</b>\n\n")
	for i, v := range variations {
		builder.WriteString(fmt.Sprintf("<b>%d.</b> %s", i+1, escape(v.DecoratedTitle)))
		if v.Recommended {
			builder.WriteString(" ⭐ <i>recomendada</i>")
		}
		builder.WriteByte('\n')
		builder.WriteString(escape(v.Caption))
		builder.WriteByte('\n')
		if len(v.Hashtags) > 0 {
			builder.WriteString(escape(strings.Join(v.Hashtags, " ")))
			builder.WriteByte('\n')
		}
		if analysis {
			builder.WriteString(renderMetrics(v.Metrics))
		}
		builder.WriteByte('\n')
	}
	builder.WriteString("Toca em «Adicionar» para agendar.")
	return builder.String()
}

func renderMetrics(m model.Metrics) string {
	return fmt.Sprintf("📈 Score %.1f · Engajamento %.1f · Conversão %.1f\n", m.Score, m.Engagement, m.Conversion)
}

func renderScheduled(task model.Task) string {
	return fmt.Sprintf("✅ <b>Agendada</b>\n• <b>#%d</b> %s\n• %s · %s às %s\n\nVê a semana com /week.",
		task.ID, escape(task.Title), task.Platform, task.ScheduledDate, task.ScheduledTime)
}

func renderProfile(p session.Profile) string {
	return fmt.Sprintf("👤 <b>Perfil</b>\n• Marca: %s\n• Nicho: %s\n• Tom: %s\n• Modo: %s\n• Plataforma: %s",
		orDash(p.Brand), orDash(p.Niche), orDash(p.Tone), orDash(p.Mode), p.Platform)
}

func renderWeek(week []service.DayPlan, today time.Time) string {
	if len(week) == 0 {
		return "🗓 Semana vazia."
	}
	first, last := week[0].Date, week[len(week)-1].Date
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🗓 <b>Semana de %s a %s</b>\n", first.Format("02.01"), last.Format("02.01.2006")))

	todayKey := calendar.FormatDate(today)
	for i, day := range week {
		builder.WriteString(fmt.Sprintf("\n<b>%s %s</b>", weekdayNames[i%calendar.DaysPerWeek], day.Date.Format("02.01")))
		if calendar.FormatDate(day.Date) == todayKey {
			builder.WriteString(" · hoje")
		}
		builder.WriteByte('\n')
		if len(day.Tasks) == 0 {
			builder.WriteString("— livre\n")
			continue
		}
		for _, task := range day.Tasks {
			builder.WriteString(service.FormatAgendaLine(task))
		}
	}
	return strings.TrimSpace(builder.String())
}

func renderDay(day time.Time, tasks []model.Task) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📅 <b>%s</b>\n", day.Format("02.01.2006")))
	if len(tasks) == 0 {
		builder.WriteString("— sem publicações")
		return builder.String()
	}
	for _, task := range tasks {
		builder.WriteString(service.FormatAgendaLine(task))
	}
	return strings.TrimSpace(builder.String())
}

func renderTask(task model.Task, analysis bool) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("<b>#%d</b> %s\n", task.ID, escape(task.Title)))
	builder.WriteString(fmt.Sprintf("• %s · %s às %s\n", task.Platform, task.ScheduledDate, task.ScheduledTime))
	if task.IsDone() {
		builder.WriteString("• Estado: ✅ publicada")
		if task.CompletedAt != nil {
			builder.WriteString(" em " + task.CompletedAt.Format("02.01.2006 15:04"))
		}
		builder.WriteByte('\n')
	} else {
		builder.WriteString("• Estado: ⏳ planeada\n")
	}
	if task.Niche != "" {
		builder.WriteString(fmt.Sprintf("• Nicho: %s\n", escape(task.Niche)))
	}
	builder.WriteString("\n" + escape(task.Caption) + "\n")
	if len(task.Hashtags) > 0 {
		builder.WriteString(escape(strings.Join(task.Hashtags, " ")) + "\n")
	}
	if analysis {
		builder.WriteString("\n" + renderMetrics(model.Metrics{
			Score:      task.Score,
			Engagement: task.EngagementScore,
			Conversion: task.ConversionScore,
		}))
	}
	return strings.TrimSpace(builder.String())
}

func renderStats(summary service.PerformanceSummary, recent []model.Task) string {
	var builder strings.Builder
	builder.WriteString("📈 <b>Desempenho</b>\n")
	builder.WriteString(fmt.Sprintf("• Publicadas: %d\n", summary.Completed))
	if summary.HasData {
		builder.WriteString(fmt.Sprintf("• Score médio: %.2f\n", summary.AverageScore))
	} else {
		builder.WriteString("• Score médio: sem dados\n")
	}
	builder.WriteString(fmt.Sprintf("• Hora recomendada: %s\n", summary.RecommendedTime))

	if len(recent) > 0 {
		builder.WriteString("\n<b>Últimas publicadas</b>\n")
		for _, task := range recent {
			builder.WriteString(fmt.Sprintf("• %s %s · %s (%.1f)\n",
				task.ScheduledDate, task.ScheduledTime, escape(shortTitle(task.Title, 32)), task.Score))
		}
	}
	return strings.TrimSpace(builder.String())
}

// resolveWeekAnchor interprets the /week argument against the current anchor.
func resolveWeekAnchor(arg string, anchor, today time.Time, loc *time.Location) (time.Time, error) {
	if anchor.IsZero() {
		anchor = today
	}
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "":
		return anchor, nil
	case "prev", "anterior":
		return calendar.ShiftWeek(anchor, -1), nil
	case "next", "seguinte":
		return calendar.ShiftWeek(anchor, 1), nil
	case "today", "hoje":
		return today, nil
	default:
		return calendar.ParseDate(arg, loc)
	}
}

func parseDateInput(text string, today time.Time, loc *time.Location) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case strings.ToLower(btnToday):
		return today, nil
	case strings.ToLower(btnTomorrow), "amanha":
		return today.AddDate(0, 0, 1), nil
	default:
		return calendar.ParseDate(text, loc)
	}
}

func parseTaskID(data, prefix string) (uint, error) {
	raw := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(data), prefix))
	raw = strings.TrimPrefix(raw, "#")
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

func parseIndex(data, prefix string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(data), prefix)))
}

// addData encodes a variation button as add:<generation>:<index>.
func addData(generation uint64, index int) string {
	return fmt.Sprintf("%s%d:%d", cbAddPrefix, generation, index)
}

func parseAddData(data string) (uint64, int, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(data), cbAddPrefix)
	genPart, indexPart, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid variation button %q", data)
	}
	generation, err := strconv.ParseUint(genPart, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	index, err := strconv.Atoi(indexPart)
	if err != nil {
		return 0, 0, err
	}
	return generation, index, nil
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return escape(s)
}

func escape(s string) string {
	return html.EscapeString(s)
}

func variationKeyboard(generation uint64, variations []model.ScoredVariation) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, v := range variations {
		label := fmt.Sprintf("➕ Adicionar %d", i+1)
		if v.Recommended {
			label = fmt.Sprintf("⭐ Adicionar %d", i+1)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, addData(generation, i)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func weekKeyboard(week []service.DayPlan) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀️ Anterior", cbWeekPrefix+"prev"),
			tgbotapi.NewInlineKeyboardButtonData("Hoje", cbWeekPrefix+"today"),
			tgbotapi.NewInlineKeyboardButtonData("Seguinte ▶️", cbWeekPrefix+"next"),
		),
	}
	added := 0
	for _, day := range week {
		for _, task := range day.Tasks {
			if task.IsDone() || added >= weekButtonLimit {
				continue
			}
			rows = append(rows, taskButtons(task))
			added++
		}
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func taskKeyboard(task model.Task) tgbotapi.InlineKeyboardMarkup {
	if task.IsDone() {
		return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Remover", fmt.Sprintf("%s%d", cbRemovePrefix, task.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(taskButtons(task))
}

func taskButtons(task model.Task) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 20)), fmt.Sprintf("%s%d", cbDonePrefix, task.ID)),
		tgbotapi.NewInlineKeyboardButtonData("🗑", fmt.Sprintf("%s%d", cbRemovePrefix, task.ID)),
	)
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelGenerate),
			tgbotapi.NewKeyboardButton(menuLabelWeek),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelStats),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func platformKeyboard() tgbotapi.ReplyKeyboardMarkup {
	buttons := make([]tgbotapi.KeyboardButton, 0, len(model.Platforms))
	for _, p := range model.Platforms {
		buttons = append(buttons, tgbotapi.NewKeyboardButton(string(p)))
	}
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(buttons...),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func dateKeyboard(today time.Time) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnToday),
			tgbotapi.NewKeyboardButton(btnTomorrow),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(calendar.FormatDate(today.AddDate(0, 0, 2))),
			tgbotapi.NewKeyboardButton(calendar.FormatDate(today.AddDate(0, 0, 3))),
			tgbotapi.NewKeyboardButton(calendar.FormatDate(today.AddDate(0, 0, 4))),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func timeKeyboard(recommended string) tgbotapi.ReplyKeyboardMarkup {
	row := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(recommended))
	if recommended != calendar.DefaultPostAt {
		row = append(row, tgbotapi.NewKeyboardButton(calendar.DefaultPostAt))
	}
	kb := tgbotapi.NewReplyKeyboard(
		row,
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "saltar" || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirmar" || value == "sim"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancelar" || value == "não" || value == "nao"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "cancelar operação"
}
