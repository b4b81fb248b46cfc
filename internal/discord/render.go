package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/wotclan/tanktrivia/internal/report"
	"github.com/wotclan/tanktrivia/internal/trivia"
)

var ammoSlotNames = [...]string{"standard", "special", "explosive"}

func ammoSlotName(slot int) string {
	if slot >= 0 && slot < len(ammoSlotNames) {
		return ammoSlotNames[slot]
	}
	return fmt.Sprintf("slot %d", slot)
}

func renderQuestion(view trivia.QuestionView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Question %d** — %s\n", view.Slot+1, view.Prompt)
	fmt.Fprintf(&b, "You have %d seconds. You can change your pick until the timer runs out.", int(view.Duration.Seconds()))
	return b.String()
}

func renderResult(view trivia.ResultView) string {
	var b strings.Builder
	switch {
	case view.Correct:
		fmt.Fprintf(&b, "✅ Correct! It was the **%s** (%s ammo), answered in %.1fs.\n",
			view.AnswerName, ammoSlotName(view.AmmoSlot), view.ResponseTime.Seconds())
	case view.Answered:
		fmt.Fprintf(&b, "❌ Wrong — the answer was the **%s** (%s ammo).\n",
			view.AnswerName, ammoSlotName(view.AmmoSlot))
	default:
		fmt.Fprintf(&b, "⌛ Time's up — the answer was the **%s** (%s ammo).\n",
			view.AnswerName, ammoSlotName(view.AmmoSlot))
	}
	fmt.Fprintf(&b, "Your rating: **%d**", view.Elo)
	if view.Streak > 1 {
		fmt.Fprintf(&b, " — %d correct in a row!", view.Streak)
	}
	return b.String()
}

func renderAck(ack trivia.AckKind) string {
	switch ack {
	case trivia.AckRecorded:
		return "Answer locked in. You can still change it before the timer ends."
	case trivia.AckRevised:
		return "Answer changed."
	case trivia.AckUnchanged:
		return "That's already your answer."
	default:
		return "Noted."
	}
}

func renderScoreboard(rows []report.ScoreboardRow, month time.Time) string {
	if len(rows) == 0 {
		return fmt.Sprintf("No ratings yet for %s.", month.Format("January 2006"))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Scoreboard — %s**\n", month.Format("January 2006"))
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s — %d\n", row.Marker, row.PlayerName, row.Elo)
	}
	return b.String()
}

func renderMonthlyStats(stats *report.MonthlyStats) string {
	if stats == nil {
		return "No games on record for you yet. Try /play!"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s — %s**\n", stats.PlayerName, stats.Month)
	fmt.Fprintf(&b, "Rating: **%d**\n", stats.FinalElo)
	fmt.Fprintf(&b, "Questions answered: %d (%d correct)\n", stats.QuestionCount, stats.CorrectCount)
	fmt.Fprintf(&b, "Best streak: %d\n", stats.MaxStreak)
	if stats.Fastest != nil {
		fmt.Fprintf(&b, "Fastest answer: %.1fs", stats.Fastest.Seconds())
		if stats.Slowest != nil {
			fmt.Fprintf(&b, " — slowest: %.1fs", stats.Slowest.Seconds())
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderYesterday(rep *report.YesterdayReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Results for %s**\n", rep.Date.Format("January 2, 2006"))
	if len(rep.Questions) == 0 {
		b.WriteString("No questions were played.\n")
	}
	for _, q := range rep.Questions {
		fmt.Fprintf(&b, "\nQuestion %d — **%s** (%s ammo)\n", q.Slot+1, q.TankName, ammoSlotName(q.AmmoSlot))
		if len(q.Top) == 0 {
			b.WriteString("Nobody got it right.\n")
			continue
		}
		for i, top := range q.Top {
			fmt.Fprintf(&b, "%s %s — %.1fs\n", rankMarker(i), top.PlayerName, top.ResponseTime.Seconds())
		}
	}
	if len(rep.Decay) > 0 {
		b.WriteString("\n**Inactivity decay**\n")
		for _, d := range rep.Decay {
			fmt.Fprintf(&b, "%s: %d → %d\n", d.PlayerName, d.OldElo, d.NewElo)
		}
	}
	return b.String()
}

func rankMarker(idx int) string {
	markers := [...]string{"🥇", "🥈", "🥉"}
	if idx < len(markers) {
		return markers[idx]
	}
	return fmt.Sprintf("%d.", idx+1)
}
