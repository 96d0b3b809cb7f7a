package utils

import (
	"jobboard-activity/internal/models"

	tele "gopkg.in/telebot.v3"
)

const (
	BtnJobs      = "📋 Jobs"
	BtnRecommend = "⭐ Recommended"
	BtnForYou    = "🎯 For you"
	BtnStats     = "📊 Stats"
	BtnHelp      = "❓ Help"
)

func MainMenuKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}

	menu.Reply(
		menu.Row(menu.Text(BtnJobs), menu.Text(BtnRecommend)),
		menu.Row(menu.Text(BtnForYou), menu.Text(BtnStats)),
		menu.Row(menu.Text(BtnHelp)),
	)

	return menu
}

// CallbackData is the payload of a job button, e.g. "save:42".
func CallbackData(action models.ActivityType, jobID string) string {
	return string(action) + ":" + jobID
}

// InlineJobKeyboard shows save, apply and hide buttons, plus a link when the
// job has a URL.
func InlineJobKeyboard(job *models.Job) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	actions := menu.Row(
		tele.Btn{Text: "⭐ Save", Data: CallbackData(models.ActivitySave, job.ID)},
		tele.Btn{Text: "✅ Apply", Data: CallbackData(models.ActivityApply, job.ID)},
		tele.Btn{Text: "🙈 Hide", Data: CallbackData(models.ActivityHide, job.ID)},
	)

	if job.URL == "" {
		menu.Inline(actions)
		return menu
	}

	menu.Inline(
		actions,
		menu.Row(menu.URL("🔗 Open job", job.URL)),
	)

	return menu
}

func InlineOpenKeyboard(url string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	if url == "" {
		return menu
	}

	menu.Inline(menu.Row(menu.URL("🔗 Open application page", url)))

	return menu
}
