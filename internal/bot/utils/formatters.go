package utils

import (
	"fmt"
	"strconv"
	"strings"

	"jobboard-activity/internal/models"
)

// FormatJob renders a job card. A negative score is not shown.
func FormatJob(job *models.Job, score float64) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*%s*\n\n", EscapeMarkdown(TruncateString(job.Title, 120))))

	if company := job.CompanyOf(); company != "" {
		sb.WriteString(fmt.Sprintf("🏢 *Company:* %s\n", EscapeMarkdown(company)))
	}

	if job.Location != "" {
		sb.WriteString(fmt.Sprintf("📍 *Location:* %s\n", EscapeMarkdown(job.Location)))
	}

	if category := job.CategoryOf(); category != "" {
		sb.WriteString(fmt.Sprintf("🗂 *Category:* %s\n", EscapeMarkdown(category)))
	}

	if job.EmploymentType != "" {
		sb.WriteString(fmt.Sprintf("📋 *Employment:* %s\n", EscapeMarkdown(job.EmploymentType)))
	}

	if posted, ok := job.PostedAt(); ok {
		sb.WriteString(fmt.Sprintf("📅 *Posted:* %s\n", EscapeMarkdown(posted.Format("02.01.2006"))))
	}

	if score >= 0 {
		sb.WriteString(fmt.Sprintf("\n✨ *Match score:* %s\n", EscapeMarkdown(FormatScore(score))))
	}

	return sb.String()
}

func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func FormatWelcomeMessage(firstName, account string) string {
	linked := "You are browsing anonymously\\. Use /link to attach your account\\."
	if account != "" {
		linked = fmt.Sprintf("Linked account: `%s`", EscapeMarkdown(account))
	}

	return fmt.Sprintf(`👋 Hi, *%s*\!

I help you find jobs and learn what you like as you browse\.

*Commands:*
/jobs \- browse the latest jobs
/recommend \- jobs like the ones you viewed and saved
/foryou \- jobs from your favourite categories
/stats \- your activity
/help \- help

%s`, EscapeMarkdown(firstName), linked)
}

func FormatHelpMessage() string {
	return `*📖 Help*

/jobs \- latest jobs
/jobs golang \- search jobs
/jobs golang @ Berlin \- search jobs in a location
/recommend \- recommendations from your recent activity
/foryou \- jobs from your top categories
/stats \- what you viewed, saved and applied to
/link ` + "`account`" + ` \- attach your account so activity follows you
/unlink \- record activity anonymously again

*Buttons under each job:*
⭐ Save \- keep it and see more like it
✅ Apply \- open the application page
🙈 Hide \- never recommend it again`
}

func FormatNoJobsMessage() string {
	return "🤷 *No jobs found*\n\nTry another query or check back later\\."
}

func FormatNoRecommendationsMessage() string {
	return "ℹ️ *Nothing personal yet*\n\nView and save a few jobs first\\. Meanwhile here are the newest listings\\."
}

func FormatApplyMessage(job *models.Job) string {
	return fmt.Sprintf("✅ Applying to *%s*\\. Good luck\\!", EscapeMarkdown(job.Title))
}

func FormatLinkedMessage(account string) string {
	return fmt.Sprintf("🔗 Linked to `%s`\\. Activity recorded while offline will be sent under this account\\.", EscapeMarkdown(account))
}

// StatsSummary is what /stats shows.
type StatsSummary struct {
	Stats         models.ActivityStats
	TopCategories []string
	Pending       int
	LinkedAccount string
}

func FormatStats(s StatsSummary) string {
	var sb strings.Builder

	sb.WriteString("*📊 Your activity*\n\n")
	sb.WriteString(fmt.Sprintf("👀 Viewed: %d\n", s.Stats.TotalViews))
	sb.WriteString(fmt.Sprintf("⭐ Saved: %d\n", s.Stats.TotalSaves))
	sb.WriteString(fmt.Sprintf("✅ Applied: %d\n", s.Stats.TotalApplies))
	sb.WriteString(fmt.Sprintf("🙈 Hidden: %d\n", s.Stats.TotalHides))
	sb.WriteString(fmt.Sprintf("🔍 Searches: %d\n", s.Stats.TotalSearches))

	if len(s.TopCategories) > 0 {
		sb.WriteString(fmt.Sprintf("\n🗂 *Top categories:* %s\n", EscapeMarkdown(strings.Join(s.TopCategories, ", "))))
	}

	if len(s.Stats.TopLocations) > 0 {
		sb.WriteString(fmt.Sprintf("📍 *Top locations:* %s\n", EscapeMarkdown(strings.Join(s.Stats.TopLocations, ", "))))
	}

	if s.Pending > 0 {
		sb.WriteString(fmt.Sprintf("\n⏳ %d events waiting to be sent\n", s.Pending))
	}

	if s.LinkedAccount != "" {
		sb.WriteString(fmt.Sprintf("\n🔗 Account: `%s`\n", EscapeMarkdown(s.LinkedAccount)))
	}

	return sb.String()
}

// EscapeMarkdown escapes special characters for Telegram MarkdownV2
func EscapeMarkdown(text string) string {
	// \ _ * [ ] ( ) ~ ` > # + - = | { } . !
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)

	return replacer.Replace(text)
}

// TruncateString cuts s to maxLen runes.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
