package bot

import (
	"context"
	"errors"
	"fmt"
	"linkbrief/internal/domain"
	"linkbrief/internal/pipeline"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"mvdan.cc/xurls/v2"
)

// Telegram rejects longer message texts.
const maxMessageLen = 4096

const welcomeText = `🤖 *Welcome to linkbrief\!*

Send me a YouTube video or a website URL and I will reply with a summary of about 600 words\.`

//nolint:gochecknoglobals // Compiled once, safe for concurrent use.
var urlRe = xurls.Strict()

func (b *Bot) handleMessage(ctx context.Context, message *models.Message) error {
	text := strings.TrimSpace(message.Text)
	chatID := message.Chat.ID

	if strings.HasPrefix(text, "/start") {
		return b.sendMessage(ctx, chatID, welcomeText)
	}

	var result *domain.Result

	err := b.withSpinner(ctx, chatID, func() error {
		var summarizeErr error
		result, summarizeErr = b.summarizer.Summarize(ctx, extractURL(text))
		return summarizeErr
	})
	if err != nil {
		msg, isValidation := pipeline.ErrorMessage(err)
		if isValidation {
			return b.sendMessage(ctx, chatID, "⚠️ "+escapeMarkdownV2(msg))
		}

		return errors.Join(
			fmt.Errorf("summarize: %w", err),
			b.sendMessage(ctx, chatID, "❌ "+escapeMarkdownV2(msg)),
		)
	}

	return b.sendSummary(ctx, chatID, result)
}

func (b *Bot) sendSummary(ctx context.Context, chatID int64, result *domain.Result) error {
	header := "✅ *Summary generated successfully\\!*"
	if result.Title != "" {
		header += "\n_" + escapeMarkdownV2(result.Title) + "_"
	}

	if err := b.sendMessage(ctx, chatID, header); err != nil {
		return fmt.Errorf("send summary header: %w", err)
	}

	for _, chunk := range splitMessage(escapeMarkdownV2(result.Summary), maxMessageLen) {
		if err := b.sendMessage(ctx, chatID, chunk); err != nil {
			return fmt.Errorf("send summary chunk: %w", err)
		}
	}

	return nil
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.WarnContext(ctx, "Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	if err := b.rateLimiter.Wait(ctx, chatID); err != nil {
		return err
	}

	// See https://core.telegram.org/bots/api#markdownv2-style.
	_, err := b.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      normalizedText,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

// extractURL returns the first URL in text, or the whole text when there is
// none so that validation can report it.
func extractURL(text string) string {
	if u := urlRe.FindString(text); u != "" {
		return u
	}
	return strings.TrimSpace(text)
}
