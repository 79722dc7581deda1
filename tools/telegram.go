package tools

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tfelder/agentware/agent"
)

// TelegramTools exposes a Telegram bot's API surface as agent tools:
// send a message, poll for updates, and register a webhook.
func TelegramTools(bot *tgbotapi.BotAPI) []agent.Tool {
	return []agent.Tool{
		&sendTelegramMessageTool{bot: bot},
		&getTelegramUpdatesTool{bot: bot},
		&setTelegramWebhookTool{bot: bot},
	}
}

type sendTelegramMessageTool struct {
	bot *tgbotapi.BotAPI
}

func (t *sendTelegramMessageTool) Name() string { return "send_telegram_message" }

func (t *sendTelegramMessageTool) Description() string {
	return "Send a text message to a Telegram chat by chat ID."
}

func (t *sendTelegramMessageTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"chat_id": map[string]interface{}{
				"type":        "string",
				"description": "Target chat ID",
			},
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Message text to send",
			},
		},
		"required": []string{"chat_id", "text"},
	}
}

func (t *sendTelegramMessageTool) Execute(ctx context.Context, params map[string]interface{}) (*agent.ToolResult, error) {
	chatID, err := chatIDParam(params["chat_id"])
	if err != nil {
		return agent.NewToolError(err.Error()), nil
	}
	text, _ := params["text"].(string)
	if text == "" {
		return agent.NewToolError("missing required parameter: text"), nil
	}

	sent, err := t.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return agent.NewToolError(fmt.Sprintf("send message: %v", err)), nil
	}
	return agent.NewToolResult(map[string]interface{}{
		"message_id": sent.MessageID,
		"chat_id":    chatID,
	}), nil
}

type getTelegramUpdatesTool struct {
	bot *tgbotapi.BotAPI
}

func (t *getTelegramUpdatesTool) Name() string { return "get_telegram_updates" }

func (t *getTelegramUpdatesTool) Description() string {
	return "Fetch pending updates (incoming messages) for the bot."
}

func (t *getTelegramUpdatesTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"offset": map[string]interface{}{
				"type":        "number",
				"description": "Update offset; updates below it are skipped",
			},
			"limit": map[string]interface{}{
				"type":        "number",
				"description": "Maximum number of updates to return (default 10)",
			},
		},
	}
}

func (t *getTelegramUpdatesTool) Execute(ctx context.Context, params map[string]interface{}) (*agent.ToolResult, error) {
	cfg := tgbotapi.NewUpdate(0)
	if offset, ok := params["offset"].(float64); ok {
		cfg.Offset = int(offset)
	}
	cfg.Limit = 10
	if limit, ok := params["limit"].(float64); ok && limit > 0 {
		cfg.Limit = int(limit)
	}

	updates, err := t.bot.GetUpdates(cfg)
	if err != nil {
		return agent.NewToolError(fmt.Sprintf("get updates: %v", err)), nil
	}

	out := make([]map[string]interface{}, 0, len(updates))
	for _, u := range updates {
		if u.Message == nil {
			continue
		}
		out = append(out, map[string]interface{}{
			"update_id": u.UpdateID,
			"chat_id":   u.Message.Chat.ID,
			"from":      u.Message.From.UserName,
			"text":      u.Message.Text,
		})
	}
	return agent.NewToolResult(out), nil
}

type setTelegramWebhookTool struct {
	bot *tgbotapi.BotAPI
}

func (t *setTelegramWebhookTool) Name() string { return "set_telegram_webhook" }

func (t *setTelegramWebhookTool) Description() string {
	return "Register a webhook URL so Telegram pushes updates instead of being polled."
}

func (t *setTelegramWebhookTool) InputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "HTTPS URL Telegram should deliver updates to",
			},
		},
		"required": []string{"url"},
	}
}

func (t *setTelegramWebhookTool) Execute(ctx context.Context, params map[string]interface{}) (*agent.ToolResult, error) {
	url, _ := params["url"].(string)
	if url == "" {
		return agent.NewToolError("missing required parameter: url"), nil
	}

	hook, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return agent.NewToolError(fmt.Sprintf("invalid webhook url: %v", err)), nil
	}
	resp, err := t.bot.Request(hook)
	if err != nil {
		return agent.NewToolError(fmt.Sprintf("set webhook: %v", err)), nil
	}
	return agent.NewToolResult(map[string]interface{}{
		"ok":          resp.Ok,
		"description": resp.Description,
	}), nil
}

func chatIDParam(v interface{}) (int64, error) {
	switch id := v.(type) {
	case string:
		parsed, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("chat_id must be numeric: %v", err)
		}
		return parsed, nil
	case float64:
		return int64(id), nil
	default:
		return 0, fmt.Errorf("missing required parameter: chat_id")
	}
}
