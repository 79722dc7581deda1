package main

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/tfelder/agentware/agent"
	"github.com/tfelder/agentware/memory"
	"github.com/tfelder/agentware/tools"
)

const telegramAgentSystemPrompt = `You are a Telegram bot operator. You can send messages to chats,
fetch pending updates, and register webhooks using the available tools.
When the user asks to send a message without naming a chat, use the default chat ID from the
conversation context. Report the API results clearly.`

const telegramChatSystemPrompt = `You are a helpful assistant chatting over Telegram.
Keep replies short enough to read on a phone. Use the conversation history for context.`

func telegramCmd() *cobra.Command {
	var listen bool

	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "Drive the Telegram Bot API from an agent, or serve a chat bot",
		Long:  "By default runs an interactive agent that operates the Telegram Bot API (send messages, fetch updates, set webhooks). With --listen it becomes a chat bot answering incoming messages, keeping per-chat history in SQLite.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			if cfg.Telegram.Token == "" {
				return fmt.Errorf("telegram token is not set (TELEGRAM_BOT_TOKEN or telegram.token)")
			}

			bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
			if err != nil {
				return fmt.Errorf("create telegram bot: %w", err)
			}
			slog.Info("authorized on telegram", "account", bot.Self.UserName)

			if listen {
				return runTelegramBot(ctx, bot)
			}
			return runTelegramAgent(ctx, bot)
		},
	}

	cmd.Flags().BoolVar(&listen, "listen", false, "answer incoming messages instead of driving the API interactively")
	return cmd
}

// runTelegramAgent is the interactive mode: the model operates the
// Telegram API through tools.
func runTelegramAgent(ctx context.Context, bot *tgbotapi.BotAPI) error {
	model, err := newModel(ctx, cfg, nil)
	if err != nil {
		return err
	}

	systemPrompt := telegramAgentSystemPrompt
	if cfg.Telegram.ChatID != "" {
		systemPrompt += fmt.Sprintf("\nThe default chat ID is %s.", cfg.Telegram.ChatID)
	}

	operator := agent.New(agent.Config{
		Name:         "telegram",
		Model:        asAgentModel(model),
		SystemPrompt: systemPrompt,
		Tools:        tools.TelegramTools(bot),
	})

	banner := "Telegram Agent\n" +
		"Example commands:\n" +
		"  'send message Hello from the agent!'\n" +
		"  'set webhook https://myserver.com/webhook'\n" +
		"  'get updates'"

	return repl(ctx, banner, func(ctx context.Context, input string) (string, error) {
		return operator.Run(ctx, input)
	})
}

// runTelegramBot is the listening mode: every incoming message gets an
// agent reply, with per-chat history persisted in SQLite.
func runTelegramBot(ctx context.Context, bot *tgbotapi.BotAPI) error {
	model, err := newModel(ctx, cfg, nil)
	if err != nil {
		return err
	}

	store, err := memory.NewSQLiteMemory(cfg.Memory.DBPath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 60
	updates := bot.GetUpdatesChan(updateCfg)

	slog.Info("telegram bot listening")
	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			go answerTelegramMessage(ctx, bot, asAgentModel(model), store, update.Message)
		}
	}
}

func answerTelegramMessage(ctx context.Context, bot *tgbotapi.BotAPI, model agent.Model, store memory.Memory, msg *tgbotapi.Message) {
	sessionID := fmt.Sprintf("tg-%d", msg.Chat.ID)

	history, err := store.List(ctx, sessionID)
	if err != nil {
		slog.Error("load history failed", "session", sessionID, "err", err)
	}

	assistant := agent.New(agent.Config{
		Name:         "telegram-chat",
		Model:        model,
		SystemPrompt: telegramChatSystemPrompt,
	})
	assistant.SetHistory(history)

	reply, err := assistant.Run(ctx, msg.Text)
	if err != nil {
		slog.Error("agent reply failed", "session", sessionID, "err", err)
		reply = fmt.Sprintf("An error occurred: %v", err)
	} else {
		if err := store.Store(ctx, sessionID, agent.NewMessage("user", msg.Text), nil); err != nil {
			slog.Error("store user message failed", "err", err)
		}
		if err := store.Store(ctx, sessionID, agent.NewMessage("assistant", reply), nil); err != nil {
			slog.Error("store reply failed", "err", err)
		}
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	out.ReplyToMessageID = msg.MessageID
	if _, err := bot.Send(out); err != nil {
		slog.Error("send reply failed", "chat", msg.Chat.ID, "err", err)
	}
}
