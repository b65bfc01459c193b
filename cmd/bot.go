package main

import (
	"errors"

	"github.com/spf13/cobra"

	"inventory-vision/internal/api/telegram"
)

func newBotCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_TOKEN is required")
			}

			bot, err := telegram.NewBot(
				rt.cfg.TelegramToken,
				rt.log,
				rt.container.UserService,
				rt.container.PipelineService,
				rt.container.Storage,
			)
			if err != nil {
				return err
			}

			rt.log.Info("Bot is running...")
			return bot.Run(cmd.Context())
		},
	}
}
