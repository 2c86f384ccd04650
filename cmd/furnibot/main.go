// Command furnibot runs the furniture catalog Telegram bot.
package main

import (
	"log"

	corecmd "github.com/m3rciful/furnibot/core/cmd"
	"github.com/m3rciful/furnibot/internal/bot"
	"github.com/m3rciful/furnibot/internal/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "configs/config.yaml",
		EnvFiles:          []string{".env"},
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: bot.Bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}
