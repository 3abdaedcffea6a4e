// Command craftbot runs the Telegram product listing assistant.
package main

import (
	"context"
	"fmt"
	"log"

	corecmd "github.com/m3rciful/craftbot/core/cmd"
	"github.com/m3rciful/craftbot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg, ok := carrier.(*app.Config)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			return app.New(ctx, cfg)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
