package main

import (
	"os"

	"go.uber.org/fx"

	"solartycoon/internal/config"
	"solartycoon/internal/saveserver"
)

func main() {
	app := fx.New(
		fx.Provide(func() (config.Config, error) {
			return config.Load(os.Getenv("SOLAR_CONFIG_FILE"))
		}),
		saveserver.Module,
	)
	app.Run()
}
