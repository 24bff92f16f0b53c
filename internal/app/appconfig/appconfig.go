package appconfig

import (
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"onegov.dev/electionday/internal/app/appcontext"
	"onegov.dev/electionday/internal/pkg/projectpath"
)

const envPrefix = "electionday"

func Parse(ctx appcontext.Ctx) (*Config, error) {
	err := godotenv.Load(filepath.Join(projectpath.Root, ".env"))
	if err != nil {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	var config ConfigSpec
	err = envconfig.Process(envPrefix, &config)
	if err != nil {
		_ = envconfig.Usage(envPrefix, &config)
		return nil, fmt.Errorf("failed to parse configuration: %w. More info on how to configure the service is located at https://pkg.go.dev/onegov.dev/electionday/internal/app/appconfig#ConfigSpec", err)
	}

	return &Config{
		ConfigSpec: config,
		AppContext: ctx,
	}, nil
}
