package main

import (
	"flag"

	"github.com/danmuck/tssctl/internal/config"
	"github.com/danmuck/tssctl/internal/logging"
	"github.com/rs/zerolog/log"
)

const defaultPath = "cmd/tssctl/config.toml"

func main() {
	kind := flag.String("kind", "tss", "config kind: tss|simulator|yaml")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to "+defaultPath+")")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()
	logging.ConfigureRuntime()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath
		}
		if _, err := config.Load(path); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("config invalid")
		}
		log.Info().Str("path", path).Msg("config valid")
		return
	}

	target := *output
	if target == "" {
		target = defaultPath
		if *kind == "yaml" {
			target = "cmd/tssctl/config.yaml"
		}
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal().Err(err).Str("kind", *kind).Msg("write template")
	}
	log.Info().Str("kind", *kind).Str("path", target).Msg("wrote config template")
}
