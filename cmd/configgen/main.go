package main

import (
	"flag"
	"log"

	"github.com/danmuck/rvhal/internal/config"
)

const defaultPath = "cmd/halsim/config.toml"

func main() {
	output := flag.String("output", defaultPath, "output path for the sim config template")
	validate := flag.Bool("validate", false, "validate an existing sim config file")
	input := flag.String("input", defaultPath, "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.LoadSimConfig(*input)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated sim config at %s (machine=%s ssid=%s port=%d)",
			*input, cfg.Machine.Name, cfg.Guest.SSID, cfg.Guest.Port)
		return
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote sim config template to %s", *output)
}
