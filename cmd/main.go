package main

import (
	"log"

	"github.com/BIwashi/sigcodec/app/convert"
	"github.com/BIwashi/sigcodec/app/decode"
	"github.com/BIwashi/sigcodec/app/encode"
	"github.com/BIwashi/sigcodec/app/gen"
	"github.com/BIwashi/sigcodec/pkg/cli"
)

func main() {
	c := cli.NewCLI(
		"sigcodec",
		"Decode and encode CAN signals using DBC or YAML network definitions.",
	)

	c.AddCommands(
		decode.NewCommand(),
		encode.NewCommand(),
		convert.NewCommand(),
		gen.NewCommand(),
	)

	if err := c.Run(); err != nil {
		log.Fatal(err)
	}
}
