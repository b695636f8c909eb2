package main

import (
	"log"
	"os"

	"git.lost.host/meutraa/eotf/internal/config"
	"git.lost.host/meutraa/eotf/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); nil != err {
		log.Fatalln(err)
	}
}

func run(args []string) error {
	c, err := config.Parse(args)
	if nil != err {
		return err
	}
	if err := logger.Init(c.Logger()); nil != err {
		return err
	}
	defer logger.Sync()

	p := &Program{Config: c}
	defer p.Close()
	if err := p.Init(); nil != err {
		return err
	}
	if c.Replay {
		return p.Replay(os.Stdout)
	}
	if err := p.Open(); nil != err {
		return err
	}
	return p.Run()
}
