package main

import (
	"context"
	"log"
	"os"

	"github.com/darasahq/darasa/core"
	mongodb "github.com/darasahq/darasa/storage/mongo"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	core.NewConfig()

	// set up DB
	ctx := context.Background()
	db, err := mongodb.Open(ctx, core.Conf)
	errAndDie(err)
	defer func() {
		if err := mongodb.Close(ctx, db); err != nil {
			logger.Printf("closing database: %v", err)
		}
	}()

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: mongodb.NewUserRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
