package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vtryon/lensmart/config"
	"github.com/vtryon/lensmart/internal/adminapi"
	"github.com/vtryon/lensmart/internal/app"
	"github.com/vtryon/lensmart/internal/storeapi"
	"github.com/vtryon/lensmart/internal/webserver"
)

var (
	h        bool
	showVer  bool
	initDb   bool
	conffile string
)

// Version is stamped by the build
var Version = "dev"

func init() {
	flag.BoolVar(&h, "h", false, "help")
	flag.BoolVar(&showVer, "v", false, "print version")
	flag.BoolVar(&initDb, "initdb", false, "drop and recreate every table, then exit")
	flag.StringVar(&conffile, "c", "lensmart.yml", "config file")
}

func printHelp() {
	if h {
		fmt.Fprintf(os.Stderr, "lensmart storefront backend\n\nUsage: lensmart [-c configfile] [-initdb]\n\n")
		flag.PrintDefaults()
		os.Exit(0)
	}
}

func main() {
	flag.Parse()
	printHelp()
	if showVer {
		fmt.Println(Version)
		os.Exit(0)
	}

	cfg := config.LoadConfig(conffile)

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if initDb {
		application.DropAll()
		application.InitDb()
		zap.L().Info("database initialized")
		return
	}

	application.StartBackgroundJobs(context.Background())

	webserver.Init(application)
	adminapi.InitRouter()
	storeapi.InitRouter()

	errchan := make(chan error, 1)
	go func() {
		errchan <- webserver.Listen()
	}()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errchan:
		zap.L().Fatal("webserver stopped", zap.Error(err))
	case sig := <-sigchan:
		zap.L().Info("shutting down", zap.String("signal", sig.String()))
		if err := webserver.Shutdown(); err != nil {
			zap.L().Error("shutdown error", zap.Error(err))
		}
	}
}
