package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"
	"persona/engine/actors"
	"persona/engine/library"
	"persona/messaging/eventcatcher"
	"persona/messaging/eventconductor"
	"persona/messaging/mailbox"
	"persona/messaging/relays"
	"persona/state/replay"
)

func main() {
	// Various aspect of this application require global and local settings. To keep things
	// clean and tidy we put these settings in a Viper configuration.
	conf := viper.New()

	// Now we initialise this configuration with basic settings that are required on startup.
	actors.InitConfig(conf)
	// make the config accessible globally
	actors.SetConfig(conf)

	// the wallet's public key is the address of the identity program
	wallet := actors.MyWallet()
	library.LogCLI("Identity program address: "+wallet.Account, 4)

	conductor := eventconductor.New()
	guard := replay.New(conf.GetDuration("replayTTL"))
	mb := mailbox.New(wallet.Account, conductor, relays.Outbox(wallet, conf.GetStringSlice("relaysMust")), guard)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	caught := make(chan struct{})
	actors.GetWaitGroup().Add(2)
	go func() {
		defer actors.GetWaitGroup().Done()
		mb.Run(ctx)
	}()
	go func() {
		defer actors.GetWaitGroup().Done()
		defer close(caught)
		if err := eventcatcher.Catch(ctx, mb); err != nil {
			library.LogCLI(err.Error(), 1)
		}
	}()

	interrupt := make(chan struct{})
	go cliListener(interrupt, conductor, guard)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	select {
	case <-interrupt:
	case <-signals:
	case <-caught:
	case <-actors.GetTerminateChan():
	}
	cancel()
	actors.Shutdown()
	fmt.Println("Identity program stopped")
}
