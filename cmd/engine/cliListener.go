package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/eiannone/keyboard"
	"persona/engine/actors"
	"persona/engine/library"
	"persona/messaging/eventconductor"
	"persona/state/replay"
)

// cliListener is a cheap and nasty way to inspect a running program. It listens for keypresses and executes commands.
func cliListener(interrupt chan struct{}, conductor *eventconductor.Conductor, guard *replay.Guard) {
	fmt.Println("VIEW CURRENT STATE:\ni: identity record\nw: current wallet\nc: engine config\nr: replay guard\nq: to quit\nSee cliListener.go for more")
	for {
		r, k, err := keyboard.GetSingleKey()
		if err != nil {
			library.LogCLI(fmt.Sprintf("console disabled: %s", err), 3)
			return
		}
		str := string(r)
		switch str {
		default:
			if k == keyboard.KeyEnter {
				fmt.Println("\n-----------------------------------")
				break
			}
			if r == 0 {
				break
			}
			fmt.Println("Key " + str + " is not bound to any procedure. See main.cliListener for more details.")
		case "q":
			close(interrupt)
			return
		case "w":
			fmt.Printf("Current Wallet: \n%s\n", actors.MyWallet().Account)
		case "i":
			data, ok := conductor.Snapshot()
			if !ok {
				fmt.Println("The identity program has not been initialized yet")
				break
			}
			creator, _ := conductor.Creator()
			fmt.Printf("CREATOR: %s\nHASH: %s\n", creator, data.Hash())
			spew.Dump(data)
		case "r":
			fmt.Printf("Messages held by the replay guard: %d\n", guard.Len())
		case "c":
			fmt.Println("CURRENT CONFIG")
			for k, v := range actors.MakeOrGetConfig().AllSettings() {
				fmt.Printf("\nKey: %s; Value: %v\n", k, v)
			}
		}
	}
}
