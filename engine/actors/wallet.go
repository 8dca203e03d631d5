package actors

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip06"
	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
	"persona/engine/library"
)

var ErrInvalidSeedWords = errors.New("invalid seed words")

var currentWallet library.Wallet
var currentWalletMutex = &deadlock.Mutex{}

// MyWallet returns the current Wallet or creates a new one if there isn't one already
func MyWallet() library.Wallet {
	currentWalletMutex.Lock()
	defer currentWalletMutex.Unlock()
	if len(currentWallet.PrivateKey) == 0 {
		//try to restore wallet from disk
		if w, ok := getWalletFromDisk(); ok {
			currentWallet = w
		} else {
			library.LogCLI("Generating a new wallet, write down the seed words if you want to keep it", 4)
			w, err := makeNewWallet()
			if err != nil {
				library.LogCLI(err.Error(), 0)
			}
			currentWallet = w
			fmt.Printf("\n\n~NEW WALLET~\nPublic Key: %s\nSeed Words: %s\n\n", currentWallet.Account, currentWallet.SeedWords)
			if err := persistCurrentWallet(); err != nil {
				library.LogCLI(err.Error(), 0)
			}
		}
	}
	return currentWallet
}

// WalletFromSeedWords derives the nip06 key for words.
func WalletFromSeedWords(seedWords string) (library.Wallet, error) {
	if !nip06.ValidateWords(seedWords) {
		return library.Wallet{}, ErrInvalidSeedWords
	}
	sk, err := nip06.PrivateKeyFromSeed(nip06.SeedFromWords(seedWords))
	if err != nil {
		return library.Wallet{}, errors.Wrap(err, "deriving private key")
	}
	account, err := getPubKey(sk)
	if err != nil {
		return library.Wallet{}, err
	}
	return library.Wallet{
		PrivateKey: sk,
		SeedWords:  seedWords,
		Account:    account,
	}, nil
}

// Sign sets the pubkey, id and signature of e using the wallet's key.
func Sign(w library.Wallet, e *nostr.Event) error {
	e.PubKey = w.Account
	e.ID = e.GetID()
	return errors.Wrap(e.Sign(w.PrivateKey), "signing event")
}

func makeNewWallet() (library.Wallet, error) {
	seedWords, err := nip06.GenerateSeedWords()
	if err != nil {
		return library.Wallet{}, errors.Wrap(err, "generating seed words")
	}
	return WalletFromSeedWords(seedWords)
}

// getPubKey is the x-only (BIP340) public key, always 32 bytes.
func getPubKey(privateKey string) (library.Account, error) {
	keyb, err := hex.DecodeString(privateKey)
	if err != nil {
		return "", errors.Wrap(err, "decoding private key from hex")
	}
	_, pubkey := btcec.PrivKeyFromBytes(keyb)
	return hex.EncodeToString(schnorr.SerializePubKey(pubkey)), nil
}

func persistCurrentWallet() error {
	b, err := json.Marshal(currentWallet)
	if err != nil {
		return err
	}
	return Write("wallet", "wallet", b)
}

func getWalletFromDisk() (w library.Wallet, ok bool) {
	b, ok := Open("wallet", "wallet")
	if !ok {
		return library.Wallet{}, false
	}
	if err := json.Unmarshal(b, &w); err != nil {
		library.LogCLI(fmt.Sprintf("Error parsing wallet file: %s", err.Error()), 3)
		return library.Wallet{}, false
	}
	return w, true
}
