package library

type Wallet struct {
	PrivateKey string
	SeedWords  string
	Account    Account
}

// Account is a 32 byte identifier (a nostr public key) in lowercase hex.
type Account = string

type Sha256 = string
