package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/nbd-wtf/go-nostr"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"persona/engine/actors"
	"persona/engine/library"
	"persona/messaging/eventconductor"
	"persona/messaging/relays"
	"persona/state/identity"
)

var conf = viper.New()

func RootCommand() *cobra.Command {
	homeDir, _ := os.UserHomeDir()
	var rootDir string
	rootCmd := &cobra.Command{
		Use:   "event-tool",
		Short: "Send messages to an identity program over nostr",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(conf, cmd.Root().PersistentFlags()); err != nil {
				return err
			}
			// keep the caller wallet apart from any engine running on this machine
			conf.Set("rootDir", strings.TrimSuffix(rootDir, "/")+"/")
			actors.InitConfig(conf)
			actors.SetConfig(conf)
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", homeDir+"/persona-client/", "directory holding the caller wallet and config")
	rootCmd.PersistentFlags().String("program", "", "public key (hex) of the identity program")
	rootCmd.PersistentFlags().Duration("wait", 30*time.Second, "how long to wait for a reply")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "create the identity record, making this wallet its creator",
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := programAccount()
			if err != nil {
				return err
			}
			e, err := actors.InitEventBuilder(actors.MyWallet(), program)
			if err != nil {
				return err
			}
			return publish(cmd.Context(), e)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "fetch and print the identity record",
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := programAccount()
			if err != nil {
				return err
			}
			payload, err := eventconductor.EncodeCommand(eventconductor.Get{})
			if err != nil {
				return err
			}
			e, err := actors.HandleEventBuilder(actors.MyWallet(), program, payload)
			if err != nil {
				return err
			}
			if err := publish(cmd.Context(), e); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), conf.GetDuration("replyWait"))
			defer cancel()
			reply, err := relays.FetchReply(ctx, conf.GetStringSlice("relaysMust"), program, e.ID)
			if err != nil {
				return err
			}
			b, err := hex.DecodeString(reply.Content)
			if err != nil {
				return errors.Wrap(err, "reply content")
			}
			data, err := identity.DecodeIdentityData(b)
			if err != nil {
				return err
			}
			fmt.Printf("HASH: %s\n", data.Hash())
			spew.Dump(data)
			return nil
		},
	})

	var names, socials, keywords, regions []string
	update := &cobra.Command{
		Use:   "update",
		Short: "replace fields of the identity record",
		Long: "Each flag adds one modification. Repeated flags are applied in the order given,\n" +
			"kinds are applied as name, socials, keywords then region.",
		RunE: func(cmd *cobra.Command, args []string) error {
			program, err := programAccount()
			if err != nil {
				return err
			}
			mods, err := buildModifications(names, socials, keywords, regions)
			if err != nil {
				return err
			}
			payload, err := eventconductor.EncodeCommand(eventconductor.Update{Modifications: mods})
			if err != nil {
				return err
			}
			e, err := actors.HandleEventBuilder(actors.MyWallet(), program, payload)
			if err != nil {
				return err
			}
			return publish(cmd.Context(), e)
		},
	}
	update.Flags().StringArrayVar(&names, "name", nil, "new name")
	update.Flags().StringArrayVar(&socials, "socials", nil, "new socials link")
	update.Flags().StringArrayVar(&keywords, "keywords", nil, "comma separated keywords, replacing all current ones")
	update.Flags().StringArrayVar(&regions, "region", nil, "earth, europe or latam")
	rootCmd.AddCommand(update)

	return rootCmd
}

// bindFlags exposes the persistent flags as config keys, so they can also be set in config.yaml.
func bindFlags(conf *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range map[string]string{"program": "program", "replyWait": "wait"} {
		if err := conf.BindPFlag(key, flags.Lookup(name)); err != nil {
			return errors.Wrapf(err, "binding --%s", name)
		}
	}
	return nil
}

func programAccount() (library.Account, error) {
	program := conf.GetString("program")
	if program == "" {
		return "", errors.New("--program is required")
	}
	return library.CanonicalAccount(program)
}

func buildModifications(names, socials, keywords, regions []string) ([]identity.Modification, error) {
	var mods []identity.Modification
	for _, n := range names {
		mods = append(mods, identity.SetName(n))
	}
	for _, s := range socials {
		mods = append(mods, identity.SetSocials(s))
	}
	for _, k := range keywords {
		list := []string{}
		for _, word := range strings.Split(k, ",") {
			if word = strings.TrimSpace(word); word != "" {
				list = append(list, word)
			}
		}
		mods = append(mods, identity.SetKeywords(list))
	}
	for _, r := range regions {
		region, err := identity.ParseRegion(r)
		if err != nil {
			return nil, err
		}
		mods = append(mods, identity.SetRegion(region))
	}
	return mods, nil
}

func publish(ctx context.Context, e nostr.Event) error {
	if err := relays.PublishToRelays(ctx, e, conf.GetStringSlice("relaysMust")); err != nil {
		return err
	}
	fmt.Printf("Published %s\n", e.ID)
	return nil
}
