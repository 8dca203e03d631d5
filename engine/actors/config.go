package actors

import (
	"os"
	"time"

	"github.com/sasha-s/go-deadlock"
	"github.com/spf13/viper"
	"persona/engine/library"
)

// Event kinds carrying messages to and from an identity program.
const (
	KindInit   = 640800
	KindHandle = 640801
	KindReply  = 640802
)

// InitConfig sets up our Viper config object
func InitConfig(config *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
	config.SetDefault("rootDir", homeDir+"/persona/")
	config.SetConfigType("yaml")
	config.SetConfigFile(config.GetString("rootDir") + "config.yaml")
	err = config.ReadInConfig()
	if err != nil {
		library.LogCLI(err.Error(), 4)
	}
	config.SetDefault("flatFileDir", "data/")
	config.SetDefault("logLevel", 4)
	config.SetDefault("doNotPublish", false)
	config.SetDefault("relaysMust", []string{"wss://nostr.688.org"})
	config.SetDefault("relayTimeout", 10*time.Second)
	config.SetDefault("replayTTL", 24*time.Hour)
	// resubscribe if no relay has sent anything for this long
	config.SetDefault("silenceTimeout", 5*time.Minute)
	config.SetDefault("deadlockTimeout", 2*time.Minute)
	// Create our working directory and config file if not exist
	initRootDir(config)
	if err := library.Touch(config.GetString("rootDir") + "config.yaml"); err != nil {
		library.LogCLI(err.Error(), 0)
	}
	err = config.WriteConfig()
	if err != nil {
		library.LogCLI(err.Error(), 0)
	}
	library.SetLogLevel(config.GetInt("logLevel"))
	deadlock.Opts.DeadlockTimeout = DeadlockTimeout(config)
}

// DeadlockTimeout is the configured detector timeout, raised to twice the longest network wait so a
// slow relay is never reported as a deadlock.
func DeadlockTimeout(config *viper.Viper) time.Duration {
	timeout := config.GetDuration("deadlockTimeout")
	for _, key := range []string{"relayTimeout", "replyWait"} {
		if d := 2 * config.GetDuration(key); d > timeout {
			timeout = d
		}
	}
	return timeout
}

func initRootDir(conf *viper.Viper) {
	_, err := os.Stat(conf.GetString("rootDir"))
	if os.IsNotExist(err) {
		err = os.MkdirAll(conf.GetString("rootDir"), 0755)
		if err != nil {
			library.LogCLI(err, 0)
		}
	}
}

var conf *viper.Viper

func MakeOrGetConfig() *viper.Viper {
	if conf == nil {
		conf = viper.New()
	}
	return conf
}

func SetConfig(config *viper.Viper) {
	conf = config
}
