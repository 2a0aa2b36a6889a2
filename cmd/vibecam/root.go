package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/vibecam/internal/config"
)

var (
	v   = config.NewViper()
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vibecam",
	Short: "Vibe Cam turns a conversation into a developed photo",
	Long: `Vibe Cam chats with you about the photo you want, fills in a scene description
as the conversation goes, and develops the result with a date-stamped caption.

Settings come from flags, VIBECAM_* environment variables, a .env file and an
optional vibecam.yaml.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		cfgFile, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: ./vibecam.yaml or $HOME/.vibecam/vibecam.yaml)")
	flags.String("env-file", ".env", "Dotenv file to load before reading the environment")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("provider", config.ProviderGemini, "Model provider: gemini or openai")
	flags.String("store", config.StoreMemory, "Session store: memory, file or redis")
	flags.String("store-dir", ".vibecam/sessions", "Directory of the file session store")
	flags.String("redis-addr", "localhost:6379", "Address of the redis session store")
	flags.String("catalog", "", "YAML or JSON file replacing the built-in camera presets")

	bind("log_level", flags.Lookup("log-level"))
	bind("provider", flags.Lookup("provider"))
	bind("store.type", flags.Lookup("store"))
	bind("store.dir", flags.Lookup("store-dir"))
	bind("store.redis.addr", flags.Lookup("redis-addr"))
	bind("catalog_file", flags.Lookup("catalog"))
}
