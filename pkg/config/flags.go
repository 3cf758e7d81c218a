package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// (e.g. --provider on "igw generate", "igw chat" and "igw models") cannot
// drift between commands.
type Flag struct {
	// Name is the long flag name (e.g. "provider").
	Name string

	// Shorthand is the one-letter short flag (e.g. "p"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "client.provider").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagURL        = "url"
	FlagTimeout    = "timeout"
	FlagProvider   = "provider"
	FlagModel      = "model"
	FlagTerminator = "terminator"
	FlagErrorEvent = "error-event"
	FlagChunkSize  = "chunk-size"
)

// Flags is the registry shared by every igw command.
var Flags = FlagSet{
	FlagURL: {
		Name:        "url",
		Shorthand:   "u",
		ViperKey:    "gateway.url",
		Description: "Inference gateway URL",
	},
	FlagTimeout: {
		Name:        "timeout",
		ViperKey:    "gateway.timeout",
		Description: "Request timeout (e.g. 30s); bounds only the wait for headers when streaming",
	},
	FlagProvider: {
		Name:        "provider",
		Shorthand:   "p",
		ViperKey:    "client.provider",
		Description: "LLM provider (ollama, groq, openai, google, cloudflare, cohere, anthropic)",
	},
	FlagModel: {
		Name:        "model",
		Shorthand:   "m",
		ViperKey:    "client.model",
		Description: "Model name",
	},
	FlagTerminator: {
		Name:        "terminator",
		ViperKey:    "stream.terminator",
		Description: "Data value that ends a stream",
	},
	FlagErrorEvent: {
		Name:        "error-event",
		ViperKey:    "stream.error_event",
		Description: "Event name the gateway uses for in-stream errors",
	},
	FlagChunkSize: {
		Name:        "chunk-size",
		ViperKey:    "stream.chunk_size",
		Description: "Read buffer size for streamed responses, in bytes",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	addString(cmd.Flags(), def, target)
}

// AddPersistentStringFlag is AddStringFlag for flags inherited by every
// subcommand of cmd.
func AddPersistentStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	addString(cmd.PersistentFlags(), def, target)
}

func addString(flags *pflag.FlagSet, def Flag, target *string) {
	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		flags.StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		flags.StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
