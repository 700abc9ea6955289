package main

import (
	"fmt"
	"os"

	"setlist/internal/config"
)

// arguments holds the parsed command line.
type arguments struct {
	command string // scan, download or recognize
	target  string // URL or file path, when the command takes one
}

// parseArgs parses command-line arguments and loads configuration.
// Priority: CLI flags > config file > defaults.
func parseArgs() (arguments, config.Config, error) {
	args := os.Args[1:]

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			printUsage()
			os.Exit(0)
		}
		if arg == "--init-config" {
			return arguments{}, config.Config{}, initConfigFile()
		}
	}

	var configPath string
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" || args[i] == "-c" {
			if i+1 >= len(args) {
				return arguments{}, config.Config{}, fmt.Errorf("--config requires a path argument")
			}
			configPath = args[i+1]
			break
		}
	}

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		return arguments{}, config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	var parsed arguments
	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--debug", "-d":
			cfg.Debug = true

		case "--config", "-c":
			i++

		default:
			if len(arg) > 0 && arg[0] == '-' {
				return arguments{}, config.Config{}, fmt.Errorf("unknown flag: %s", arg)
			}
			if parsed.command == "" {
				parsed.command = arg
			} else if parsed.target == "" {
				parsed.target = arg
			} else {
				return arguments{}, config.Config{}, fmt.Errorf("unexpected argument: %s", arg)
			}
		}
	}

	if parsed.command == "" {
		printUsage()
		os.Exit(1)
	}

	return parsed, cfg, nil
}

// initConfigFile creates a new config file with default values.
func initConfigFile() error {
	path := config.GetDefaultConfigPath()

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config file already exists at: %s\n", path)
		fmt.Println("Delete it first if you want to recreate it.")
		os.Exit(0)
	}

	if err := config.SaveConfigFile(config.DefaultConfig(), path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Printf("Created default config file at: %s\n", path)
	fmt.Println("\nYou can now edit this file to customize your settings.")
	fmt.Println("Available options:")
	fmt.Println("  downloads_dir:      where downloaded audio is stored")
	fmt.Println("  results_dir:        where tracklist files are written")
	fmt.Println("  segment_length_ms:  recognition window length (default 60000)")
	fmt.Println("  export_workers:     parallel segment exports, 1-16 (default 4)")
	fmt.Println("  max_attempts:       recognition attempts per segment (default 3)")
	fmt.Println("  retry_delay_ms:     wait between attempts (default 2000)")
	fmt.Println("  pacing_delay_ms:    wait between segments (default 500)")
	fmt.Println("  recognize_url:      recognition service endpoint")

	os.Exit(0)
	return nil
}

// printUsage displays the help message.
func printUsage() {
	fmt.Println("setlist - identify the tracks inside long recordings (DJ sets, mixes)")
	fmt.Println()
	fmt.Println("Usage: setlist <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  scan                       Recognize every MP3 in the downloads directory")
	fmt.Println("  download <url>             Download audio from YouTube or SoundCloud, then recognize it")
	fmt.Println("  recognize <file_or_url>    Recognize a local audio file, or download a URL and recognize it")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -d, --debug                Show detailed output and disable the progress bar")
	fmt.Println("  -c, --config <path>        Path to config file")
	fmt.Println("  -h, --help                 Show this help message")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  --init-config              Create a default config file")
	fmt.Println()
	fmt.Println("Config file locations (checked in order):")
	fmt.Println("  ./setlist.yaml")
	fmt.Println("  ~/.config/setlist/config.yaml")
	fmt.Println("  ~/.setlist.yaml")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Printf("  %s            Recognition service API key (a .env file is honored)\n", config.APIKeyEnv)
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  setlist scan")
	fmt.Println("  setlist download https://www.youtube.com/watch?v=...")
	fmt.Println("  setlist recognize path/to/set.mp3")
	fmt.Println("  setlist recognize https://soundcloud.com/... --debug")
}
