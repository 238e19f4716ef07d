package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive configuration wizard",
		Long:  "Guides you through setting up knowbot: choose a provider, enter your API key, pick a search backend, and save the config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("Welcome to knowbot configuration wizard!")
	fmt.Println()

	// Provider selection
	providers := []string{
		"openai", "anthropic", "deepseek", "groq", "kimi", "qwen",
	}
	fmt.Println("Available providers:")
	for i, p := range providers {
		fmt.Printf("  %d. %s\n", i+1, p)
	}
	fmt.Printf("\nSelect provider (1-%d) [1]: ", len(providers))
	providerName := providers[pickIndex(reader, len(providers))]
	fmt.Printf("Selected: %s\n\n", providerName)

	// API key
	fmt.Printf("Enter API key for %s: ", providerName)
	apiKey, _ := reader.ReadString('\n')
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	// Search backend
	searchers := []string{"duckduckgo", "tavily", "brave"}
	fmt.Println("\nWeb search backends:")
	fmt.Println("  1. duckduckgo (no key needed)")
	fmt.Println("  2. tavily (requires API key)")
	fmt.Println("  3. brave (requires API key)")
	fmt.Print("\nSelect search backend (1-3) [1]: ")
	searchName := searchers[pickIndex(reader, len(searchers))]

	web := map[string]any{"search_provider": searchName}
	if searchName != "duckduckgo" {
		fmt.Printf("Enter API key for %s search: ", searchName)
		searchKey, _ := reader.ReadString('\n')
		searchKey = strings.TrimSpace(searchKey)
		if searchKey == "" {
			return fmt.Errorf("search API key cannot be empty for %s", searchName)
		}
		web["search_api_key"] = searchKey
	}

	// Build config YAML
	configData := map[string]any{
		"provider": providerName,
		"providers": map[string]any{
			providerName: map[string]any{
				"api_key": apiKey,
			},
		},
		"web": web,
	}

	data, err := yaml.Marshal(configData)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// Save
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("get home dir: %w", err)
	}
	configDir := filepath.Join(home, ".config", "knowbot")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("\nConfig file already exists at %s\n", configPath)
		fmt.Print("Overwrite? [y/N]: ")
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("\nConfig saved to %s\n", configPath)
	fmt.Println("You can now run: knowbot")
	return nil
}

// pickIndex reads a 1-based menu choice, defaulting to the first entry on
// empty or invalid input.
func pickIndex(reader *bufio.Reader, max int) int {
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return 0
	}
	n := 0
	for _, c := range input {
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
		}
	}
	if n >= 1 && n <= max {
		return n - 1
	}
	return 0
}
