package cmd

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"atlbrowse/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set one configuration value.",
	Long: `Update one dotted key in the active configuration file.

The file is created from the example template when missing. The updated
document is validated before it is written back.

Known keys:
  ` + strings.Join(config.Keys(), "\n  "),
	Example: `
  # Point atlbrowse at a site
  atlbrowse config set atlassian.domain acme.atlassian.net

  # Smaller issue batches
  atlbrowse config set paging.issue_batch_size 25
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigEditPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}
		if _, err := ensureConfigFileWithTemplate(configPath); err != nil {
			return err
		}

		content, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("reading config failed: %w", err)
		}
		updated, err := setConfigValueYAML(content, args[0], args[1])
		if err != nil {
			return err
		}
		if err := os.WriteFile(configPath, updated, 0o600); err != nil {
			return fmt.Errorf("writing config failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s in %s\n", strings.TrimSpace(args[0]), configPath)
		return nil
	},
}

// setConfigValueYAML sets a dotted key in a YAML document and returns the
// re-encoded document. Comments in the original are not preserved.
func setConfigValueYAML(content []byte, key, value string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if !slices.Contains(config.Keys(), key) {
		return nil, fmt.Errorf("unknown config key %q", key)
	}

	typed, err := typedConfigValue(key, strings.TrimSpace(value))
	if err != nil {
		return nil, err
	}

	doc := map[string]any{}
	if strings.TrimSpace(string(content)) != "" {
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	parts := strings.Split(key, ".")
	section := doc
	for _, part := range parts[:len(parts)-1] {
		section, err = ensureMapAny(section, part)
		if err != nil {
			return nil, err
		}
	}
	section[parts[len(parts)-1]] = typed

	updated, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode config yaml: %w", err)
	}
	if _, err := config.ValidateYAMLContent(updated); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return updated, nil
}

func typedConfigValue(key, value string) (any, error) {
	switch key {
	case config.KeyIssueBatchSize, config.KeyPageBatchSize:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be a whole number, got %q", key, value)
		}
		return n, nil
	default:
		return value, nil
	}
}

func ensureMapAny(doc map[string]any, key string) (map[string]any, error) {
	raw, exists := doc[key]
	if !exists || raw == nil {
		result := map[string]any{}
		doc[key] = result
		return result, nil
	}
	result, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config key %q must be a mapping", key)
	}
	return result, nil
}

func init() {
	configCmd.AddCommand(configSetCmd)
}
