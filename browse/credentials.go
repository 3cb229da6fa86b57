package browse

import (
	"context"
	"strings"

	"atlbrowse/internal/prompt"
)

// CollectCredentials prompts for every value missing from defaults.
func CollectCredentials(ctx context.Context, console *prompt.Console, defaults Credentials) (Credentials, error) {
	creds := Credentials{
		Domain: strings.TrimSpace(defaults.Domain),
		Email:  strings.TrimSpace(defaults.Email),
		Token:  strings.TrimSpace(defaults.Token),
	}

	var err error
	if creds.Domain == "" {
		creds.Domain, err = console.Required(ctx, "Enter your Atlassian domain (e.g., 'your-domain.atlassian.net')")
		if err != nil {
			return Credentials{}, err
		}
	}
	if creds.Email == "" {
		creds.Email, err = console.Required(ctx, "Enter your account email")
		if err != nil {
			return Credentials{}, err
		}
	}
	for creds.Token == "" {
		creds.Token, err = console.Secret(ctx, "Enter your API token: ")
		if err != nil {
			return Credentials{}, err
		}
	}
	return creds, nil
}
