// Package setup is the interactive wizard for adding an exchange
// account: pick the provider, name it, paste the API credentials and
// confirm. Saving goes through the vault; nothing here touches the
// secret stores directly.
package setup

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// AccountSaver persists the account entered in the wizard.
type AccountSaver interface {
	SaveAccount(creds entity.Credentials, exchange entity.Exchange, label string) (entity.ExchangeAccount, error)
}

// RunTUI walks the user through adding one exchange account.
func RunTUI(saver AccountSaver) error {
	var (
		exchangeStr string
		label       string
		apiKey      string
		secretKey   string
		passphrase  string
		confirm     bool
	)

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("AIRCAPITAL ACCOUNT SETUP"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Add an exchange account to your portfolio.\n"))

	fmt.Println(stepStyle.Render("STEP 1: EXCHANGE"))
	exchangeOptions := make([]huh.Option[string], 0, len(entity.AllExchanges))
	for _, e := range entity.AllExchanges {
		exchangeOptions = append(exchangeOptions, huh.NewOption(e.DisplayName(), e.String()))
	}
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange").
				Options(exchangeOptions...).
				Value(&exchangeStr),
		),
	).Run()
	if err != nil {
		return err
	}

	exchange, err := entity.ParseExchange(exchangeStr)
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("AIRCAPITAL ACCOUNT SETUP"))
	fmt.Println(stepStyle.Render("STEP 2: CREDENTIALS"))

	fields := []huh.Field{
		huh.NewInput().
			Title("Account Label").
			Description("Optional, e.g. \"main\" or \"savings\"").
			Value(&label),
		huh.NewInput().
			Title("API Key").
			Value(&apiKey).
			Validate(validateNotEmpty("API key")),
		huh.NewInput().
			Title("Secret Key").
			Value(&secretKey).
			EchoMode(huh.EchoModePassword).
			Validate(validateNotEmpty("secret key")),
	}
	if exchange.RequiresPassphrase() {
		fields = append(fields, huh.NewInput().
			Title("API Passphrase").
			Value(&passphrase).
			EchoMode(huh.EchoModePassword).
			Validate(validateNotEmpty("passphrase")),
		)
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("AIRCAPITAL ACCOUNT SETUP"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf("Exchange: %s\nLabel: %s\nAPI Key: %s\n",
		exchange.DisplayName(), displayLabel(label), maskKey(apiKey))
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Account?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	account, err := saver.SaveAccount(entity.Credentials{
		APIKey:     apiKey,
		SecretKey:  secretKey,
		Passphrase: passphrase,
	}, exchange, label)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(
		fmt.Sprintf("\n✓ %s account saved (%s)", exchange, account.ID)))
	return nil
}

func validateNotEmpty(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
		return nil
	}
}

// maskKey keeps just enough of the key to recognize it in the summary.
func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

func displayLabel(label string) string {
	if strings.TrimSpace(label) == "" {
		return "(none)"
	}
	return label
}
