package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/capitancloud/ai-text-companion/internal/companion/auth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Unlock the companion with the access code",
	Long: `Unlock the companion with the shared access code.

The code is read from the terminal without echo, or from the first line of
stdin when stdin is not a terminal. Only its SHA-256 digest is stored, as the
session token, until 'companion logout' or the configured session_ttl.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if a.gate.Authenticated() {
			fmt.Println("Already logged in.")
			return nil
		}

		code, err := readAccessCode(os.Stdin, os.Stderr)
		if err != nil {
			return fmt.Errorf("reading access code: %w", err)
		}

		if err := a.gate.Login(cmd.Context(), code); err != nil {
			return loginError(err)
		}

		fmt.Println("Access granted.")
		return nil
	},
}

// loginError maps gate errors to the messages shown to the user
func loginError(err error) error {
	switch {
	case errors.Is(err, auth.ErrEmptyCode):
		return errors.New(errorStyle.Render("Enter the access code"))
	case errors.Is(err, auth.ErrInvalidCode):
		return errors.New(errorStyle.Render("Invalid access code"))
	default:
		return errors.New(errorStyle.Render("Error during verification"))
	}
}

// readAccessCode reads the code without echo from a terminal, or one line
// from a pipe.
func readAccessCode(in *os.File, prompt io.Writer) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(prompt, "Access code: ")
		code, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(code), nil
	}
	return readLine(in)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.gate.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether this session is logged in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if a.gate.Authenticated() {
			fmt.Println("Logged in.")
		} else {
			fmt.Println("Not logged in. Run 'companion login'.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
}
