package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"oftalmo/internal/client/api"
)

const msgLoginFailed = "Erro ao fazer login"

type authCmd struct {
	opts  *options
	email string
}

func newAuthCmd(opts *options) *cobra.Command {
	a := &authCmd{opts: opts}
	cmd := &cobra.Command{Use: "auth", Short: "Authentication commands"}

	login := &cobra.Command{Use: "login", Short: "Login and store the session", RunE: a.login}
	login.Flags().StringVar(&a.email, "email", "", "account email (prompted when empty)")
	cmd.AddCommand(login)
	cmd.AddCommand(&cobra.Command{Use: "logout", Short: "Clear the stored session", RunE: a.logout})
	cmd.AddCommand(&cobra.Command{Use: "status", Short: "Show the stored session", RunE: a.status})
	return cmd
}

func (a *authCmd) login(cmd *cobra.Command, args []string) error {
	app, err := a.opts.load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	email := a.email
	if email == "" {
		fmt.Fprint(out, "Email: ")
		email, err = readLine(reader)
		if err != nil {
			return err
		}
	}
	senha, err := promptPassword(cmd, reader, "Senha: ")
	if err != nil {
		return err
	}

	resp, err := app.client.Login(cmd.Context(), email, senha)
	if err != nil {
		fmt.Fprintf(out, "Erro: %s\n", api.ClientMessage(err, msgLoginFailed))
		return err
	}
	if err := app.store.Login(resp.Token, resp.User); err != nil {
		return err
	}
	fmt.Fprintf(out, "Bem-vindo, %s\n", resp.User.NomeCompleto)
	return nil
}

func (a *authCmd) logout(cmd *cobra.Command, args []string) error {
	app, err := a.opts.load()
	if err != nil {
		return err
	}
	if err := app.store.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Sessão encerrada")
	return nil
}

func (a *authCmd) status(cmd *cobra.Command, args []string) error {
	app, err := a.opts.load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	user, ok := app.store.User()
	if !ok {
		fmt.Fprintln(out, "Sessão: não autenticado")
		return nil
	}
	fmt.Fprintf(out, "Sessão: autenticado como %s (CRM: %s)\n", user.NomeCompleto, user.CRM)
	fmt.Fprintf(out, "Servidor: %s\n", app.client.BaseURL())
	return nil
}

// promptPassword hides input on a terminal and otherwise reads one line.
func promptPassword(cmd *cobra.Command, reader *bufio.Reader, prompt string) (string, error) {
	out := cmd.OutOrStdout()
	fmt.Fprint(out, prompt)
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pass, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		return string(pass), err
	}
	line, err := readLine(reader)
	fmt.Fprintln(out)
	return line, err
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
