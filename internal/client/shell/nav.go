package shell

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"oftalmo/internal/shared/models"
)

const brand = "OftalmoPro"

type NavItem struct {
	Name   string
	Href   string
	Active bool
}

var navigation = []NavItem{
	{Name: "Dashboard", Href: "/dashboard"},
	{Name: "Pacientes", Href: "/pacientes"},
	{Name: "Consultas", Href: "/consultas"},
	{Name: "Agenda", Href: "/agenda"},
}

// NavItems returns the sidebar entries with the one matching active marked.
func NavItems(active string) []NavItem {
	items := make([]NavItem, len(navigation))
	for i, item := range navigation {
		item.Active = item.Href == active
		items[i] = item
	}
	return items
}

// Avatar is the first letter of the user's full name, or "U".
func Avatar(user models.User) string {
	name := strings.TrimSpace(user.NomeCompleto)
	if name == "" {
		return "U"
	}
	r, _ := utf8.DecodeRuneInString(name)
	return string(r)
}

// RenderNav writes the header bar: brand, navigation and the signed-in user.
func RenderNav(w io.Writer, active string, user models.User) {
	parts := make([]string, 0, len(navigation))
	for _, item := range NavItems(active) {
		if item.Active {
			parts = append(parts, "["+item.Name+"]")
			continue
		}
		parts = append(parts, item.Name)
	}
	fmt.Fprintf(w, "%s | %s | (%s) %s", brand, strings.Join(parts, "  "), Avatar(user), user.NomeCompleto)
	if user.CRM != "" {
		fmt.Fprintf(w, " CRM: %s", user.CRM)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 60))
}

func renderLogin(w io.Writer) {
	fmt.Fprintln(w, brand)
	fmt.Fprintln(w, "Sessão não iniciada. Entre com suas credenciais:")
	fmt.Fprintln(w, "  oftalmo auth login")
}
