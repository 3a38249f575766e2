package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/muesli/coral"
	"github.com/sirupsen/logrus"

	"github.com/mdouchement/devvault/internal/color"
	"github.com/mdouchement/devvault/internal/identity"
	"github.com/mdouchement/devvault/internal/model"
	"github.com/mdouchement/devvault/internal/vault"
)

var email string

// consoleCmd is an interactive vault session under the demo identity.
// It goes through the same facade as the server, so a configured remote
// is used with local fallback.
var consoleCmd = &coral.Command{
	Use:   "console",
	Short: "Interactive vault console",
	Args:  coral.ExactArgs(0),
	RunE: func(_ *coral.Command, _ []string) error {
		konf, err := load()
		if err != nil {
			return err
		}

		db, facade, err := stores(konf)
		if err != nil {
			return err
		}
		defer facade.Close()

		provider := identity.NewNotifier()
		v := vault.New(facade, provider, color.NewAssigner(db), logrus.StandardLogger())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go v.Run(ctx)

		// Run picks up the sign-in and loads the vault.
		provider.Set(identity.NewDemo(email))

		l, err := readline.New("devvault> ")
		if err != nil {
			return err
		}
		defer l.Close()

		fmt.Println("Type 'help' for the command list.")
		for {
			line, err := l.Readline()
			if err != nil { // io.EOF or readline.ErrInterrupt
				return nil
			}

			line = strings.TrimSpace(line)
			if line == "exit" || line == "quit" {
				return nil
			}

			if err := dispatch(ctx, v, line); err != nil {
				fmt.Println("error:", err)
			}
		}
	},
}

func dispatch(ctx context.Context, v *vault.Vault, line string) error {
	cmd, arg, _ := strings.Cut(line, " ")

	switch cmd {
	case "", "help":
		fmt.Print(`Commands:
  list [all|prompts|commands|snippets]  list items
  search <query>                        substring search
  add <type> <category> <title>         add an item, content prompted next
  del <id>                              delete an item
  categories                            category summary
  color <category>                      show the category theme
  exit
`)
	case "list":
		view := vault.ViewAll
		if arg != "" {
			view = vault.View(arg)
		}
		printItems(v.Filtered(vault.Filter{View: view}))
	case "search":
		printItems(v.Filtered(vault.Filter{Query: arg}))
	case "add":
		fields := strings.Fields(arg)
		if len(fields) < 3 {
			return fmt.Errorf("usage: add <type> <category> <title>")
		}
		content, err := readline.Line("content> ")
		if err != nil {
			return err
		}
		item, err := v.AddItem(ctx, model.ItemDraft{
			Type:     model.ItemType(fields[0]),
			Category: fields[1],
			Title:    strings.Join(fields[2:], " "),
			Content:  content,
		})
		if err != nil {
			return err
		}
		fmt.Println("created", item.ID)
	case "del":
		if arg == "" {
			return fmt.Errorf("usage: del <id>")
		}
		return v.DeleteItem(ctx, arg)
	case "categories":
		for _, row := range v.CategorySummary() {
			fmt.Printf("%4d  %s\n", row.Count, row.Name)
		}
	case "color":
		theme, err := v.Theme(arg)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s %s %s %s\n", theme.Text, theme.Background, theme.Border, theme.Ring, theme.Glow)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func printItems(items []*model.Item) {
	counts := vault.CountItems(items)
	for _, item := range items {
		fmt.Printf("%s  [%s/%s] %s\n", item.ID, item.Type, item.Category, item.Title)
	}
	fmt.Printf("%d item(s)\n", counts.Total)
}
