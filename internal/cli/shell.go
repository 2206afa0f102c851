package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"orderconsole/internal/console"
	"orderconsole/internal/fieldstore"
)

const shellHelp = `commands:
  set <field> <value>   set a form field (id, customer, date or a full field name)
  get <field>           print a form field
  show                  print the form, status and tables
  create | update | retrieve | delete | search | items | clear
                        trigger an action without waiting for it
  wait                  wait for outstanding actions, then show
  help                  print this help
  quit                  leave the shell
`

var fieldAliases = map[string]string{
	"id":       fieldstore.OrderID,
	"customer": fieldstore.OrderCustomer,
	"date":     fieldstore.OrderDate,
}

func resolveField(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if full, ok := fieldAliases[name]; ok {
		return full, true
	}
	for _, f := range append(append([]string{}, fieldstore.OrderFields...), fieldstore.ItemFields...) {
		if f == name {
			return f, true
		}
	}
	return "", false
}

func newShellCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive console reading commands from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			out := &syncWriter{w: cmd.OutOrStdout()}
			sh := &shell{session: s, out: out}
			return sh.run(cmd.Context(), cmd.InOrStdin())
		},
	}
}

type shell struct {
	*session
	out io.Writer

	banners sync.WaitGroup
}

var errQuit = errors.New("quit")

func (sh *shell) run(ctx context.Context, in io.Reader) error {
	fmt.Fprint(sh.out, "type 'help' for commands\n")
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		err := sh.exec(ctx, line)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	err := sh.dispatcher.WaitIdle(ctx)
	sh.banners.Wait()
	return err
}

func (sh *shell) exec(ctx context.Context, line string) error {
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(word) {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprint(sh.out, shellHelp)
		return nil
	case "show":
		return sh.store.Render(sh.out)
	case "wait":
		if err := sh.dispatcher.WaitIdle(ctx); err != nil {
			return err
		}
		return sh.store.Render(sh.out)
	case "set":
		name, value, _ := strings.Cut(rest, " ")
		field, ok := resolveField(name)
		if !ok {
			return fmt.Errorf("unknown field %q", name)
		}
		value = strings.TrimSpace(value)
		return sh.dispatcher.Update(ctx, func(st fieldstore.Store) { st.Set(field, value) })
	case "get":
		field, ok := resolveField(rest)
		if !ok {
			return fmt.Errorf("unknown field %q", rest)
		}
		var value string
		if err := sh.dispatcher.Update(ctx, func(st fieldstore.Store) { value = st.Get(field) }); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "%s: %s\n", field, value)
		return nil
	}

	action, err := console.ParseAction(word)
	if err != nil {
		return fmt.Errorf("%w (try 'help')", err)
	}
	p, err := sh.dispatcher.Trigger(ctx, action)
	if err != nil {
		return err
	}
	sh.banners.Add(1)
	go func() {
		defer sh.banners.Done()
		select {
		case <-p.Done():
			fmt.Fprintf(sh.out, "[%s] %s\n", p.Action, p.Banner())
		case <-ctx.Done():
		}
	}()
	return nil
}
