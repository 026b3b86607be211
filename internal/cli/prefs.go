package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/modmap/pkg/prefs"
)

// prefsCommand creates the preference management command.
func (c *CLI) prefsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change the stored detail preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPrefsShow(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print every preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPrefsShow(cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:               "set <flag> <on|off>",
		Short:             "Change one preference",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completePrefsSet,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := prefs.ParseBool(args[1])
			if err != nil {
				return err
			}
			store, err := c.prefsStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			p, err := store.Load(ctx, prefs.DefaultKey)
			if err != nil {
				return err
			}
			if err := p.Set(args[0], v); err != nil {
				return err
			}
			if err := store.Save(ctx, prefs.DefaultKey, p); err != nil {
				return err
			}
			printSuccess("%s %s", args[0], onOff(v))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the default preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.prefsStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Delete(cmd.Context(), prefs.DefaultKey); err != nil {
				return err
			}
			printSuccess("Preferences reset")
			return nil
		},
	})

	return cmd
}

func (c *CLI) runPrefsShow(cmd *cobra.Command) error {
	store, err := c.prefsStore()
	if err != nil {
		return err
	}
	defer store.Close()
	p, err := store.Load(cmd.Context(), prefs.DefaultKey)
	if err != nil {
		return err
	}
	printPrefs(cmd.OutOrStdout(), p)
	return nil
}

func printPrefs(w io.Writer, p prefs.Prefs) {
	for _, flag := range prefs.Flags() {
		v, _ := p.Get(flag)
		style := StyleDim
		if v {
			style = StyleSuccess
		}
		fmt.Fprintf(w, "%-14s %s\n", flag, style.Render(onOff(v)))
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
