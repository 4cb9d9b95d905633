package main

import (
	"crypto/rand"
	"fmt"

	"github.com/spf13/cobra"

	"xdao.co/ledgertx/keys"
)

func (a *app) newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Local key management",
	}
	cmd.AddCommand(a.newKeyInitCmd(), a.newKeyDeriveCmd(), a.newKeyExportCmd(), a.newKeyListCmd())
	return cmd
}

func (a *app) newKeyInitCmd() *cobra.Command {
	var (
		name    string
		seedHex string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a root key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := keys.CheckKeyName(name); err != nil {
				return fmt.Errorf("invalid --name: %w", err)
			}
			var seed []byte
			if seedHex != "" {
				var err error
				if seed, err = keys.ParseSeedHex(seedHex); err != nil {
					return fmt.Errorf("invalid --seed-hex: %w", err)
				}
			} else {
				seed = make([]byte, keys.SeedSize)
				if _, err := rand.Read(seed); err != nil {
					return fmt.Errorf("rand: %w", err)
				}
			}
			ks, err := a.keyStore()
			if err != nil {
				return err
			}
			pub, path, err := ks.InitializeRootKey(name, seed, force)
			if err != nil {
				return fmt.Errorf("write key: %w", err)
			}
			fmt.Fprintf(a.out, "Created root key: %s\n", pub)
			fmt.Fprintf(a.out, "Stored at: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key name (directory under the key store)")
	cmd.Flags().StringVar(&seedHex, "seed-hex", "", "ed25519 seed as 64 hex chars, for reproducible setups")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing key files")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) newKeyDeriveCmd() *cobra.Command {
	var (
		from  string
		role  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive a role key from a root key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := keys.CheckKeyName(from); err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			if err := keys.CheckRole(role); err != nil {
				return fmt.Errorf("invalid --role: %w", err)
			}
			ks, err := a.keyStore()
			if err != nil {
				return err
			}
			pub, path, err := ks.DeriveKeyFromRole(from, role, force)
			if err != nil {
				return fmt.Errorf("derive role key: %w", err)
			}
			fmt.Fprintf(a.out, "Created role key: %s\n", pub)
			fmt.Fprintf(a.out, "Stored at: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "root key name")
	cmd.Flags().StringVar(&role, "role", "", "role identifier (e.g. treasury, payroll)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing key files")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func (a *app) newKeyExportCmd() *cobra.Command {
	var name, role string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := keys.CheckKeyName(name); err != nil {
				return fmt.Errorf("invalid --name: %w", err)
			}
			if role != "" {
				if err := keys.CheckRole(role); err != nil {
					return fmt.Errorf("invalid --role: %w", err)
				}
			}
			ks, err := a.keyStore()
			if err != nil {
				return err
			}
			pub, err := ks.ExportKey(name, role)
			if err != nil {
				return fmt.Errorf("export key: %w", err)
			}
			fmt.Fprintln(a.out, pub)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key name")
	cmd.Flags().StringVar(&role, "role", "", "export the derived role key instead of the root key")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) newKeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List keys and their roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := a.keyStore()
			if err != nil {
				return err
			}
			entries, err := ks.ListKeys()
			if err != nil {
				return fmt.Errorf("list keys: %w", err)
			}
			for _, e := range entries {
				fmt.Fprintln(a.out, e.Identifier)
				for _, r := range e.Roles {
					fmt.Fprintf(a.out, "  - %s\n", r)
				}
			}
			return nil
		},
	}
}
