package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shopapi/internal/core/auth"
	"shopapi/internal/core/config"
	"shopapi/internal/core/database"
	"shopapi/internal/core/logger"
	"shopapi/internal/service"
	"shopapi/internal/store"
)

// app 一次命令执行期间的依赖
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	st    store.Store
	set   *service.Set
	jwter *auth.JWTer
}

func (a *app) close() {
	if a.st != nil {
		_ = a.st.Close(context.Background())
	}
	_ = a.log.Sync()
}

// boot 读取配置；withStore 为 true 时同时连库
func boot(ctx context.Context, configPath string, withStore bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	l, _ := logger.New(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	a := &app{
		cfg: cfg,
		log: l,
		jwter: &auth.JWTer{
			Secret: []byte(cfg.JWT.Secret),
			Issuer: cfg.JWT.Issuer,
			TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
			Leeway: time.Duration(cfg.JWT.LeewaySec) * time.Second,
		},
	}
	if !withStore {
		return a, nil
	}
	st, err := database.Connect(ctx, database.Opts{
		Driver:     cfg.Mongo.Driver,
		URI:        cfg.Mongo.URI,
		Database:   cfg.Mongo.Database,
		TimeoutSec: cfg.Mongo.TimeoutSec,
	})
	if err != nil {
		return nil, err
	}
	a.st = st
	a.set = service.NewSet(st, service.Settings{
		BcryptCost:   cfg.Security.BcryptCost,
		DefaultLimit: cfg.Pagination.DefaultLimit,
		MaxLimit:     cfg.Pagination.MaxLimit,
	}, a.jwter, l)
	return a, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "shopadmin",
		Short:         "Operator commands for the shop API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or ./configs/config.local.yaml)")

	withApp := func(needStore bool, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context(), configPath, needStore)
			if err != nil {
				return err
			}
			defer a.close()
			return fn(cmd, a, args)
		}
	}

	root.AddCommand(indexesCmd(withApp), userCmd(withApp), tokenCmd(withApp))
	return root
}

type runner func(needStore bool, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error

// shopadmin indexes
func indexesCmd(with runner) *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the unique and lookup indexes",
		Args:  cobra.NoArgs,
		RunE: with(true, func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.set.EnsureIndexes(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "indexes ensured")
			return nil
		}),
	}
}

// shopadmin user create|activate|inactivate
func userCmd(with runner) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage user accounts"}

	var in service.CreateUserInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an ACTIVE user",
		Args:  cobra.NoArgs,
		RunE: with(true, func(cmd *cobra.Command, a *app, _ []string) error {
			u, err := a.set.Users.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		}),
	}
	create.Flags().StringVar(&in.Username, "username", "", "login name")
	create.Flags().StringVar(&in.Name, "name", "", "display name")
	create.Flags().StringVar(&in.Email, "email", "", "email address")
	create.Flags().StringVar(&in.Password, "password", "", "plain password, stored as bcrypt hash")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("password")

	activate := &cobra.Command{
		Use:   "activate <id>",
		Short: "Set a user's status to ACTIVE",
		Args:  cobra.ExactArgs(1),
		RunE: with(true, func(cmd *cobra.Command, a *app, args []string) error {
			u, err := a.set.Users.Activate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		}),
	}
	inactivate := &cobra.Command{
		Use:   "inactivate <id>",
		Short: "Set a user's status to INACTIVE; the user can no longer log in",
		Args:  cobra.ExactArgs(1),
		RunE: with(true, func(cmd *cobra.Command, a *app, args []string) error {
			u, err := a.set.Users.Inactivate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		}),
	}
	cmd.AddCommand(create, activate, inactivate)
	return cmd
}

// shopadmin token inspect|verify
func tokenCmd(with runner) *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Inspect access tokens"}

	inspect := &cobra.Command{
		Use:   "inspect <token>",
		Short: "Decode a token WITHOUT verifying its signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, ok := auth.DecodeUnchecked(args[0])
			if !ok {
				return fmt.Errorf("token: cannot decode")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "# UNVERIFIED: signature and expiry were not checked")
			return printJSON(cmd.OutOrStdout(), claims)
		},
	}
	verify := &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify signature and expiry with the configured secret",
		Args:  cobra.ExactArgs(1),
		RunE: with(false, func(cmd *cobra.Command, a *app, args []string) error {
			claims, err := a.jwter.Verify(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), claims)
		}),
	}
	cmd.AddCommand(inspect, verify)
	return cmd
}
