// Package cli defines the aws-ec2 commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mmmorris1975/aws-ec2/config"
	"github.com/mmmorris1975/aws-ec2/logging"
	"github.com/mmmorris1975/aws-ec2/prompt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	flagProfile    = "profile"
	flagDebug      = "debug"
	flagAWSProfile = "aws-profile"
	flagRegion     = "region"
	flagLogFile    = "log-file"
	flagConfig     = "config"

	envPrefix = "AWS_EC2"
)

// Execute runs the command line in os.Args, and returns the process exit code.
func Execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, newRootCommand(newApp(), version), os.Args[1:], os.Stderr)
}

func run(ctx context.Context, cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, prompt.ErrCancelled) {
			_, _ = fmt.Fprintf(stderr, "aws-ec2: error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCommand(a *app, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "aws-ec2",
		Short:         "SSH to EC2 instances using EC2 Instance Connect",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	f := cmd.PersistentFlags()
	f.StringP(flagProfile, "P", config.DefaultProfile, "Profile to use")
	f.BoolP(flagDebug, "d", false, "Enable debug output")
	f.String(flagAWSProfile, "", "AWS shared config profile used for credentials")
	f.String(flagRegion, "", "AWS region")
	f.String(flagLogFile, "", "Also write debug logging to this file")
	f.String(flagConfig, config.DefaultPath(), "Configuration file")

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(f)

	cmd.AddCommand(newConfigureCommand(a), newSSHCommand(a))
	return cmd
}

// setup sets up the logger and loads the profile, once flags are parsed
func (a *app) setup() error {
	a.log = logging.New(logging.Options{
		Debug: a.v.GetBool(flagDebug),
		File:  a.v.GetString(flagLogFile),
	})

	s, err := config.Load(a.v.GetString(flagConfig), a.v.GetString(flagProfile))
	if err != nil {
		return err
	}
	a.store = s

	a.log.Debug("using configuration profile", zap.String("profile", s.Name()), zap.String("path", s.Path()))
	return nil
}
